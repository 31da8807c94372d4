package archive

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by *Error.
var (
	// ErrUnsafePath indicates an entry path escapes the archive root.
	ErrUnsafePath = errors.New("unsafe entry path")

	// ErrDuplicateEntry indicates two entries share a path once the common
	// root folder has been stripped.
	ErrDuplicateEntry = errors.New("duplicate entry path")

	// ErrEntryTooLarge indicates an entry exceeds the decompression limit.
	ErrEntryTooLarge = errors.New("entry exceeds decompression limit")
)

// Error is a fatal archive failure: the container could not be read or
// written. No partial entry set or output accompanies it.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("archive: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("archive: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
