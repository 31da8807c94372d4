package processor

import "fmt"

// ItemError is a decode or encode failure confined to a single image. The
// image keeps its original bytes and the stage carries on.
type ItemError struct {
	Path string
	Op   string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
