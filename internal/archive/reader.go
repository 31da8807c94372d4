package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxEntrySize caps the decompressed size of a single entry. Defaults to
// 256 MiB.
const maxEntrySize int64 = 256 * 1024 * 1024

// ProgressFunc receives stage-local progress in [0,100].
type ProgressFunc func(percent float64)

func (p ProgressFunc) report(percent float64) {
	if p != nil {
		p(percent)
	}
}

// Unpack reads every entry of the container in data. Directory entries take
// part in common-root detection and are then dropped; file entries are
// decompressed in container order.
//
// Progress is proportional to cumulative uncompressed bytes, or to the entry
// count when the container declares no sizes. Any failure aborts the read and
// no entries are returned.
func Unpack(ctx context.Context, data []byte, progress ProgressFunc) ([]Entry, error) {
	return unpackWithLimit(ctx, data, progress, maxEntrySize)
}

func unpackWithLimit(ctx context.Context, data []byte, progress ProgressFunc, limit int64) ([]Entry, error) {
	progress.report(0)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, &Error{Op: "read directory", Err: err}
	}

	root := commonRoot(zr.File)

	var totalBytes uint64
	for _, f := range zr.File {
		totalBytes += f.UncompressedSize64
	}

	entries := make([]Entry, 0, len(zr.File))
	seen := make(map[string]struct{}, len(zr.File))
	var doneBytes uint64

	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := strings.TrimPrefix(f.Name, root)
		isDir := strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()

		if !isDir && name != "" {
			if !isSafePath(name) {
				return nil, &Error{Op: "read entry", Path: f.Name, Err: ErrUnsafePath}
			}
			if _, dup := seen[name]; dup {
				return nil, &Error{Op: "read entry", Path: name, Err: ErrDuplicateEntry}
			}

			content, err := readEntry(f, limit)
			if err != nil {
				return nil, err
			}
			seen[name] = struct{}{}
			entries = append(entries, NewEntry(name, content))
		}

		doneBytes += f.UncompressedSize64
		if totalBytes > 0 {
			progress.report(float64(doneBytes) / float64(totalBytes) * 100)
		} else {
			progress.report(float64(i+1) / float64(len(zr.File)) * 100)
		}
	}

	progress.report(100)
	return entries, nil
}

// commonRoot returns the leading "folder/" shared by every entry, taken from
// the first entry's name, or "" when there is none.
func commonRoot(files []*zip.File) string {
	if len(files) == 0 {
		return ""
	}
	idx := strings.Index(files[0].Name, "/")
	if idx <= 0 {
		return ""
	}
	prefix := files[0].Name[:idx+1]
	for _, f := range files {
		if !strings.HasPrefix(f.Name, prefix) {
			return ""
		}
	}
	return prefix
}

// readEntry decompresses one entry, enforcing limit against both the declared
// and the actual decompressed size.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, &Error{
			Op:   "read entry",
			Path: f.Name,
			Err:  fmt.Errorf("%w: %d bytes (max %d)", ErrEntryTooLarge, f.UncompressedSize64, limit),
		}
	}

	rc, err := f.Open()
	if err != nil {
		return nil, &Error{Op: "open entry", Path: f.Name, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, &Error{Op: "decompress entry", Path: f.Name, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &Error{Op: "decompress entry", Path: f.Name, Err: ErrEntryTooLarge}
	}
	return data, nil
}
