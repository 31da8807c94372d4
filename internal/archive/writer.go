package archive

import (
	"archive/zip"
	"compress/flate"
	"context"
	"hash/crc32"
	"io"
	"unicode/utf8"
)

// dosEpochDate is 1980-01-01 in MS-DOS date format. Every header carries it
// so repackaging the same entries yields identical bytes.
const dosEpochDate = 1<<5 | 1

// storedExts are written without compression.
var storedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Repack streams entries into a new container written to w.
//
// The "mimetype" entry, wherever it appears in entries, is written first and
// stored. The rest keep their relative input order; raster images are stored
// and everything else is deflated at the highest level. Entries are written
// one at a time, so w never sees more than one entry buffered by Repack.
func Repack(ctx context.Context, w io.Writer, entries []Entry, progress ProgressFunc) error {
	progress.report(0)

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	ordered := writeOrder(entries)
	for i, e := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeEntry(zw, e); err != nil {
			return err
		}
		progress.report(float64(i+1) / float64(len(ordered)) * 100)
	}

	if err := zw.Close(); err != nil {
		return &Error{Op: "finalize container", Err: err}
	}

	progress.report(100)
	return nil
}

// writeOrder moves the first "mimetype" entry to the front and keeps every
// other entry in input order.
func writeOrder(entries []Entry) []Entry {
	ordered := make([]Entry, 0, len(entries))
	mimeIdx := -1
	for i, e := range entries {
		if e.Path == MimetypeName {
			mimeIdx = i
			ordered = append(ordered, e)
			break
		}
	}
	for i, e := range entries {
		if i == mimeIdx {
			continue
		}
		ordered = append(ordered, e)
	}
	return ordered
}

func writeEntry(zw *zip.Writer, e Entry) error {
	hdr := &zip.FileHeader{
		Name:         e.Path,
		ModifiedDate: dosEpochDate,
	}

	if e.Path == MimetypeName || storedExts[e.Ext()] {
		// CreateRaw writes hdr as given: sizes go in the local header with
		// no data descriptor, and the version and UTF-8 fields CreateHeader
		// would fill in must be set here.
		hdr.Method = zip.Store
		hdr.ReaderVersion = zipVersion20
		hdr.CreatorVersion = zipVersion20
		if needsUTF8Flag(e.Path) {
			hdr.Flags |= utf8NameFlag
		}
		hdr.CRC32 = crc32.ChecksumIEEE(e.Content)
		hdr.CompressedSize64 = uint64(len(e.Content))
		hdr.UncompressedSize64 = uint64(len(e.Content))
		fw, err := zw.CreateRaw(hdr)
		if err != nil {
			return &Error{Op: "add entry", Path: e.Path, Err: err}
		}
		if _, err := fw.Write(e.Content); err != nil {
			return &Error{Op: "write entry", Path: e.Path, Err: err}
		}
		return nil
	}

	hdr.Method = zip.Deflate
	fw, err := zw.CreateHeader(hdr)
	if err != nil {
		return &Error{Op: "add entry", Path: e.Path, Err: err}
	}
	if _, err := fw.Write(e.Content); err != nil {
		return &Error{Op: "write entry", Path: e.Path, Err: err}
	}
	return nil
}

const (
	zipVersion20 = 20
	utf8NameFlag = 0x800
)

// needsUTF8Flag reports whether name is valid UTF-8 outside the ASCII range,
// which readers would otherwise decode as CP437.
func needsUTF8Flag(name string) bool {
	if !utf8.ValidString(name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] >= utf8.RuneSelf {
			return true
		}
	}
	return false
}
