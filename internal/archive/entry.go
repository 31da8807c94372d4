package archive

import (
	"path"
	"strings"
)

// MimetypeName is the entry that must lead every EPUB container.
const MimetypeName = "mimetype"

// Entry is one file of the working set.
type Entry struct {
	// Path is archive-relative and forward-slash separated.
	Path      string
	Content   []byte
	Size      int64
	MediaType string
}

// NewEntry builds an entry with its size and media type derived from path
// and content.
func NewEntry(p string, content []byte) Entry {
	return Entry{
		Path:      p,
		Content:   content,
		Size:      int64(len(content)),
		MediaType: MediaType(p),
	}
}

// WithContent returns a copy of e carrying new content.
func (e Entry) WithContent(content []byte) Entry {
	e.Content = content
	e.Size = int64(len(content))
	return e
}

// Ext returns the lower-cased extension of the entry path, including the dot.
func (e Entry) Ext() string {
	return strings.ToLower(path.Ext(e.Path))
}

var mediaTypes = map[string]string{
	".xhtml": "application/xhtml+xml",
	".html":  "application/xhtml+xml",
	".css":   "text/css",
	".xml":   "application/xml",
	".ncx":   "application/x-dtbncx+xml",
	".opf":   "application/oebps-package+xml",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
}

// MediaType classifies a path by extension, defaulting to
// application/octet-stream.
func MediaType(p string) string {
	if mt, ok := mediaTypes[strings.ToLower(path.Ext(p))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// isSafePath reports whether p stays within the archive root.
func isSafePath(p string) bool {
	if strings.HasPrefix(p, "/") {
		return false
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}
