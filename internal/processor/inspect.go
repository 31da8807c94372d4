package processor

import (
	"bytes"
	"image"

	"epubfit/internal/archive"
	"epubfit/internal/profile"
	"epubfit/pkg/imgutil"
)

// ImageInfo describes one raster entry without transforming it.
type ImageInfo struct {
	Path     string
	Kind     imgutil.Kind
	Width    int
	Height   int
	Size     int64
	Metadata MetadataReport
	// Mismatch is set when the content does not match the extension.
	Mismatch bool
	Err      error
}

// Describe reads the header, dimensions and metadata of a raster entry.
func Describe(e archive.Entry) ImageInfo {
	info := ImageInfo{Path: e.Path, Size: e.Size, Kind: imgutil.KindFromName(e.Path)}

	got, err := imgutil.SniffBytes(e.Content)
	if err != nil {
		info.Err = err
		return info
	}
	if got != info.Kind {
		info.Mismatch = true
		info.Kind = got
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(e.Content))
	if err != nil {
		info.Err = err
		return info
	}
	info.Width, info.Height = cfg.Width, cfg.Height

	switch got {
	case imgutil.KindJPEG:
		err = analyzeExif(bytes.NewReader(e.Content), &info.Metadata)
	case imgutil.KindPNG:
		err = scanPNGMetadata(bytes.NewReader(e.Content), &info.Metadata)
	}
	if err != nil {
		info.Err = err
	}
	return info
}

// WouldResize reports whether Resize with p would attempt to shrink the
// image described by info.
func (info ImageInfo) WouldResize(p profile.Profile) bool {
	if !p.ResizeEnabled() || info.Size <= MinResizeBytes || info.Err != nil || info.Mismatch {
		return false
	}
	_, _, ok := fitWithin(info.Width, info.Height, p.MaxWidth, p.MaxHeight)
	return ok
}
