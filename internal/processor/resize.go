package processor

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"epubfit/internal/archive"
	"epubfit/internal/profile"
	"epubfit/pkg/imgutil"
)

// MinResizeBytes is the size an image must exceed to be considered for
// resizing.
const MinResizeBytes = 50 * 1024

// ResizeCandidate reports whether e would be selected by Resize.
func ResizeCandidate(e archive.Entry) bool {
	return IsRaster(e) && e.Size > MinResizeBytes
}

// Resize downscales oversized images so both dimensions fit within the
// profile caps. A re-encoded image replaces the original only when it is
// strictly smaller. With either cap at 0 the stage passes every entry
// through untouched.
func Resize(ctx context.Context, entries []archive.Entry, p profile.Profile, opts Options, rep Reporter) ([]archive.Entry, Summary, error) {
	rep.Progress(0)

	if !p.ResizeEnabled() {
		rep.Logf("Image resizing skipped (pass-through).")
		rep.Progress(100)
		return entries, Summary{}, nil
	}

	selected := selectEntries(entries, ResizeCandidate)
	if len(selected) == 0 {
		rep.Logf("No images to resize.")
		rep.Progress(100)
		return entries, Summary{}, nil
	}

	rep.Logf("Resizing %d images to fit within %dx%d...", len(selected), p.MaxWidth, p.MaxHeight)
	maxW, maxH := p.MaxWidth, p.MaxHeight
	out, summary, err := run(ctx, entries, selected, func(_ context.Context, e archive.Entry) Outcome {
		return resizeOne(e, maxW, maxH)
	}, opts, rep)
	if err != nil {
		return nil, summary, err
	}

	rep.Logf("Image resizing complete: %d resized, %d kept, %d errors.", summary.Transformed, summary.Kept, summary.Errors)
	rep.Progress(100)
	return out, summary, nil
}

func resizeOne(e archive.Entry, maxW, maxH int) Outcome {
	img, kind, err := decodeImage(e)
	if err != nil {
		return failed(e, &ItemError{Path: e.Path, Op: "decode", Err: err})
	}

	b := img.Bounds()
	newW, newH, ok := fitWithin(b.Dx(), b.Dy(), maxW, maxH)
	if !ok {
		return kept(e, fmt.Sprintf("%dx%d already fits", b.Dx(), b.Dy()))
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	data, err := encodeImage(dst, kind)
	if err != nil {
		return failed(e, &ItemError{Path: e.Path, Op: "encode", Err: err})
	}
	if len(data) >= len(e.Content) {
		return kept(e, "resized version not smaller")
	}

	notes := []string{fmt.Sprintf(" -> %s: %dx%d to %dx%d, %.1f KB to %.1f KB",
		e.Path, b.Dx(), b.Dy(), newW, newH, kib(len(e.Content)), kib(len(data)))}
	if kind == imgutil.KindJPEG {
		if n := exifTagCount(e.Content); n > 0 {
			notes = append(notes, fmt.Sprintf(" -> %s: dropped %d EXIF tags", e.Path, n))
		}
	}
	return transformed(e, data, notes...)
}

// fitWithin returns dimensions scaled by a single factor so both fit within
// the caps, or ok=false when the image already fits. It never upscales.
func fitWithin(w, h, maxW, maxH int) (newW, newH int, ok bool) {
	if w <= maxW && h <= maxH {
		return w, h, false
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	newW = clampDim(int(math.Round(float64(w)*scale)), maxW)
	newH = clampDim(int(math.Round(float64(h)*scale)), maxH)
	return newW, newH, true
}

func clampDim(v, limit int) int {
	if v > limit {
		return limit
	}
	if v < 1 {
		return 1
	}
	return v
}
