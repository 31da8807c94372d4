package processor

import (
	"context"
	"image"
	"image/color"
	"math"

	"epubfit/internal/archive"
	"epubfit/internal/profile"
	"epubfit/pkg/imgutil"
)

// Quantize reduces every raster image to the profile's number of gray
// levels. It is a pass-through when the profile disables quantization.
func Quantize(ctx context.Context, entries []archive.Entry, p profile.Profile, opts Options, rep Reporter) ([]archive.Entry, Summary, error) {
	rep.Progress(0)

	levels := p.Levels()
	if levels == 0 {
		rep.Logf("Grayscale conversion skipped (pass-through).")
		rep.Progress(100)
		return entries, Summary{}, nil
	}

	selected := selectEntries(entries, IsRaster)
	if len(selected) == 0 {
		rep.Logf("No images to convert to grayscale.")
		rep.Progress(100)
		return entries, Summary{}, nil
	}

	rep.Logf("Converting %d images to %d levels of gray...", len(selected), levels)
	out, summary, err := run(ctx, entries, selected, func(_ context.Context, e archive.Entry) Outcome {
		return quantizeOne(e, levels)
	}, opts, rep)
	if err != nil {
		return nil, summary, err
	}

	rep.Logf("Grayscale conversion complete: %d converted, %d errors.", summary.Transformed, summary.Errors)
	rep.Progress(100)
	return out, summary, nil
}

func quantizeOne(e archive.Entry, levels int) Outcome {
	img, kind, err := decodeImage(e)
	if err != nil {
		return failed(e, &ItemError{Path: e.Path, Op: "decode", Err: err})
	}

	q := QuantizeImage(img, levels, kind == imgutil.KindJPEG)

	data, err := encodeImage(q, kind)
	if err != nil {
		return failed(e, &ItemError{Path: e.Path, Op: "encode", Err: err})
	}
	return transformed(e, data)
}

// QuantizeImage maps every pixel to one of levels gray values evenly
// spanning [0,255], using BT.601 luminance. Opaque sources, and any source
// when dropAlpha is set, yield an *image.Gray; otherwise an *image.NRGBA
// with the source alpha preserved.
func QuantizeImage(img image.Image, levels int, dropAlpha bool) image.Image {
	b := img.Bounds()

	opaque := dropAlpha
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		opaque = true
	}

	if opaque {
		dst := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				dst.SetGray(x, y, color.Gray{Y: quantizeLevel(luminance(c), levels)})
			}
		}
		return dst
	}

	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			g := quantizeLevel(luminance(c), levels)
			dst.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: c.A})
		}
	}
	return dst
}

// luminance uses ITU-R BT.601 weights.
func luminance(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// quantizeLevel snaps lum to the nearest of levels values k*255/(levels-1).
func quantizeLevel(lum float64, levels int) uint8 {
	step := 255 / float64(levels-1)
	v := math.Round(lum/step) * step
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
