package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"epubfit/internal/archive"
	"epubfit/internal/profile"
)

func TestQuantizeLevel(t *testing.T) {
	tests := []struct {
		lum    float64
		levels int
		want   uint8
	}{
		{0, 16, 0},
		{255, 16, 255},
		{8, 16, 0},
		{9, 16, 17},
		{128, 16, 136},
		{127, 2, 0},
		{128, 2, 255},
		{100.4, 256, 100},
		{200, 4, 170},
	}

	for _, tt := range tests {
		if got := quantizeLevel(tt.lum, tt.levels); got != tt.want {
			t.Errorf("quantizeLevel(%v, %d) = %d, want %d", tt.lum, tt.levels, got, tt.want)
		}
	}
}

func TestQuantizeImageOpaqueYieldsExactLevels(t *testing.T) {
	const levels = 4
	out := QuantizeImage(gradientImage(256, 4), levels, false)

	gray, ok := out.(*image.Gray)
	if !ok {
		t.Fatalf("got %T, want *image.Gray", out)
	}

	seen := map[uint8]bool{}
	for _, v := range gray.Pix {
		seen[v] = true
	}
	want := map[uint8]bool{0: true, 85: true, 170: true, 255: true}
	if len(seen) != len(want) {
		t.Fatalf("distinct values = %v, want %v", seen, want)
	}
	for v := range seen {
		if !want[v] {
			t.Fatalf("unexpected gray value %d", v)
		}
	}
}

func TestQuantizeImagePreservesAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 40})
	src.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	out := QuantizeImage(src, 2, false)
	nrgba, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("got %T, want *image.NRGBA", out)
	}
	if got := nrgba.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 40}) {
		t.Fatalf("pixel 0 = %v", got)
	}
	if got := nrgba.NRGBAAt(1, 0); got != (color.NRGBA{A: 255}) {
		t.Fatalf("pixel 1 = %v", got)
	}
}

func TestQuantizePNGStage(t *testing.T) {
	const levels = 16
	src := encodePNG(t, gradientImage(256, 8))
	jpg := encodeJPEG(t, noiseImage(32, 32), 90)

	entries := []archive.Entry{
		archive.NewEntry("OEBPS/grad.png", src),
		archive.NewEntry("OEBPS/photo.jpg", jpg),
		archive.NewEntry("OEBPS/style.css", []byte("body{}")),
	}

	rec := &recorder{}
	p := profile.Profile{ID: "gray", GrayscaleLevels: levels}
	out, summary, err := Quantize(context.Background(), entries, p, Options{}, rec)
	if err != nil {
		t.Fatalf("Quantize: %v", err)
	}
	if summary.Transformed != 2 {
		t.Fatalf("Transformed = %d, want 2", summary.Transformed)
	}

	img, err := png.Decode(bytes.NewReader(out[0].Content))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y%17 != 0 {
				t.Fatalf("pixel (%d,%d) = %d, not one of %d levels", x, y, g.Y, levels)
			}
		}
	}

	photo, _, err := image.Decode(bytes.NewReader(out[1].Content))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if _, ok := photo.(*image.Gray); !ok {
		t.Fatalf("jpeg decoded as %T, want *image.Gray", photo)
	}
	if !bytes.Equal(out[2].Content, entries[2].Content) {
		t.Fatal("non-image entry modified")
	}
	assertMonotonic(t, rec.progress)
}

func TestQuantizePassThrough(t *testing.T) {
	entries := []archive.Entry{archive.NewEntry("a.png", encodePNG(t, gradientImage(16, 16)))}

	for _, levels := range []int{0, 1} {
		rec := &recorder{}
		p := profile.Profile{ID: "pass", GrayscaleLevels: levels}
		out, _, err := Quantize(context.Background(), entries, p, Options{}, rec)
		if err != nil {
			t.Fatalf("Quantize: %v", err)
		}
		if !bytes.Equal(out[0].Content, entries[0].Content) {
			t.Fatalf("levels=%d modified content", levels)
		}
		if !rec.loggedPrefix("Grayscale conversion skipped") {
			t.Fatalf("levels=%d: missing pass-through line in %q", levels, rec.logs)
		}
	}
}

func TestQuantizeMismatchedContentIsItemError(t *testing.T) {
	jpg := encodeJPEG(t, noiseImage(8, 8), 90)
	entries := []archive.Entry{archive.NewEntry("OEBPS/fake.png", jpg)}

	rec := &recorder{}
	out, summary, err := Quantize(context.Background(), entries, profile.Profile{ID: "g", GrayscaleLevels: 4}, Options{}, rec)
	if err != nil {
		t.Fatalf("Quantize: %v", err)
	}
	if summary.Errors != 1 {
		t.Fatalf("Errors = %d, want 1", summary.Errors)
	}
	if !bytes.Equal(out[0].Content, jpg) {
		t.Fatal("mismatched image was modified")
	}
}
