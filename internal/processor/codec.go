package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"epubfit/internal/archive"
	"epubfit/pkg/imgutil"
)

// JPEGQuality is the fixed quality used whenever a JPEG is re-encoded.
const JPEGQuality = 90

var rasterExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsRaster reports whether e is an image the raster stages operate on.
func IsRaster(e archive.Entry) bool {
	return rasterExts[e.Ext()]
}

// decodeImage decodes e after checking its magic bytes agree with its
// extension. The returned kind is the format the image must be re-encoded in.
func decodeImage(e archive.Entry) (image.Image, imgutil.Kind, error) {
	want := imgutil.KindFromName(e.Path)
	got, err := imgutil.SniffBytes(e.Content)
	if err != nil {
		return nil, imgutil.KindUnknown, fmt.Errorf("sniff: %w", err)
	}
	if got != want {
		return nil, imgutil.KindUnknown, fmt.Errorf("content is %s but extension says %s", got, want)
	}

	img, _, err := image.Decode(bytes.NewReader(e.Content))
	if err != nil {
		return nil, imgutil.KindUnknown, err
	}
	return img, want, nil
}

func encodeImage(img image.Image, kind imgutil.Kind) ([]byte, error) {
	var buf bytes.Buffer
	switch kind {
	case imgutil.KindJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, err
		}
	case imgutil.KindPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot encode %s", kind)
	}
	return buf.Bytes(), nil
}

func kib(n int) float64 {
	return float64(n) / 1024
}
