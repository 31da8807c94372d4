package processor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"strings"
	"testing"

	"epubfit/internal/archive"
)

type recorder struct {
	logs     []string
	progress []float64
}

func (r *recorder) Logf(format string, args ...any) {
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
}

func (r *recorder) Progress(p float64) {
	r.progress = append(r.progress, p)
}

func (r *recorder) loggedPrefix(prefix string) bool {
	for _, l := range r.logs {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func assertMonotonic(t *testing.T, progress []float64) {
	t.Helper()
	if len(progress) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress went backwards: %v", progress)
		}
	}
	if last := progress[len(progress)-1]; last != 100 {
		t.Fatalf("final progress = %v, want 100", last)
	}
}

func noiseImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewPCG(1, 2))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeConfig(t *testing.T, data []byte) image.Config {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg
}

// withExif inserts an APP1 segment carrying a Model and a DateTime tag right
// after the SOI marker of a JPEG stream.
func withExif(jpg []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), buildExifTIFF()...)

	var buf bytes.Buffer
	buf.Write(jpg[:2])
	buf.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write(jpg[2:])
	return buf.Bytes()
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}

// withPNGText inserts tEXt and tIME chunks before IEND.
func withPNGText(t *testing.T, data []byte, key, value string) []byte {
	t.Helper()
	if len(data) < 12 || string(data[len(data)-8:len(data)-4]) != "IEND" {
		t.Fatal("png does not end in IEND")
	}
	insertAt := len(data) - 12
	out := append([]byte{}, data[:insertAt]...)
	out = append(out, buildPNGChunk("tEXt", []byte(key+"\x00"+value))...)
	out = append(out, buildPNGChunk("tIME", []byte{0x07, 0xE8, 0x01, 0x02, 0x03, 0x04, 0x05})...)
	out = append(out, data[insertAt:]...)
	return out
}

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunk := make([]byte, 4, 12+len(data))
	binary.BigEndian.PutUint32(chunk, uint32(len(data)))
	chunk = append(chunk, chunkType...)
	chunk = append(chunk, data...)
	crc := crc32.ChecksumIEEE(append([]byte(chunkType), data...))
	return binary.BigEndian.AppendUint32(chunk, crc)
}

func entryByPath(t *testing.T, entries []archive.Entry, p string) archive.Entry {
	t.Helper()
	for _, e := range entries {
		if e.Path == p {
			return e
		}
	}
	t.Fatalf("entry %s not found", p)
	return archive.Entry{}
}
