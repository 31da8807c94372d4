package pipeline

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand/v2"
	"sync"
	"testing"

	"epubfit/internal/profile"
)

type zipFile struct {
	name string
	data []byte
}

func buildEPUB(t *testing.T, files []zipFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		method := zip.Deflate
		if f.name == "mimetype" {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: method})
		if err != nil {
			t.Fatalf("create %s: %v", f.name, err)
		}
		if _, err := w.Write(f.data); err != nil {
			t.Fatalf("write %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func readZip(t *testing.T, data []byte) ([]*zip.File, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	contents := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		contents[f.Name] = b
	}
	return zr.File, contents
}

func noiseJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testTable(t *testing.T) *profile.Table {
	t.Helper()
	table, err := profile.NewTable([]profile.Profile{
		{
			ID:              "device",
			Name:            "Device",
			MaxWidth:        600,
			MaxHeight:       800,
			GrayscaleLevels: 16,
			RemovePaths:     []string{"oceanofpdf.com"},
			TextRules: []profile.TextRule{{
				TargetPath: "OEBPS/content.opf",
				Pattern:    `<meta name="book-type" content="comic"/>\s*`,
			}},
		},
		{ID: "pass-through", Name: "Pass-Through"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

// collect drains updates until the returned stop function is called.
func collect(updates chan Update) (stop func() []Update) {
	var (
		got []Update
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range updates {
			got = append(got, u)
		}
	}()
	return func() []Update {
		close(updates)
		wg.Wait()
		return got
	}
}

func assertProgress(t *testing.T, updates []Update) {
	t.Helper()
	if len(updates) == 0 {
		t.Fatal("no updates")
	}
	prev := 0.0
	for _, u := range updates {
		if u.Progress < prev {
			t.Fatalf("progress went backwards: %v after %v", u.Progress, prev)
		}
		prev = u.Progress
	}
	last := updates[len(updates)-1]
	if !last.Done || last.Progress != 100 {
		t.Fatalf("last update = %+v, want done at 100", last)
	}
}
