package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

type testFile struct {
	name    string
	content string
	method  uint16
}

// buildTestZip creates an in-memory container holding files in the given
// order. Names ending in "/" become directory entries.
func buildTestZip(t *testing.T, files []testFile) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: f.method})
		if err != nil {
			t.Fatalf("buildTestZip: create %s: %v", f.name, err)
		}
		if f.content == "" {
			continue
		}
		if _, err := io.WriteString(fw, f.content); err != nil {
			t.Fatalf("buildTestZip: write %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZip: close writer: %v", err)
	}
	return buf.Bytes()
}

func entryPaths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
