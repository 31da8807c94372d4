package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// MetadataReport summarises the embedded metadata of one image. Re-encoded
// images never carry it forward.
type MetadataReport struct {
	EXIFTags     int
	HasGPS       bool
	HasModel     bool
	HasTimestamp bool
	TextChunks   []string
}

func analyzeExif(rs io.ReadSeeker, report *MetadataReport) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if errorsIsNoExif(err) {
			return nil
		}
		return err
	}

	report.EXIFTags += len(tags)
	for _, tag := range tags {
		name := tag.TagName
		if strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			report.HasGPS = true
		}
		if name == "Model" || name == "Make" {
			report.HasModel = true
		}
		if name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime" {
			report.HasTimestamp = true
		}
	}
	return nil
}

// exifTagCount returns the number of EXIF tags in data, or 0 when there are
// none or they cannot be parsed.
func exifTagCount(data []byte) int {
	var report MetadataReport
	if err := analyzeExif(bytes.NewReader(data), &report); err != nil {
		return 0
	}
	return report.EXIFTags
}

func errorsIsNoExif(err error) bool {
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const (
	// maxPNGChunk is the largest chunk length PNG permits (2^31-1).
	maxPNGChunk = 1<<31 - 1
	// maxPNGKeyword bounds the keyword that opens every text chunk.
	maxPNGKeyword = 79
)

func scanPNGMetadata(r io.Reader, report *MetadataReport) error {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return errors.New("invalid PNG signature")
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		chunk := string(hdr[4:])
		if length > maxPNGChunk {
			return fmt.Errorf("png chunk %q declares %d bytes", chunk, length)
		}

		switch chunk {
		case "tEXt", "zTXt", "iTXt":
			head := make([]byte, min(length, maxPNGKeyword+1))
			if _, err := io.ReadFull(br, head); err != nil {
				return err
			}
			if _, err := io.CopyN(io.Discard, br, int64(length)-int64(len(head))+4); err != nil {
				return err
			}
			if key := pngTextKey(head); key != "" {
				report.TextChunks = append(report.TextChunks, key)
				applyPNGKey(report, key)
			}
		case "tIME":
			report.HasTimestamp = true
			fallthrough
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return err
			}
		}

		if chunk == "IEND" {
			return nil
		}
	}
}

func pngTextKey(data []byte) string {
	idx := bytes.IndexByte(data, 0)
	if idx <= 0 {
		return ""
	}
	return string(data[:idx])
}

func applyPNGKey(report *MetadataReport, key string) {
	lower := strings.ToLower(key)
	if strings.Contains(lower, "gps") || strings.Contains(lower, "latitude") || strings.Contains(lower, "longitude") {
		report.HasGPS = true
	}
	if strings.Contains(lower, "model") || strings.Contains(lower, "make") {
		report.HasModel = true
	}
	if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
		report.HasTimestamp = true
	}
}
