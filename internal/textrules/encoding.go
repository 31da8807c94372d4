package textrules

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// sniffLen is how much of an entry is searched for an XML declaration.
const sniffLen = 1024

var xmlEncodingDecl = regexp.MustCompile(`(?i)<\?xml[^>]*?\bencoding\s*=\s*["']([^"']+)["']`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sniffEncoding returns the lower-cased encoding label declared in the XML
// prolog, or "utf-8" when there is none.
func sniffEncoding(content []byte) string {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	m := xmlEncodingDecl.FindSubmatch(head)
	if m == nil {
		return "utf-8"
	}
	return strings.ToLower(strings.TrimSpace(string(m[1])))
}

// decoded is an entry's text after conversion to UTF-8.
type decoded struct {
	text string
	// label is the declared encoding when it was honoured, else "utf-8".
	label string
	// unsupported holds a declared label that could not be resolved.
	unsupported string
}

func decodeText(content []byte) (decoded, error) {
	label := sniffEncoding(content)

	enc, name := charset.Lookup(label)
	if enc == nil {
		return decoded{text: string(bytes.TrimPrefix(content, utf8BOM)), label: "utf-8", unsupported: label}, nil
	}
	if name == "utf-8" {
		return decoded{text: string(bytes.TrimPrefix(content, utf8BOM)), label: "utf-8"}, nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return decoded{}, fmt.Errorf("decode %s: %w", label, err)
	}
	return decoded{text: string(out), label: label}, nil
}

// declareUTF8 rewrites the encoding named in the XML declaration to utf-8 so
// it matches the re-encoded bytes.
func declareUTF8(text string) string {
	head := text
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	loc := xmlEncodingDecl.FindStringSubmatchIndex(head)
	if loc == nil {
		return text
	}
	return text[:loc[2]] + "utf-8" + text[loc[3]:]
}
