package part

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

var encodingDecl = regexp.MustCompile(`^<\?xml[^>]*?encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// toUTF8 returns data as UTF-8 without a byte-order mark, transcoding
// UTF-16 (detected by BOM) and any other encoding named in the XML
// declaration.  It reports whether transcoding happened.
func toUTF8(data []byte) ([]byte, bool, error) {
	var label string
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], false, nil
	case bytes.HasPrefix(data, bomUTF16BE):
		label, data = "utf-16be", data[2:]
	case bytes.HasPrefix(data, bomUTF16LE):
		label, data = "utf-16le", data[2:]
	default:
		m := encodingDecl.FindSubmatch(data)
		if m == nil {
			return data, false, nil
		}
		switch strings.ToLower(string(m[1])) {
		case "utf-8", "utf8":
			return data, false, nil
		}
		label = string(m[1])
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("part: encoding %q: %w", label, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("part: transcode from %s: %w", label, err)
	}
	return bytes.TrimPrefix(out, bomUTF8), true, nil
}

// identityCharset is installed as the decoder's CharsetReader once the
// input is UTF-8, so a stale encoding declaration is not an error.
func identityCharset(_ string, r io.Reader) (io.Reader, error) { return r, nil }
