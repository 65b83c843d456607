package graph

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names the text encoding Decode settled on.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin-1"
)

// Decode converts raw file bytes to text. UTF-8 is always tried first; if the
// bytes are not valid UTF-8 they are decoded as ISO-8859-1, which maps every
// byte. The Latin-1 attempt only rejects NUL, which marks binary content.
// When both attempts fail Decode returns ErrDecode.
func Decode(source []byte) (string, Encoding, error) {
	if utf8.Valid(source) {
		return string(source), EncodingUTF8, nil
	}

	if bytes.IndexByte(source, 0) >= 0 {
		return "", "", ErrDecode
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(source)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(text), EncodingLatin1, nil
}
