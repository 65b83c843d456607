package graph

import "unicode/utf8"

const (
	previewLimit  = 500
	previewMarker = "..."
)

// GenericParser is the fallback LanguageParser for unknown extensions. It
// never extracts structure; it only keeps a bounded preview of the text.
type GenericParser struct{}

var _ LanguageParser = GenericParser{}

// Parse returns an empty analysis with ContentPreview set. It fails only when
// the content cannot be decoded.
func (GenericParser) Parse(path string, source []byte) (*FileAnalysis, error) {
	text, _, err := Decode(source)
	if err != nil {
		return nil, err
	}
	fa := newAnalysis(path, LangGeneric)
	fa.ContentPreview = preview(text)
	return fa, nil
}

// preview keeps the first previewLimit characters and appends previewMarker
// when the text is longer.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLimit]) + previewMarker
}
