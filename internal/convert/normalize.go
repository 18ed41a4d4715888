package convert

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const byteOrderMark = "\uFEFF"

// lineDecoder turns raw input bytes into UTF-8 text, replacing invalid
// sequences with U+FFFD.
type lineDecoder struct {
	utf8 bool
	dec  *encoding.Decoder
}

func newLineDecoder(charset string) (*lineDecoder, error) {
	if charset == "" {
		charset = "utf-8"
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, &UnsupportedCharsetError{Charset: charset}
	}
	name, _ := htmlindex.Name(enc)
	switch name {
	case "utf-16le", "utf-16be", "replacement":
		// Lines are split on '\n' bytes before decoding.
		return nil, &UnsupportedCharsetError{Charset: charset, Reason: "not ASCII compatible"}
	case "utf-8":
		return &lineDecoder{utf8: true, dec: unicode.UTF8.NewDecoder()}, nil
	}
	return &lineDecoder{dec: enc.NewDecoder()}, nil
}

// decode returns the text of raw and whether any bytes had to be replaced.
func (d *lineDecoder) decode(raw []byte) (string, bool) {
	if d.utf8 {
		if utf8.Valid(raw) {
			return string(raw), false
		}
		out, err := d.dec.Bytes(raw)
		if err != nil {
			return strings.ToValidUTF8(string(raw), "\uFFFD"), true
		}
		return string(out), true
	}

	out, err := d.dec.Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD"), true
	}
	s := string(out)
	return s, strings.ContainsRune(s, utf8.RuneError)
}

// unescapeQuotes rewrites MySQL backslash-escaped quotes (\') into SQL
// doubled quotes (''). Escaped backslashes (\\) are copied through intact,
// so the quote in \\' is not treated as escaped. Every other backslash
// escape is left as written.
func unescapeQuotes(s string) string {
	if !strings.Contains(s, `\'`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\':
			sb.WriteString(`\\`)
			i++
		case '\'':
			sb.WriteString(`''`)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// normalize trims raw text and rewrites escaped quotes. first strips a
// leading byte order mark.
func normalize(text string, first bool) string {
	if first {
		text = strings.TrimPrefix(text, byteOrderMark)
	}
	return unescapeQuotes(strings.TrimSpace(text))
}
