package httpvalue

import (
	"mime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// ParseCharset extracts the charset parameter from a Content-Type header
// value, returning "utf-8" when absent or when the header fails to parse.
func ParseCharset(contentType string) string {
	if contentType == "" {
		return "utf-8"
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "utf-8"
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	if charset == "" {
		return "utf-8"
	}
	return charset
}

// encodingFor resolves a charset name to an encoding.Encoding, falling back
// to UTF-8 (the identity transform) for unknown or empty names.
func encodingFor(charset string) encoding.Encoding {
	if charset == "" {
		return encoding.Nop
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return encoding.Nop
	}
	return enc
}

// decodeBody decodes raw bytes in the given charset to UTF-8 text. Decoding
// failures fall back to returning the raw bytes reinterpreted as UTF-8,
// since a mock's recorded body must never be dropped outright.
func decodeBody(data []byte, charset string) string {
	enc := encodingFor(charset)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// encodeBody encodes UTF-8 text into the given charset's byte representation.
func encodeBody(text string, charset string) []byte {
	enc := encodingFor(charset)
	encoded, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return []byte(text)
	}
	return encoded
}
