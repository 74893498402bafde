package httpvalue

import (
	"bytes"
	"net/http"
)

// Response is the normalized representation of an HTTP response: either
// synthesized by an Interaction replay or captured from a live upstream
// reply during recording.
type Response struct {
	StatusCode  int
	Reason      string
	Body        []byte
	Headers     Headers
	HTTPVersion string
	Encoding    string
}

// NewResponseFromBytes builds a Response whose body is already raw bytes.
// Reason defaults from the standard status table (net/http.StatusText) when
// empty.
func NewResponseFromBytes(statusCode int, reason string, body []byte, headers Headers, httpVersion string) Response {
	return Response{
		StatusCode:  statusCode,
		Reason:      defaultReason(statusCode, reason),
		Body:        append([]byte(nil), body...),
		Headers:     headers,
		HTTPVersion: httpVersion,
		Encoding:    resolveEncoding("", headers),
	}
}

// NewResponseFromText builds a Response whose body is text, encoded using
// explicitEncoding if non-empty, else the header-derived charset.
func NewResponseFromText(statusCode int, reason, text string, headers Headers, httpVersion, explicitEncoding string) Response {
	enc := resolveEncoding(explicitEncoding, headers)
	var body []byte
	if text != "" {
		body = encodeBody(text, enc)
	}
	return Response{
		StatusCode:  statusCode,
		Reason:      defaultReason(statusCode, reason),
		Body:        body,
		Headers:     headers,
		HTTPVersion: httpVersion,
		Encoding:    enc,
	}
}

func defaultReason(statusCode int, reason string) string {
	if reason != "" {
		return reason
	}
	return http.StatusText(statusCode)
}

// BodyText returns the body decoded as text using the Response's Encoding.
func (r Response) BodyText() string {
	return decodeBody(r.Body, r.Encoding)
}

// ToDict converts the Response to the dictionary shape persisted in YAML
// scenario files and returned by the JSON control-plane API.
func (r Response) ToDict() map[string]any {
	return map[string]any{
		"status": map[string]any{
			"code":    r.StatusCode,
			"message": r.Reason,
		},
		"body":    r.BodyText(),
		"headers": r.Headers.ToDict(),
	}
}

// ResponseFromDict reconstructs a Response from the dictionary shape. Body
// may be supplied as either a string or a raw byte slice.
func ResponseFromDict(dict map[string]any) Response {
	code, reason := 0, ""
	if status, ok := dict["status"].(map[string]any); ok {
		switch c := status["code"].(type) {
		case int:
			code = c
		case int64:
			code = int(c)
		case float64:
			code = int(c)
		}
		reason, _ = status["message"].(string)
	}
	headers := headersFromAny(dict["headers"])

	switch body := dict["body"].(type) {
	case []byte:
		return NewResponseFromBytes(code, reason, body, headers, "")
	case string:
		return NewResponseFromText(code, reason, body, headers, "", "")
	default:
		return NewResponseFromBytes(code, reason, nil, headers, "")
	}
}

// Equal compares two Responses ignoring Reason and Encoding, per spec: it
// compares StatusCode, Body bytes, and Headers.
func (r Response) Equal(other Response) bool {
	return r.StatusCode == other.StatusCode &&
		bytes.Equal(r.Body, other.Body) &&
		r.Headers.Equal(other.Headers)
}
