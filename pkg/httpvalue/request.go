package httpvalue

import "bytes"

// Request is the normalized representation of an HTTP request used
// throughout the core: built fresh by the Dispatcher from the intercepting
// runtime's flow, matched against Interactions, and round-tripped to/from
// the on-disk YAML dictionary form.
type Request struct {
	URL         string
	Method      string
	Body        []byte
	Headers     Headers
	HTTPVersion string

	// Encoding is the negotiated text encoding: the charset derived from
	// the Content-Type header, or an explicit override supplied at
	// construction. It is excluded from Equal, per spec.
	Encoding string
}

// NewRequestFromBytes builds a Request whose body is already raw bytes.
// Bytes are held as-is; no charset transcoding occurs.
func NewRequestFromBytes(url, method string, body []byte, headers Headers, httpVersion string) Request {
	return Request{
		URL:         url,
		Method:      method,
		Body:        append([]byte(nil), body...),
		Headers:     headers,
		HTTPVersion: httpVersion,
		Encoding:    resolveEncoding("", headers),
	}
}

// NewRequestFromText builds a Request whose body is text, encoded to bytes
// using explicitEncoding if non-empty, else the charset derived from
// headers, else UTF-8.
func NewRequestFromText(url, method, text string, headers Headers, httpVersion, explicitEncoding string) Request {
	enc := resolveEncoding(explicitEncoding, headers)
	var body []byte
	if text != "" {
		body = encodeBody(text, enc)
	}
	return Request{
		URL:         url,
		Method:      method,
		Body:        body,
		Headers:     headers,
		HTTPVersion: httpVersion,
		Encoding:    enc,
	}
}

func resolveEncoding(explicit string, headers Headers) string {
	if explicit != "" {
		return explicit
	}
	return headers.Charset()
}

// BodyText returns the body decoded as text using the Request's Encoding.
func (r Request) BodyText() string {
	return decodeBody(r.Body, r.Encoding)
}

// ToDict converts the Request to the dictionary shape persisted in YAML
// scenario files and returned by the JSON control-plane API.
func (r Request) ToDict() map[string]any {
	return map[string]any{
		"url":     r.URL,
		"method":  r.Method,
		"body":    r.BodyText(),
		"headers": r.Headers.ToDict(),
	}
}

// RequestFromDict reconstructs a Request from the dictionary shape. Body
// may be supplied as either a string or a raw byte slice.
func RequestFromDict(dict map[string]any) Request {
	url, _ := dict["url"].(string)
	method, _ := dict["method"].(string)
	headers := headersFromAny(dict["headers"])

	switch body := dict["body"].(type) {
	case []byte:
		return NewRequestFromBytes(url, method, body, headers, "")
	case string:
		return NewRequestFromText(url, method, body, headers, "", "")
	default:
		return NewRequestFromBytes(url, method, nil, headers, "")
	}
}

func headersFromAny(v any) Headers {
	switch h := v.(type) {
	case map[string][]string:
		return NewHeadersFromDict(h)
	case map[string]any:
		dict := make(map[string][]string, len(h))
		for k, raw := range h {
			switch vals := raw.(type) {
			case []string:
				dict[k] = vals
			case []any:
				for _, item := range vals {
					if s, ok := item.(string); ok {
						dict[k] = append(dict[k], s)
					}
				}
			case string:
				dict[k] = []string{vals}
			}
		}
		return NewHeadersFromDict(dict)
	default:
		return NewHeaders()
	}
}

// Equal compares two Requests ignoring HTTPVersion and Encoding, per spec:
// it compares URL, Method, Body bytes, and Headers.
func (r Request) Equal(other Request) bool {
	return r.URL == other.URL &&
		r.Method == other.Method &&
		bytes.Equal(r.Body, other.Body) &&
		r.Headers.Equal(other.Headers)
}
