// Package httpvalue provides the normalized HTTP request/response/header
// model used to bridge the intercepting proxy runtime, the on-disk YAML
// scenario format, and the wire representation sent to a live upstream.
package httpvalue

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// Headers is a case-insensitive, order-preserving multi-map from header
// name to a sequence of values. Names are normalized to title case on
// insertion (e.g. "content-type" -> "Content-Type").
type Headers struct {
	// keys preserves first-insertion order for deterministic iteration.
	keys   []string
	values map[string][]string
}

// NewHeaders returns an empty Headers value.
func NewHeaders() Headers {
	return Headers{values: map[string][]string{}}
}

// NewHeadersFromDict builds Headers from a name->values dictionary, the
// shape used by the on-disk YAML format and the JSON control-plane API.
func NewHeadersFromDict(dict map[string][]string) Headers {
	h := NewHeaders()
	for name, vals := range dict {
		for _, v := range vals {
			h.Add(name, v)
		}
	}
	return h
}

// Pair is a single raw header field as delivered by the intercepting proxy
// runtime, which hands fields over as byte pairs rather than strings.
type Pair struct {
	Name  []byte
	Value []byte
}

// NewHeadersFromPairs builds Headers from the runtime framework's field list.
func NewHeadersFromPairs(pairs []Pair) Headers {
	h := NewHeaders()
	for _, p := range pairs {
		h.Add(string(p.Name), string(p.Value))
	}
	return h
}

// normalizeName title-cases a header name per hyphen-separated segment so
// "x-request-id" becomes "X-Request-Id".
func normalizeName(name string) string {
	segments := strings.Split(name, "-")
	for i, seg := range segments {
		segments[i] = titleCaser.String(seg)
	}
	return strings.Join(segments, "-")
}

// Add appends a value under name, normalizing the name and preserving
// insertion order of values.
func (h *Headers) Add(name, value string) {
	if h.values == nil {
		h.values = map[string][]string{}
	}
	key := normalizeName(name)
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = append(h.values[key], value)
}

// Set replaces all values under name with a single value.
func (h *Headers) Set(name, value string) {
	key := normalizeName(name)
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	if h.values == nil {
		h.values = map[string][]string{}
	}
	h.values[key] = []string{value}
}

// ErrMissingKey is returned by Get when no value is present for the name.
type ErrMissingKey struct{ Name string }

func (e *ErrMissingKey) Error() string { return "httpvalue: missing header " + e.Name }

// Get returns the first value for name, or ErrMissingKey if absent.
func (h Headers) Get(name string) (string, error) {
	vals, ok := h.values[normalizeName(name)]
	if !ok || len(vals) == 0 {
		return "", &ErrMissingKey{Name: name}
	}
	return vals[0], nil
}

// GetDefault returns the first value for name, or def if absent.
func (h Headers) GetDefault(name, def string) string {
	v, err := h.Get(name)
	if err != nil {
		return def
	}
	return v
}

// Values returns all values for name in insertion order (nil if absent).
func (h Headers) Values(name string) []string {
	return h.values[normalizeName(name)]
}

// Names returns the normalized header names in first-insertion order.
func (h Headers) Names() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// ToDict converts Headers back to a name->values dictionary.
func (h Headers) ToDict() map[string][]string {
	out := make(map[string][]string, len(h.keys))
	for _, k := range h.keys {
		vals := make([]string, len(h.values[k]))
		copy(vals, h.values[k])
		out[k] = vals
	}
	return out
}

// ToPairs converts Headers back to the runtime framework's byte-pair field
// list, one pair per value (multi-valued headers produce repeated names).
func (h Headers) ToPairs() []Pair {
	var out []Pair
	for _, k := range h.keys {
		for _, v := range h.values[k] {
			out = append(out, Pair{Name: []byte(k), Value: []byte(v)})
		}
	}
	return out
}

// Equal reports whether two Headers values hold the same normalized
// name->values map, independent of insertion order.
func (h Headers) Equal(other Headers) bool {
	if len(h.keys) != len(other.keys) {
		return false
	}
	for k, vals := range h.values {
		ov, ok := other.values[k]
		if !ok || len(ov) != len(vals) {
			return false
		}
		for i := range vals {
			if vals[i] != ov[i] {
				return false
			}
		}
	}
	return true
}

// Charset extracts the charset parameter from the Content-Type header,
// defaulting to "utf-8" when absent or unparsable.
func (h Headers) Charset() string {
	ct, err := h.Get("Content-Type")
	if err != nil {
		return "utf-8"
	}
	return ParseCharset(ct)
}
