package interaction

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
)

// compile compiles every regex pattern in the descriptor once, caching the
// result. Go's regexp package (RE2) is used throughout: always linear time,
// and \d/\w/similar classes match Unicode code points by Go's default,
// which implementers extending this matcher should keep in mind if tests
// ever move beyond ASCII inputs.
func (m *MatchDescriptor) compile() error {
	if len(m.Regex) == 0 {
		return nil
	}
	m.compiledRegex = make(map[string]*regexp.Regexp, len(m.Regex))
	for field, pattern := range m.Regex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid regex for field %q: %w", field, err)
		}
		m.compiledRegex[field] = re
	}
	return nil
}

// matchesAtStart reports whether the leftmost match of re in s begins at
// index 0 ("start-anchored match"), without rewriting the pattern itself.
func matchesAtStart(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

func exactFieldValue(req httpvalue.Request, field string) (any, bool) {
	switch field {
	case FieldURL:
		return req.URL, true
	case FieldMethod:
		return req.Method, true
	case FieldBody:
		return req.Body, true
	case FieldHeaders:
		return req.Headers.ToDict(), true
	default:
		return nil, false
	}
}

func regexFieldValue(req httpvalue.Request, field string) (string, bool) {
	switch field {
	case FieldURL:
		return req.URL, true
	case FieldMethod:
		return req.Method, true
	case FieldBody:
		// The field's value is bytes; decode using the request's declared
		// encoding before matching.
		return req.BodyText(), true
	case FieldHeaders:
		return headersString(req), true
	default:
		return "", false
	}
}

func headersString(req httpvalue.Request) string {
	names := req.Headers.Names()
	sort.Strings(names)
	var buf bytes.Buffer
	for _, name := range names {
		for _, v := range req.Headers.Values(name) {
			fmt.Fprintf(&buf, "%s: %s\n", name, v)
		}
	}
	return buf.String()
}

// Matches reports whether the Interaction handles req: every exact field
// must compare equal between the Interaction's canonical Request and req,
// and every regex field must start-anchor-match its pattern against req.
func (in *Interaction) Matches(req httpvalue.Request) bool {
	for _, field := range in.Match.Exact {
		want, ok := exactFieldValue(in.Request, field)
		if !ok {
			return false
		}
		got, _ := exactFieldValue(req, field)
		if !equalFieldValues(want, got) {
			return false
		}
	}

	for field, re := range in.Match.compiledRegex {
		s, ok := regexFieldValue(req, field)
		if !ok || !matchesAtStart(re, s) {
			return false
		}
	}

	return true
}

func equalFieldValues(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case map[string][]string:
		bv, ok := b.(map[string][]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, vals := range av {
			ov, ok := bv[k]
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
	default:
		return a == b
	}
}
