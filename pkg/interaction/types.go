// Package interaction implements the persisted request->response recording
// unit: a canonical Request/Response pair, its matching rules, any deferred
// callbacks, and its replay quota.
package interaction

import (
	"regexp"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
)

// Field names usable in a MatchDescriptor's Exact list and Regex map.
const (
	FieldURL     = "url"
	FieldMethod  = "method"
	FieldBody    = "body"
	FieldHeaders = "headers"
)

// DefaultExactFields is used when an Interaction's match descriptor is
// entirely absent from its YAML document.
var DefaultExactFields = []string{FieldURL, FieldMethod, FieldBody}

// MatchDescriptor controls how an Interaction decides whether it handles a
// given request: an ordered list of fields that must compare exactly equal,
// plus a map of fields to regex patterns that must match.
type MatchDescriptor struct {
	Exact []string
	// Regex maps a field name to its pattern source; Load compiles it once
	// into compiledRegex, which is all that Matches consults.
	Regex map[string]string

	compiledRegex map[string]*regexp.Regexp
}

// CallbackDescriptor is a deferred outbound HTTP call attached to an
// Interaction's replay.
type CallbackDescriptor struct {
	Request httpvalue.Request
	// DelaySeconds is the wait before dispatch; defaults to 0.5 when the
	// YAML document omits it.
	DelaySeconds float64
}

// Interaction is one persisted request/response recording.
type Interaction struct {
	// Name is derived from the backing file's stem and must be
	// filesystem-safe.
	Name string

	// Description is free-text operator documentation; it plays no part in
	// matching and is preserved verbatim across Load/Save.
	Description string

	Request   httpvalue.Request
	Response  httpvalue.Response
	Match     MatchDescriptor
	Callbacks []CallbackDescriptor

	// MaxReplays is the replay quota; negative means unlimited. Absent in
	// YAML is represented the same as -1.
	MaxReplays int
}

// Unlimited is the sentinel MaxReplays value meaning "no quota".
const Unlimited = -1
