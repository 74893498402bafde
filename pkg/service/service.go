// Package service implements the mocked endpoint: a name, a host list, a
// per-scenario replay counter, and the matching/recording behavior the
// Dispatcher drives.
package service

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/getmockd/mitmcore/pkg/dispatcherr"
	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/getmockd/mitmcore/pkg/interaction"
	"github.com/getmockd/mitmcore/pkg/scenario"
)

// DefaultScenario is the active scenario name a new Service starts with.
const DefaultScenario = "default"

// Descriptor is the type/name/hosts shape used both to reconstruct a
// Service from a control-plane description and to serialize the registry
// back out.
type Descriptor struct {
	Type  string   `json:"type"`
	Name  string   `json:"name"`
	Hosts []string `json:"hosts"`
}

// Service is a mocked endpoint: it decides whether it owns a request
// (Handles), resolves the response for one it owns (ProcessRequest), and
// optionally records a live upstream reply (ProcessResponse).
type Service interface {
	Name() string
	Hosts() []string
	Handles(req httpvalue.Request) bool
	ProcessRequest(req httpvalue.Request) (httpvalue.Response, error)
	ProcessResponse(req httpvalue.Request, resp httpvalue.Response)
	SetActiveScenario(name string)
	ActiveScenario() string
	SetRecording(enabled bool)
	Recording() bool
	ReplayCounts() map[string]int
	Descriptor() Descriptor
	Equal(other Service) bool
}

// Base implements the common Service contract against a Scenario Store.
// WhitelistService embeds Base and overrides ProcessRequest and
// ProcessResponse.
type Base struct {
	typeName string
	name     string
	hosts    []string

	store     *scenario.Store
	scheduler interaction.CallbackScheduler

	mu             sync.RWMutex
	activeScenario string
	recording      bool
	// counts is scenario -> interaction name -> replay count.
	counts map[string]map[string]int
}

// NewBase constructs a Base service backed by store, scheduling callbacks
// on scheduler.
func NewBase(typeName, name string, hosts []string, store *scenario.Store, scheduler interaction.CallbackScheduler) *Base {
	return &Base{
		typeName:       typeName,
		name:           name,
		hosts:          append([]string(nil), hosts...),
		store:          store,
		scheduler:      scheduler,
		activeScenario: DefaultScenario,
		counts:         map[string]map[string]int{},
	}
}

// Name returns the service's unique name.
func (b *Base) Name() string { return b.name }

// Hosts returns the service's configured hostnames.
func (b *Base) Hosts() []string { return append([]string(nil), b.hosts...) }

// Descriptor returns the type/name/hosts shape for serialization.
func (b *Base) Descriptor() Descriptor {
	return Descriptor{Type: b.typeName, Name: b.name, Hosts: b.Hosts()}
}

// Equal reports whether other is the same concrete type, name, and hosts.
func (b *Base) Equal(other Service) bool {
	od := other.Descriptor()
	d := b.Descriptor()
	if d.Type != od.Type || d.Name != od.Name || len(d.Hosts) != len(od.Hosts) {
		return false
	}
	for i := range d.Hosts {
		if d.Hosts[i] != od.Hosts[i] {
			return false
		}
	}
	return true
}

// hostFromRequest extracts the candidate host for routing: the Host
// header's first value stripped of any port, falling back to the parsed
// URL's host component when the header is missing or empty.
func hostFromRequest(req httpvalue.Request) string {
	if h, err := req.Headers.Get("Host"); err == nil && h != "" {
		return stripPort(h)
	}
	if u, err := url.Parse(req.URL); err == nil {
		return stripPort(u.Host)
	}
	return ""
}

func stripPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return strings.TrimSpace(hostport)
}

// Handles reports whether this service owns req, by exact hostname match
// against its hosts list.
func (b *Base) Handles(req httpvalue.Request) bool {
	host := hostFromRequest(req)
	if host == "" {
		return false
	}
	for _, h := range b.hosts {
		if h == host {
			return true
		}
	}
	return false
}

// ActiveScenario returns the currently selected scenario name.
func (b *Base) ActiveScenario() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.activeScenario
}

// SetActiveScenario switches the active scenario, resetting that
// scenario's replay counter to empty. Counters for other scenarios are
// preserved.
func (b *Base) SetActiveScenario(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeScenario = name
	b.counts[name] = map[string]int{}
}

// Recording reports whether recording is currently enabled.
func (b *Base) Recording() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.recording
}

// SetRecording toggles the recording flag.
func (b *Base) SetRecording(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recording = enabled
}

// ReplayCounts returns a copy of the active scenario's per-interaction
// replay counters.
func (b *Base) ReplayCounts() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	src := b.counts[b.activeScenario]
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (b *Base) incrementCount(scenarioName, interactionName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.counts[scenarioName] == nil {
		b.counts[scenarioName] = map[string]int{}
	}
	b.counts[scenarioName][interactionName]++
}

func (b *Base) replayCount(scenarioName, interactionName string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.counts[scenarioName][interactionName]
}

// ProcessRequest consults the active scenario's interactions in Scenario
// Store order and returns the first match whose replay quota is not yet
// exhausted, per spec §4.4.
func (b *Base) ProcessRequest(req httpvalue.Request) (httpvalue.Response, error) {
	activeScenario := b.ActiveScenario()
	recording := b.Recording()

	interactions, err := b.store.LoadInteractions(activeScenario, b.name)
	if err != nil {
		if !errors.Is(err, scenario.ErrNotInService) {
			return httpvalue.Response{}, err
		}
		if recording {
			return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindDoNotIntercept, "recording: scenario directory absent, pass through")
		}
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindScenarioNotInService, "scenario "+activeScenario+" has no directory for service "+b.name)
	}

	for _, in := range interactions {
		if !in.Matches(req) {
			continue
		}
		if in.MaxReplays >= 0 && b.replayCount(activeScenario, in.Name) >= in.MaxReplays {
			continue
		}
		b.incrementCount(activeScenario, in.Name)
		in.ExecuteCallbacks(b.scheduler)
		return in.Response, nil
	}

	if recording {
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindDoNotIntercept, "no recording matched, pass through")
	}
	return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindNoMatchingRecording, "no interaction matches request for service "+b.name)
}

// ProcessResponse persists a live upstream reply as a new Interaction with
// an empty match descriptor (saved as "match: {}", so it matches every
// request once loaded), no callbacks, and unlimited replays, when recording
// is enabled; otherwise it is a no-op.
func (b *Base) ProcessResponse(req httpvalue.Request, resp httpvalue.Response) {
	if !b.Recording() {
		return
	}
	in := &interaction.Interaction{
		Request:    req,
		Response:   resp,
		Match:      interaction.MatchDescriptor{},
		MaxReplays: interaction.Unlimited,
	}
	_ = b.store.Record(b.ActiveScenario(), b.name, in)
}
