// Package registry implements the ordered, atomically-swapped Service list
// the Dispatcher consults for every intercepted request: Management always
// occupies position 0, and the remainder can be wholesale replaced from a
// control-plane description.
package registry

import (
	"sync/atomic"

	"github.com/getmockd/mitmcore/pkg/dispatcherr"
	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/getmockd/mitmcore/pkg/interaction"
	"github.com/getmockd/mitmcore/pkg/mitmconfig"
	"github.com/getmockd/mitmcore/pkg/scenario"
	"github.com/getmockd/mitmcore/pkg/service"
)

// Deps bundles what a service Constructor needs to build a Service from a
// Descriptor, beyond the descriptor's own type/name/hosts.
type Deps struct {
	Store     *scenario.Store
	Scheduler interaction.CallbackScheduler
	Config    mitmconfig.Config
}

// Constructor builds a Service from a Descriptor and the shared Deps.
type Constructor func(d service.Descriptor, deps Deps) (service.Service, error)

func defaultConstructors() map[string]Constructor {
	return map[string]Constructor{
		service.MockedTypeName: func(d service.Descriptor, deps Deps) (service.Service, error) {
			if d.Name == "" {
				return nil, dispatcherr.New(dispatcherr.KindInvalidServiceParams, "MockedService requires a name")
			}
			return service.NewMocked(d.Name, d.Hosts, deps.Store, deps.Scheduler), nil
		},
		service.WhitelistTypeName: func(d service.Descriptor, deps Deps) (service.Service, error) {
			if d.Name == "" {
				return nil, dispatcherr.New(dispatcherr.KindInvalidServiceParams, "WhitelistService requires a name")
			}
			return service.NewWhitelist(d.Name, d.Hosts, deps.Config), nil
		},
	}
}

// Registry holds an ordered Service list behind an atomic pointer snapshot,
// so dispatch reads never contend with a Management-driven bulk replace.
type Registry struct {
	prefixLen    int
	snapshot     atomic.Pointer[[]service.Service]
	constructors map[string]Constructor
	deps         Deps
}

// New creates a Registry whose sole initial member, management, occupies
// the fixed prefix (position 0) that ReplaceFromDescription never touches.
func New(deps Deps, management service.Service) *Registry {
	r := &Registry{prefixLen: 1, constructors: defaultConstructors(), deps: deps}
	list := []service.Service{management}
	r.snapshot.Store(&list)
	return r
}

// NewEmpty creates a Registry with no members yet. Used when the
// Management service must be constructed with a reference to the Registry
// it will occupy: build the empty Registry, construct Management from it,
// then Prepend(management) to seat it at position 0.
func NewEmpty(deps Deps) *Registry {
	r := &Registry{constructors: defaultConstructors(), deps: deps}
	list := []service.Service{}
	r.snapshot.Store(&list)
	return r
}

// Services returns a point-in-time copy of the ordered list.
func (r *Registry) Services() []service.Service {
	p := r.snapshot.Load()
	if p == nil {
		return nil
	}
	out := make([]service.Service, len(*p))
	copy(out, *p)
	return out
}

// Prepend inserts services at the front of the list, ahead of the current
// prefix, and extends the prefix so future replacements preserve them too.
func (r *Registry) Prepend(services ...service.Service) {
	for {
		old := r.snapshot.Load()
		next := make([]service.Service, 0, len(services)+len(*old))
		next = append(next, services...)
		next = append(next, *old...)
		if r.snapshot.CompareAndSwap(old, &next) {
			r.prefixLen += len(services)
			return
		}
	}
}

// FindByName returns the service with the given name, if present.
func (r *Registry) FindByName(name string) (service.Service, bool) {
	for _, svc := range r.Services() {
		if svc.Name() == name {
			return svc, true
		}
	}
	return nil, false
}

// Handling returns the first service in order whose Handles(req) is true.
func (r *Registry) Handling(req httpvalue.Request) (service.Service, bool) {
	for _, svc := range r.Services() {
		if svc.Handles(req) {
			return svc, true
		}
	}
	return nil, false
}

// Descriptors serializes the current list to its type/name/hosts shape.
func (r *Registry) Descriptors() []service.Descriptor {
	svcs := r.Services()
	out := make([]service.Descriptor, len(svcs))
	for i, svc := range svcs {
		out[i] = svc.Descriptor()
	}
	return out
}

// ReplaceFromDescription reconstructs the non-prefix portion of the list
// from descs, preserving the prefix (Management and anything Prepend added)
// unchanged. The swap is atomic: a concurrent dispatch sees either the
// pre-image or the post-image in full, never a mix.
func (r *Registry) ReplaceFromDescription(descs []service.Descriptor) error {
	built := make([]service.Service, 0, len(descs))
	for _, d := range descs {
		ctor, ok := r.constructors[d.Type]
		if !ok {
			return dispatcherr.New(dispatcherr.KindInvalidServiceType, "unknown service type "+d.Type)
		}
		svc, err := ctor(d, r.deps)
		if err != nil {
			return err
		}
		built = append(built, svc)
	}

	for {
		old := r.snapshot.Load()
		prefix := (*old)[:r.prefixLen]
		next := make([]service.Service, 0, len(prefix)+len(built))
		next = append(next, prefix...)
		next = append(next, built...)
		if r.snapshot.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// ForEach applies fn to every service currently registered, in order. Used
// by Management to propagate a config or recording change to all services.
func (r *Registry) ForEach(fn func(service.Service)) {
	for _, svc := range r.Services() {
		fn(svc)
	}
}
