package service

import (
	"github.com/getmockd/mitmcore/pkg/interaction"
	"github.com/getmockd/mitmcore/pkg/scenario"
)

// MockedTypeName is the concrete type name used in Descriptors and
// control-plane payloads for an ordinary recording/replaying service.
const MockedTypeName = "MockedService"

// Mocked is the ordinary recording/replaying Service: Base with no
// behavior overrides.
type Mocked struct {
	*Base
}

// NewMocked builds a Mocked service backed by store, scheduling callbacks
// on scheduler.
func NewMocked(name string, hosts []string, store *scenario.Store, scheduler interaction.CallbackScheduler) *Mocked {
	return &Mocked{Base: NewBase(MockedTypeName, name, hosts, store, scheduler)}
}
