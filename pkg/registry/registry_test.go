package registry

import (
	"testing"

	"github.com/getmockd/mitmcore/pkg/dispatcherr"
	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/getmockd/mitmcore/pkg/mitmconfig"
	"github.com/getmockd/mitmcore/pkg/scenario"
	"github.com/getmockd/mitmcore/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopScheduler struct{}

func (nopScheduler) Schedule(req httpvalue.Request, delaySeconds float64) {}

func testDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{Store: scenario.New(t.TempDir()), Scheduler: nopScheduler{}, Config: mitmconfig.Config{}}
}

func requestTo(host string) httpvalue.Request {
	headers := httpvalue.NewHeaders()
	headers.Add("Host", host)
	return httpvalue.NewRequestFromText("https://"+host+"/x", "GET", "", headers, "", "")
}

func TestNewSeatsManagementAtPositionZero(t *testing.T) {
	mgmt := service.NewWhitelist("management", []string{"mitm-manager.local"}, mitmconfig.Config{})
	reg := New(testDeps(t), mgmt)

	svcs := reg.Services()
	require.Len(t, svcs, 1)
	assert.Equal(t, "management", svcs[0].Name())
}

func TestReplaceFromDescriptionPreservesPrefix(t *testing.T) {
	mgmt := service.NewWhitelist("management", []string{"mitm-manager.local"}, mitmconfig.Config{})
	reg := New(testDeps(t), mgmt)

	err := reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	})
	require.NoError(t, err)

	svcs := reg.Services()
	require.Len(t, svcs, 2)
	assert.Equal(t, "management", svcs[0].Name())
	assert.Equal(t, "widgets", svcs[1].Name())
}

func TestReplaceFromDescriptionRejectsUnknownType(t *testing.T) {
	reg := NewEmpty(testDeps(t))
	err := reg.ReplaceFromDescription([]service.Descriptor{{Type: "BogusType", Name: "x"}})

	var derr *dispatcherr.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dispatcherr.KindInvalidServiceType, derr.Kind)
}

func TestReplaceFromDescriptionRejectsMissingName(t *testing.T) {
	reg := NewEmpty(testDeps(t))
	err := reg.ReplaceFromDescription([]service.Descriptor{{Type: service.MockedTypeName, Hosts: []string{"a"}}})

	var derr *dispatcherr.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dispatcherr.KindInvalidServiceParams, derr.Kind)
}

func TestReplaceFromDescriptionLeavesOldListIntactOnError(t *testing.T) {
	reg := NewEmpty(testDeps(t))
	require.NoError(t, reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	}))

	err := reg.ReplaceFromDescription([]service.Descriptor{{Type: "BogusType", Name: "x"}})
	assert.Error(t, err)

	svcs := reg.Services()
	require.Len(t, svcs, 1)
	assert.Equal(t, "widgets", svcs[0].Name())
}

func TestPrependExtendsThePrefix(t *testing.T) {
	reg := NewEmpty(testDeps(t))
	mgmt := service.NewWhitelist("management", []string{"mitm-manager.local"}, mitmconfig.Config{})
	reg.Prepend(mgmt)

	require.NoError(t, reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	}))

	svcs := reg.Services()
	require.Len(t, svcs, 2)
	assert.Equal(t, "management", svcs[0].Name())
	assert.Equal(t, "widgets", svcs[1].Name())
}

func TestFindByName(t *testing.T) {
	mgmt := service.NewWhitelist("management", []string{"mitm-manager.local"}, mitmconfig.Config{})
	reg := New(testDeps(t), mgmt)

	found, ok := reg.FindByName("management")
	assert.True(t, ok)
	assert.Equal(t, mgmt, found)

	_, ok = reg.FindByName("nonexistent")
	assert.False(t, ok)
}

func TestHandlingReturnsFirstMatchingServiceInOrder(t *testing.T) {
	reg := NewEmpty(testDeps(t))
	first := service.NewWhitelist("first", []string{"api.example.com"}, mitmconfig.Config{})
	second := service.NewWhitelist("second", []string{"api.example.com"}, mitmconfig.Config{})
	reg.Prepend(second)
	reg.Prepend(first)

	svc, ok := reg.Handling(requestTo("api.example.com"))
	require.True(t, ok)
	assert.Equal(t, "first", svc.Name())
}

func TestDescriptorsReflectsCurrentOrder(t *testing.T) {
	mgmt := service.NewWhitelist("management", []string{"mitm-manager.local"}, mitmconfig.Config{})
	reg := New(testDeps(t), mgmt)
	require.NoError(t, reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	}))

	descs := reg.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "management", descs[0].Name)
	assert.Equal(t, "widgets", descs[1].Name)
}

func TestForEachVisitsEveryService(t *testing.T) {
	mgmt := service.NewWhitelist("management", []string{"mitm-manager.local"}, mitmconfig.Config{})
	reg := New(testDeps(t), mgmt)
	require.NoError(t, reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	}))

	var names []string
	reg.ForEach(func(svc service.Service) { names = append(names, svc.Name()) })
	assert.Equal(t, []string{"management", "widgets"}, names)
}
