package management

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/getmockd/mitmcore/pkg/interaction"
	"github.com/getmockd/mitmcore/pkg/mitmconfig"
	"github.com/getmockd/mitmcore/pkg/registry"
	"github.com/getmockd/mitmcore/pkg/scenario"
	"github.com/getmockd/mitmcore/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopScheduler struct{}

func (nopScheduler) Schedule(req httpvalue.Request, delaySeconds float64) {}

func newTestManagement(t *testing.T) (*Management, *registry.Registry, *scenario.Store) {
	t.Helper()
	store := scenario.New(t.TempDir())
	reg := registry.NewEmpty(registry.Deps{Store: store, Scheduler: nopScheduler{}, Config: mitmconfig.Config{}})
	mgmt := New(reg, store, mitmconfig.Config{Version: "test"}, nil)
	reg.Prepend(mgmt)
	return mgmt, reg, store
}

func jsonRequest(method, path string, body any) httpvalue.Request {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	headers := httpvalue.NewHeaders()
	headers.Add("Host", mitmconfig.ManagementHost)
	return httpvalue.NewRequestFromBytes("https://"+mitmconfig.ManagementHost+path, method, raw, headers, "")
}

func decodeBody(t *testing.T, resp httpvalue.Response, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(resp.BodyText()), out))
}

func TestListServicesReturnsManagementItself(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodGet, "/services", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Services []service.Descriptor `json:"services"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Services, 1)
	assert.Equal(t, TypeName, body.Services[0].Type)
}

func TestReplaceServicesAddsAfterManagement(t *testing.T) {
	mgmt, reg, _ := newTestManagement(t)

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodPost, "/services", map[string]any{
		"services": []service.Descriptor{
			{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	svcs := reg.Services()
	require.Len(t, svcs, 2)
	assert.Equal(t, "widgets", svcs[1].Name())
}

func TestReplaceServicesRejectsMalformedBody(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)

	req := jsonRequest(http.MethodPost, "/services", nil)
	req.Body = []byte("not json")

	_, err := mgmt.ProcessRequest(req)
	assert.Error(t, err)
}

func TestServiceInteractionsNotFound(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)

	_, err := mgmt.ProcessRequest(jsonRequest(http.MethodGet, "/service/widgets/interactions", nil))
	assert.Error(t, err)
}

func TestServiceInteractionsReturnsReplayCounts(t *testing.T) {
	mgmt, reg, _ := newTestManagement(t)
	require.NoError(t, reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	}))

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodGet, "/service/widgets/interactions", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var counts map[string]int
	decodeBody(t, resp, &counts)
	assert.Empty(t, counts)
}

func TestScenariosReportsFilesAndCount(t *testing.T) {
	mgmt, _, store := newTestManagement(t)

	require.NoError(t, store.Record("default", "widgets", &interaction.Interaction{
		Request:    httpvalue.NewRequestFromText("https://api.example.com/x", "GET", "", httpvalue.NewHeaders(), "", ""),
		Response:   httpvalue.NewResponseFromText(200, "OK", "", httpvalue.NewHeaders(), "", ""),
		Match:      interaction.MatchDescriptor{Exact: interaction.DefaultExactFields},
		MaxReplays: interaction.Unlimited,
	}))

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodGet, "/scenarios", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var scenarios map[string]struct {
		Responses map[string]struct {
			Files []string `json:"files"`
			Count int      `json:"count"`
		} `json:"responses"`
	}
	decodeBody(t, resp, &scenarios)

	entry, ok := scenarios["default"]
	require.True(t, ok)
	widgets, ok := entry.Responses["widgets"]
	require.True(t, ok)
	assert.Equal(t, 1, widgets.Count)
	assert.Equal(t, []string{"interaction_0.yaml"}, widgets.Files)
}

func TestGetConfigReturnsDefaultActiveScenario(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodGet, "/config", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg map[string]any
	decodeBody(t, resp, &cfg)
	assert.Equal(t, service.DefaultScenario, cfg["active_scenario"])
}

func TestMergeConfigPropagatesActiveScenario(t *testing.T) {
	mgmt, reg, _ := newTestManagement(t)
	require.NoError(t, reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	}))

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodPut, "/config", map[string]any{"active_scenario": "alternate"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	svc, ok := reg.FindByName("widgets")
	require.True(t, ok)
	assert.Equal(t, "alternate", svc.ActiveScenario())
}

func TestReplaceConfigDefaultsActiveScenarioWhenMissing(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodPost, "/config", map[string]any{"foo": "bar"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var cfg map[string]any
	decodeBody(t, resp, &cfg)
	assert.Equal(t, service.DefaultScenario, cfg["active_scenario"])
	assert.Equal(t, "bar", cfg["foo"])
}

func TestSetRecordingRequiresEnableKey(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)

	_, err := mgmt.ProcessRequest(jsonRequest(http.MethodPut, "/record", map[string]any{}))
	assert.Error(t, err)
}

func TestSetRecordingPutReturnsNoContentAndPropagates(t *testing.T) {
	mgmt, reg, _ := newTestManagement(t)
	require.NoError(t, reg.ReplaceFromDescription([]service.Descriptor{
		{Type: service.MockedTypeName, Name: "widgets", Hosts: []string{"api.example.com"}},
	}))

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodPut, "/record", map[string]any{"enable": true}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	svc, ok := reg.FindByName("widgets")
	require.True(t, ok)
	assert.True(t, svc.Recording())
}

func TestSetRecordingPostReturnsCreatedWithBody(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)

	resp, err := mgmt.ProcessRequest(jsonRequest(http.MethodPost, "/record", map[string]any{"enable": false}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]bool
	decodeBody(t, resp, &body)
	assert.False(t, body["recording"])
}

func TestUnknownEndpointReturnsError(t *testing.T) {
	mgmt, _, _ := newTestManagement(t)
	_, err := mgmt.ProcessRequest(jsonRequest(http.MethodGet, "/nonexistent", nil))
	assert.Error(t, err)
}
