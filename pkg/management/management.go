// Package management implements the control-plane Service bound to the
// reserved hostname mitm-manager.local: it owns the Service Registry and
// the Scenario Store's enumeration, and fans out every config or recording
// change to every registered service.
package management

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/getmockd/mitmcore/pkg/audit"
	"github.com/getmockd/mitmcore/pkg/dispatcherr"
	"github.com/getmockd/mitmcore/pkg/httputil"
	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/getmockd/mitmcore/pkg/mitmconfig"
	"github.com/getmockd/mitmcore/pkg/registry"
	"github.com/getmockd/mitmcore/pkg/scenario"
	"github.com/getmockd/mitmcore/pkg/service"
)

// TypeName is the concrete type name reported in this service's Descriptor.
const TypeName = "Management"

// Management is the control-plane Service. It embeds service.Base for the
// common Name/Hosts/Handles/ActiveScenario/Recording machinery, and
// overrides ProcessRequest with its own endpoint table.
type Management struct {
	*service.Base

	registry *registry.Registry
	store    *scenario.Store
	writer   *httputil.Writer
	logger   *slog.Logger

	mu     sync.RWMutex
	config map[string]any
}

// New builds the Management service bound to reg and store, with version
// stamped on every response's Server header.
func New(reg *registry.Registry, store *scenario.Store, cfg mitmconfig.Config, logger *slog.Logger) *Management {
	if logger == nil {
		logger = slog.Default()
	}
	base := service.NewBase(TypeName, "Management", []string{mitmconfig.ManagementHost}, nil, nil)
	return &Management{
		Base:     base,
		registry: reg,
		store:    store,
		writer:   httputil.NewWriter(cfg.Version),
		logger:   logger,
		config:   map[string]any{"active_scenario": service.DefaultScenario},
	}
}

// ProcessRequest routes a management request by method and path. Every
// call is wrapped by the audit middleware, which mints a trace ID and logs
// method/URL/status/duration.
func (m *Management) ProcessRequest(req httpvalue.Request) (httpvalue.Response, error) {
	return audit.Wrap(m.logger, m.route)(req)
}

// ProcessResponse is a no-op: Management never records.
func (m *Management) ProcessResponse(req httpvalue.Request, resp httpvalue.Response) {}

func (m *Management) route(req httpvalue.Request) (httpvalue.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindInvalidRequest, "malformed request URL")
	}
	path := u.Path

	switch {
	case path == "/services" && req.Method == http.MethodGet:
		return m.listServices()
	case path == "/services" && (req.Method == http.MethodPost || req.Method == http.MethodPut):
		return m.replaceServices(req)
	case strings.HasPrefix(path, "/service/") && strings.HasSuffix(path, "/interactions") && req.Method == http.MethodGet:
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/service/"), "/interactions")
		return m.serviceInteractions(name)
	case path == "/scenarios" && req.Method == http.MethodGet:
		return m.scenarios()
	case path == "/config" && req.Method == http.MethodGet:
		return m.getConfig()
	case path == "/config" && req.Method == http.MethodPut:
		return m.mergeConfig(req)
	case path == "/config" && req.Method == http.MethodPost:
		return m.replaceConfig(req)
	case path == "/record" && (req.Method == http.MethodPut || req.Method == http.MethodPost):
		return m.setRecording(req)
	default:
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindRequestNotHandledInService, "no management endpoint for "+req.Method+" "+path)
	}
}

func (m *Management) listServices() (httpvalue.Response, error) {
	return m.writer.JSON(http.StatusOK, map[string]any{"services": m.registry.Descriptors()}), nil
}

func (m *Management) replaceServices(req httpvalue.Request) (httpvalue.Response, error) {
	var body struct {
		Services []service.Descriptor `json:"services"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindInvalidRequest, "malformed services body")
	}
	if err := m.registry.ReplaceFromDescription(body.Services); err != nil {
		return httpvalue.Response{}, err
	}
	return m.writer.JSON(http.StatusCreated, map[string]any{"services": m.registry.Descriptors()}), nil
}

func (m *Management) serviceInteractions(name string) (httpvalue.Response, error) {
	svc, ok := m.registry.FindByName(name)
	if !ok {
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindServiceNotFound, "no service named "+name)
	}
	return m.writer.JSON(http.StatusOK, svc.ReplayCounts()), nil
}

// serviceFiles is the per-service shape in GET /scenarios: the interaction
// file list plus its count, so control-plane consumers never need a second
// round trip just to learn how many recordings a service/scenario holds.
type serviceFiles struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

type scenarioEntry struct {
	Responses map[string]serviceFiles `json:"responses"`
}

func (m *Management) scenarios() (httpvalue.Response, error) {
	enumerated, err := m.store.Enumerate()
	if err != nil {
		return httpvalue.Response{}, fmt.Errorf("management: enumerate scenarios: %w", err)
	}
	out := make(map[string]scenarioEntry, len(enumerated))
	for name, byService := range enumerated {
		responses := make(map[string]serviceFiles, len(byService))
		for svcName, files := range byService {
			responses[svcName] = serviceFiles{Files: files, Count: len(files)}
		}
		out[name] = scenarioEntry{Responses: responses}
	}
	return m.writer.JSON(http.StatusOK, out), nil
}

func (m *Management) getConfig() (httpvalue.Response, error) {
	return m.writer.JSON(http.StatusOK, m.configSnapshot()), nil
}

func (m *Management) mergeConfig(req httpvalue.Request) (httpvalue.Response, error) {
	var patch map[string]any
	if err := json.Unmarshal(req.Body, &patch); err != nil {
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindInvalidRequest, "malformed config body")
	}
	m.mu.Lock()
	for k, v := range patch {
		m.config[k] = v
	}
	m.mu.Unlock()
	m.syncActiveScenario()
	m.propagate()
	return m.writer.NoContent(http.StatusNoContent), nil
}

func (m *Management) replaceConfig(req httpvalue.Request) (httpvalue.Response, error) {
	var next map[string]any
	if err := json.Unmarshal(req.Body, &next); err != nil {
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindInvalidRequest, "malformed config body")
	}
	if _, ok := next["active_scenario"]; !ok {
		next["active_scenario"] = service.DefaultScenario
	}
	m.mu.Lock()
	m.config = next
	m.mu.Unlock()
	m.syncActiveScenario()
	m.propagate()
	return m.writer.JSON(http.StatusCreated, m.configSnapshot()), nil
}

func (m *Management) setRecording(req httpvalue.Request) (httpvalue.Response, error) {
	var body struct {
		Enable *bool `json:"enable"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil || body.Enable == nil {
		return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindInvalidRequest, "missing required key \"enable\"")
	}
	m.SetRecording(*body.Enable)
	m.propagate()
	if req.Method == http.MethodPost {
		return m.writer.JSON(http.StatusCreated, map[string]bool{"recording": *body.Enable}), nil
	}
	return m.writer.NoContent(http.StatusNoContent), nil
}

func (m *Management) configSnapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.config))
	for k, v := range m.config {
		out[k] = v
	}
	return out
}

func (m *Management) syncActiveScenario() {
	m.mu.RLock()
	v, ok := m.config["active_scenario"].(string)
	m.mu.RUnlock()
	if ok {
		m.SetActiveScenario(v)
	}
}

// propagate pushes the current active scenario and recording flag to every
// registered service, per spec's "Management owns the registry and fans
// out config changes" rule.
func (m *Management) propagate() {
	activeScenario := m.ActiveScenario()
	recording := m.Recording()
	m.registry.ForEach(func(svc service.Service) {
		svc.SetActiveScenario(activeScenario)
		svc.SetRecording(recording)
	})
}
