package service

import (
	"github.com/getmockd/mitmcore/pkg/dispatcherr"
	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/getmockd/mitmcore/pkg/mitmconfig"
)

// WhitelistTypeName is the concrete type name used in Descriptors and
// control-plane payloads for a Whitelist service.
const WhitelistTypeName = "WhitelistService"

// Whitelist always passes requests through untouched: ProcessRequest
// unconditionally signals KindDoNotIntercept and ProcessResponse never
// records. Its host list is normally the constructor-supplied one, but an
// explicit MITM_PROXY_WHITELIST environment value takes precedence.
type Whitelist struct {
	*Base
}

// NewWhitelist builds a Whitelist service. If cfg.WhitelistHosts is
// non-empty, it overrides hosts.
func NewWhitelist(name string, hosts []string, cfg mitmconfig.Config) *Whitelist {
	effective := hosts
	if len(cfg.WhitelistHosts) > 0 {
		effective = cfg.WhitelistHosts
	}
	return &Whitelist{Base: NewBase(WhitelistTypeName, name, effective, nil, nil)}
}

// ProcessRequest never matches a recording; it always signals the
// Dispatcher to pass the request through to its real destination.
func (w *Whitelist) ProcessRequest(req httpvalue.Request) (httpvalue.Response, error) {
	return httpvalue.Response{}, dispatcherr.New(dispatcherr.KindDoNotIntercept, "whitelisted host, pass through")
}

// ProcessResponse is a no-op: a whitelisted service never records.
func (w *Whitelist) ProcessResponse(req httpvalue.Request, resp httpvalue.Response) {}
