// Package dispatch implements the entry points the intercepting proxy
// runtime calls on every intercepted flow: the request hook, which routes a
// normalized request to the owning Service and writes back its synthesized
// response, and the response hook, which lets recording-eligible services
// persist a live upstream reply.
package dispatch

import (
	"log/slog"

	"github.com/getmockd/mitmcore/pkg/dispatcherr"
	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/getmockd/mitmcore/pkg/registry"
)

// Dispatcher is the glue between the external proxy runtime and the core:
// it owns no state of its own beyond the Registry it routes against.
type Dispatcher struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// New builds a Dispatcher routing against reg. A nil logger falls back to
// slog.Default.
func New(reg *registry.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: reg, logger: logger}
}

// Outcome is the result of the request hook: either a synthesized response
// to write back into the flow, or PassThrough, meaning the flow must reach
// its real destination unmodified.
type Outcome struct {
	Response    httpvalue.Response
	PassThrough bool
}

// HandleRequest implements the request hook: it walks the Registry in
// order for the first service that Handles req, then asks that service to
// resolve a response. do-not-intercept is translated to PassThrough;
// everything else is materialized into a plain-text Response (status =
// the error's HTTP status, default 500; body = the error message) so the
// caller always has something to write back into the flow, and is also
// returned as an error already carrying that same HTTP status (see
// ToHTTPStatus) for callers that want to branch on it.
func (d *Dispatcher) HandleRequest(req httpvalue.Request) (Outcome, error) {
	svc, ok := d.registry.Handling(req)
	if !ok {
		d.logger.Warn("dispatch: no service handles request", "url", req.URL, "method", req.Method)
		err := dispatcherr.New(dispatcherr.KindNoServicesForRequest, "no service handles "+req.Method+" "+req.URL)
		return Outcome{Response: errorResponse(err)}, err
	}

	resp, err := svc.ProcessRequest(req)
	if err != nil {
		if dispatcherr.IsDoNotIntercept(err) {
			d.logger.Info("dispatch: pass through", "service", svc.Name(), "url", req.URL)
			return Outcome{PassThrough: true}, nil
		}
		d.logger.Warn("dispatch: request error", "service", svc.Name(), "url", req.URL, "error", err)
		return Outcome{Response: errorResponse(err)}, err
	}
	return Outcome{Response: resp}, nil
}

// errorResponse renders err as the plain-text Response a client without
// deeper error handling should see: status from ToHTTPStatus, body the
// error's message.
func errorResponse(err error) httpvalue.Response {
	return httpvalue.NewResponseFromText(dispatcherr.ToHTTPStatus(err), "", err.Error(), httpvalue.NewHeaders(), "", "")
}

// HandleResponse implements the response hook: it re-resolves the owning
// service for req and lets it record the live (req, resp) pair, when
// recording is active. No error is returned: a response with no owning
// service is simply not recorded.
func (d *Dispatcher) HandleResponse(req httpvalue.Request, resp httpvalue.Response) {
	svc, ok := d.registry.Handling(req)
	if !ok {
		return
	}
	svc.ProcessResponse(req, resp)
}

// ToHTTPStatus converts any error from HandleRequest to the plain-text
// status a caller without deeper error handling should respond with.
func ToHTTPStatus(err error) int {
	return dispatcherr.ToHTTPStatus(err)
}
