// Package audit wraps the Management Service's request handling with
// trace-ID-tagged access logging. Management has no net/http.Server of its
// own — it is reached like any other Service, through the Dispatcher — so
// this middleware wraps the normalized request/response Handler rather than
// an http.Handler.
package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/mitmcore/pkg/dispatcherr"
	"github.com/getmockd/mitmcore/pkg/httpvalue"
)

// Handler resolves a normalized request to a normalized response, the same
// shape as service.Service.ProcessRequest.
type Handler func(req httpvalue.Request) (httpvalue.Response, error)

// Wrap mints a trace ID per call and logs method, full request URL, status,
// and duration via logger, without altering next's result.
func Wrap(logger *slog.Logger, next Handler) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req httpvalue.Request) (httpvalue.Response, error) {
		traceID := uuid.New().String()
		start := time.Now()

		resp, err := next(req)

		status := resp.StatusCode
		if err != nil {
			status = dispatcherr.ToHTTPStatus(err)
		}
		logger.Info("management request",
			"trace_id", traceID,
			"method", req.Method,
			"url", req.URL,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
