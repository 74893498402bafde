// Package callback implements the deferred outbound HTTP calls attached to
// an Interaction replay: fire once after a delay, subject to a 10-second
// total-wait upper bound, logging failure without surfacing it to the
// replay path.
package callback

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
)

// MaxWait bounds the total time a scheduled callback may wait for its
// outbound call to complete, per spec.
const MaxWait = 10 * time.Second

// Executor runs deferred outbound HTTP calls on its own timer, never
// blocking the caller.
type Executor struct {
	client *http.Client
	logger *slog.Logger
}

// New creates an Executor. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		client: &http.Client{Timeout: MaxWait},
		logger: logger,
	}
}

// Schedule spawns a goroutine that waits delaySeconds then performs req as
// an outbound HTTP call, using the first value of each header name. It
// returns immediately; the dispatch path must never block on it.
func (e *Executor) Schedule(req httpvalue.Request, delaySeconds float64) {
	go e.run(req, delaySeconds)
}

func (e *Executor) run(req httpvalue.Request, delaySeconds float64) {
	if delaySeconds > 0 {
		time.Sleep(time.Duration(delaySeconds * float64(time.Second)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), MaxWait)
	defer cancel()

	outReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		e.logger.Error("callback: build request failed", "url", req.URL, "error", err)
		return
	}
	for _, name := range req.Headers.Names() {
		if v, err := req.Headers.Get(name); err == nil {
			outReq.Header.Set(name, v)
		}
	}

	resp, err := e.client.Do(outReq)
	if err != nil {
		e.logger.Error("callback: request failed", "url", req.URL, "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Warn("callback: non-2xx response", "url", req.URL, "status", resp.StatusCode)
	}
}
