package interaction

import (
	"os"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
)

// CallbackScheduler schedules a deferred outbound HTTP call. Implemented by
// the Callback Executor; kept as an interface here so Interaction does not
// depend on the executor's networking details.
type CallbackScheduler interface {
	Schedule(req httpvalue.Request, delaySeconds float64)
}

// ExecuteCallbacks schedules every callback descriptor on scheduler after
// expanding $VAR / ${VAR} environment references in the callback URL and
// each header value. Scheduling is fire-and-forget: failures are handled
// entirely inside the scheduler and never surfaced here.
func (in *Interaction) ExecuteCallbacks(scheduler CallbackScheduler) {
	for _, cb := range in.Callbacks {
		scheduler.Schedule(expandRequest(cb.Request), cb.DelaySeconds)
	}
}

func expandRequest(req httpvalue.Request) httpvalue.Request {
	expanded := req
	expanded.URL = os.Expand(req.URL, os.Getenv)

	headers := httpvalue.NewHeaders()
	for _, name := range req.Headers.Names() {
		for _, v := range req.Headers.Values(name) {
			headers.Add(name, os.Expand(v, os.Getenv))
		}
	}
	expanded.Headers = headers
	return expanded
}
