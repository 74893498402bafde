// Package httputil provides the shared response-building helper used by the
// Management Service. Management never runs its own net/http.Server — it is
// reached like any other service, through the Dispatcher — so this package
// builds normalized httpvalue.Response values rather than writing to a
// net/http.ResponseWriter, but keeps the teacher's "one shared helper so
// every handler stamps the same headers" shape.
package httputil

import (
	"encoding/json"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
)

// ServerHeader builds the Server header value for a given process version.
func ServerHeader(version string) string {
	return "inspire-mitmproxy/" + version
}

// Writer builds JSON responses tagged with a fixed Server header.
type Writer struct {
	serverHeader string
}

// NewWriter builds a Writer stamping every response with the given version.
func NewWriter(version string) *Writer {
	return &Writer{serverHeader: ServerHeader(version)}
}

// JSON builds a Response carrying data as a JSON body, with Content-Type
// "application/json; encoding=UTF-8" and Server: "inspire-mitmproxy/<version>".
func (wr *Writer) JSON(status int, data any) httpvalue.Response {
	body, err := json.Marshal(data)
	if err != nil {
		body = []byte(`{"error":"failed to encode response"}`)
		status = 500
	}
	headers := httpvalue.NewHeaders()
	headers.Set("Content-Type", "application/json; encoding=UTF-8")
	headers.Set("Server", wr.serverHeader)
	return httpvalue.Response{StatusCode: status, Body: body, Headers: headers}
}

// NoContent builds a Response with no body, still tagged with Server.
func (wr *Writer) NoContent(status int) httpvalue.Response {
	headers := httpvalue.NewHeaders()
	headers.Set("Server", wr.serverHeader)
	return httpvalue.Response{StatusCode: status, Headers: headers}
}
