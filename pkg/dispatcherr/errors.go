// Package dispatcherr defines the dispatch-path error taxonomy: a sum type
// carrying an HTTP status plus a rendered message, shared by every package
// (Service, Registry, Management, Dispatcher) that can signal a
// classifiable failure.
package dispatcherr

import "net/http"

// Kind identifies a category of dispatch-path error, carrying the HTTP
// status callers should see, per spec's error taxonomy.
type Kind string

// Error kinds from spec §7, each mapped to the HTTP status a caller
// (the e2e harness or the intercepting runtime's client) should observe.
const (
	KindNoServicesForRequest       Kind = "no-services-for-request"
	KindRequestNotHandledInService Kind = "request-not-handled-in-service"
	KindNoMatchingRecording        Kind = "no-matching-recording"
	KindScenarioNotInService       Kind = "scenario-not-in-service"
	KindInvalidRequest             Kind = "invalid-request"
	KindInvalidServiceType         Kind = "invalid-service-type"
	KindInvalidServiceParams       Kind = "invalid-service-params"
	KindServiceNotFound            Kind = "service-not-found"
	// KindDoNotIntercept is a control signal recognized by the Dispatcher,
	// never surfaced to a client; it has no meaningful HTTP status.
	KindDoNotIntercept Kind = "do-not-intercept"
)

var statusByKind = map[Kind]int{
	KindNoServicesForRequest:       http.StatusNotImplemented,
	KindRequestNotHandledInService: http.StatusNotImplemented,
	KindNoMatchingRecording:        http.StatusNotImplemented,
	KindScenarioNotInService:       http.StatusNotImplemented,
	KindInvalidRequest:             http.StatusBadRequest,
	KindInvalidServiceType:         http.StatusBadRequest,
	KindInvalidServiceParams:       http.StatusBadRequest,
	KindServiceNotFound:            http.StatusNotFound,
}

// Error is the sum type carrying an HTTP status plus the rendered message,
// generalizing the sentinel-string-error pattern used elsewhere in this
// codebase family to also carry a status code.
type Error struct {
	Kind    Kind
	Message string
}

// New builds an *Error of the given kind with message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus returns the status this error kind maps to, defaulting to 500
// for kinds outside the known taxonomy (and for KindDoNotIntercept, which
// should never reach this path since the Dispatcher intercepts it first).
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsDoNotIntercept reports whether err is the do-not-intercept control
// signal.
func IsDoNotIntercept(err error) bool {
	de, ok := err.(*Error)
	return ok && de.Kind == KindDoNotIntercept
}

// ToHTTPStatus converts any error to the status a generic converter should
// respond with: the error kind's status if err is a *Error, else 500.
func ToHTTPStatus(err error) int {
	if de, ok := err.(*Error); ok {
		return de.HTTPStatus()
	}
	return http.StatusInternalServerError
}
