package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
)

// ErrorKind classifies a failed API call for reporting.
type ErrorKind string

const (
	// KindClientError is an HTTP 4xx response.
	KindClientError ErrorKind = "client_error"
	// KindServerError is an HTTP 5xx response.
	KindServerError ErrorKind = "server_error"
	// KindConnection means the API could not be reached.
	KindConnection ErrorKind = "connection"
	// KindTimeout means the request did not complete in time.
	KindTimeout ErrorKind = "timeout"
	// KindRequest is any other request failure.
	KindRequest ErrorKind = "request"
)

// Common errors for the search API.
var (
	ErrInvalidResponse = errors.New("search API returned a response that is not valid JSON")
	ErrNoResults       = errors.New("search API returned no results")
	ErrInvalidCoords   = errors.New("search API returned invalid coordinates")
	ErrEmptyAddress    = errors.New("empty address")
)

// APIError is returned when the API answers with an HTTP error status.
type APIError struct {
	StatusCode int    // HTTP status code.
	Reason     string // Reason phrase, e.g. "Not Found".
	Body       string // Raw response body.
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search API returned status %d %s", e.StatusCode, e.Reason)
}

// Family returns "server" for 5xx responses and "client" otherwise.
func (e *APIError) Family() string {
	if e.StatusCode >= http.StatusInternalServerError {
		return "server"
	}
	return "client"
}

// Classify maps an error returned by the client to its ErrorKind.
func Classify(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Family() == "server" {
			return KindServerError
		}
		return KindClientError
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return KindConnection
	}

	return KindRequest
}
