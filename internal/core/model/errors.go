package model

import (
	"errors"
	"fmt"
)

// Failures reported by the attendance API client. Callers classify with
// errors.Is; all of them leave the known record untouched.
var (
	ErrTransport         = errors.New("attendance api transport failure")
	ErrHTTPStatus        = errors.New("attendance api returned non-successful status code")
	ErrRecordNotFound    = errors.New("employee not present in status response")
	ErrMalformedResponse = errors.New("malformed attendance api response")
	ErrRemoteFault       = errors.New("attendance api reported an error")
)

// HTTPStatusError carries the status code of a non-200 response.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrHTTPStatus, e.Code)
}

func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// IsNetworkError reports whether err belongs to the transport class:
// the request may succeed on the next tick without any user action.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrHTTPStatus) || errors.Is(err, ErrMalformedResponse)
}
