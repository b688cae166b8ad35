package providers

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse means the backend replied but the expected part of the
// payload was absent or undecodable. For speech synthesis this is treated as
// transient (the backend intermittently returns partial candidates under
// load); for structured text generation it is a hard failure.
var ErrMalformedResponse = errors.New("malformed provider response")

// APIError carries the HTTP status of a failed backend call.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Provider, e.Status, e.Body)
}

type ErrorType string

const (
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
)

// ClassifyError decides whether a synthesis failure is worth retrying.
// Overloaded backends (429/5xx) and malformed response shapes are transient;
// everything else is permanent.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMalformedResponse) {
		return ErrorTransient
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 429 || apiErr.Status >= 500 {
			return ErrorTransient
		}
	}
	return ErrorPermanent
}
