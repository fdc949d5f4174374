package completion

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when no API key is configured.
var ErrMissingCredential = errors.New("API key not found; set it with `brainstorm key set`")

// UpstreamError reports a failed call to the provider. Status is 0 when the
// request never produced an HTTP response.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("upstream error: %d - %s", e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("upstream error: %s: %v", e.Message, e.Err)
	default:
		return "upstream error: " + e.Message
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is, or wraps, an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
