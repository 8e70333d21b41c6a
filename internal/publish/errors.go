package publish

import "fmt"

// Typed deploy errors so callers can tell credential problems and missing
// sites apart without sniffing response text. Timeouts surface as wrapped
// context.DeadlineExceeded from the bounded deploy context.

type AuthError struct {
	URL    string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("deploy to %s rejected: status %d", e.URL, e.Status)
}

type NotFoundError struct {
	URL    string
	Status int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("deploy target %s not found: status %d", e.URL, e.Status)
}

// APIError covers every other non-2xx response from the hosting service.
type APIError struct {
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("deploy to %s failed: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("deploy to %s failed: status %d: %s", e.URL, e.Status, e.Body)
}
