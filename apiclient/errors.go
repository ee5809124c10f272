package apiclient

import "fmt"

// HTTPError is a backend rejection: the request completed but the status
// was non-success. Callers are expected to special-case 401/403 as
// authorization failures distinct from 404/500.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, string(e.Body))
}

// Message extracts a display message from the error body. JSON bodies with
// a "detail" or "error" field yield that field, anything else the raw body.
func (e *HTTPError) Message() string {
	if msg := jsonField(e.Body, "detail"); msg != "" {
		return msg
	}
	if msg := jsonField(e.Body, "error"); msg != "" {
		return msg
	}
	if len(e.Body) > 0 {
		return string(e.Body)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NetworkError is a transport failure: no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
