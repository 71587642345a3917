package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The error taxonomy for a gateway round trip. Every failure a turn can
// see from the gateway is one of these four; the turn boundary matches
// them with errors.As and converts to a single user-visible message.

// TransportError means the gateway was never reached: network
// unreachable, DNS failure, or transport timeout. Recoverable by user
// resubmission.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError means the gateway was reached but reported failure with
// a non-success status code.
type UpstreamError struct {
	StatusCode int
	RawBody    string
}

func (e *UpstreamError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, detail)
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

// Detail extracts the server-provided diagnostic from the raw body,
// when the gateway included an {error} or {body} field.
func (e *UpstreamError) Detail() string {
	var diag struct {
		Error json.RawMessage `json:"error"`
		Body  string          `json:"body"`
	}
	if err := json.Unmarshal([]byte(e.RawBody), &diag); err != nil {
		return ""
	}
	if len(diag.Error) > 0 {
		var s string
		if err := json.Unmarshal(diag.Error, &s); err == nil {
			return s
		}
		return string(diag.Error)
	}
	return strings.TrimSpace(diag.Body)
}

// MalformedResponseError means the gateway answered with a success
// status but the body is not the expected JSON envelope. A contract
// violation, logged as an anomaly but recoverable.
type MalformedResponseError struct {
	RawBody string
}

func (e *MalformedResponseError) Error() string {
	return "gateway response is not a valid reply envelope"
}

// EmptyReplyError means the envelope parsed but carries no
// choices[0].message.content.
type EmptyReplyError struct{}

func (e *EmptyReplyError) Error() string {
	return "gateway reply contains no message content"
}
