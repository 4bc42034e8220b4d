package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error codes the platform uses in error payloads. Codes are stable API;
// message text is not.
const (
	CodeInvalidCredentials  = "invalid_credentials"
	CodeInviteInvalid       = "invite_invalid"
	CodeMFACodeInvalid      = "mfa_code_invalid"
	CodeMFAChallengeExpired = "mfa_challenge_expired"
	CodeMFANotEnabled       = "mfa_not_enabled"
	CodeMFASetupNotPending  = "mfa_setup_not_pending"
	CodeValidationFailed    = "validation_failed"
)

const maxErrorBody = 64 << 10

// Error is a decoded non-2xx response.
type Error struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the response was the 401 the refresh
// protocol reacts to.
func (e *Error) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Nested  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeError drains a non-2xx response into an [*Error]. Bodies that are
// not the platform's error shape still produce a usable status-only error.
func decodeError(resp *http.Response) *Error {
	out := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return out
	}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return out
	}
	if payload.Nested != nil {
		out.Code = payload.Nested.Code
		out.Message = payload.Nested.Message
		return out
	}
	out.Code = payload.Code
	out.Message = payload.Message
	return out
}
