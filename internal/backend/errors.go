package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrRefreshInProgress is returned to a call that hit 401 while another
	// call is already refreshing the token. The call is not retried.
	ErrRefreshInProgress = errors.New("token refresh already in progress")
	ErrSessionExpired    = errors.New("session expired")
	ErrNoRefreshToken    = errors.New("no refresh token stored")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

// newAPIError pulls a readable message out of whatever error body the
// backend sent: {"detail": "..."}, {"detail": [{"msg": "..."}]},
// {"message": "..."} or {"error": "..."}.
func newAPIError(status int, body []byte) *APIError {
	msg := ""
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		for _, path := range []string{"detail", "detail.0.msg", "message", "error"} {
			if v := res.Get(path); v.Type == gjson.String && v.String() != "" {
				msg = v.String()
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// HumanMessage maps an error onto the string a store shows the user.
func HumanMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out, please try again"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrNoRefreshToken):
		return "session expired, please reopen the app"
	case errors.Is(err, ErrRefreshInProgress):
		return "session is being renewed, please retry"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return "something went wrong, please try again"
	}
}
