package external

import (
	"errors"
	"fmt"
	"net/url"
)

// TransportError reports that the HTTP exchange with the Send API could not be
// completed: a connection failure, a timeout, or a response body that was not
// a JSON object.
type TransportError struct {
	// StatusCode is the HTTP status when a response arrived, 0 otherwise.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("messenger transport failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("messenger transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteAPIError is the error envelope returned by the Send API:
//
//	{"error": {"message": "...", "type": "OAuthException", "code": 190,
//	           "error_subcode": 460, "fbtrace_id": "..."}}
type RemoteAPIError struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	FBTraceID  string `json:"fbtrace_id"`
	StatusCode int    `json:"-"`
}

func (e *RemoteAPIError) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("messenger API error %d/%d: %s", e.Code, e.Subcode, e.Message)
	}
	return fmt.Sprintf("messenger API error %d: %s", e.Code, e.Message)
}

// Platform error codes that signal throttling rather than a rejected message.
const (
	codeAPITooManyCalls   = 4
	codeUserRequestLimit  = 17
	codeAppRequestLimit   = 32
	codeCallsLimitReached = 613
)

// RateLimited reports whether the platform refused the call because a
// request quota was exhausted.
func (e *RemoteAPIError) RateLimited() bool {
	switch e.Code {
	case codeAPITooManyCalls, codeUserRequestLimit, codeAppRequestLimit, codeCallsLimitReached:
		return true
	}
	return false
}

// IsRateLimited reports whether err is, or wraps, a throttling *RemoteAPIError.
func IsRateLimited(err error) bool {
	var re *RemoteAPIError
	return errors.As(err, &re) && re.RateLimited()
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRemote reports whether err is, or wraps, a *RemoteAPIError.
func IsRemote(err error) bool {
	var re *RemoteAPIError
	return errors.As(err, &re)
}

// redactURLError strips the query string from a *url.Error so the access
// token never reaches logs or error responses.
func redactURLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	redacted := *ue
	if u, parseErr := url.Parse(ue.URL); parseErr == nil {
		u.RawQuery = ""
		redacted.URL = u.String()
	} else {
		redacted.URL = "<redacted>"
	}
	return &redacted
}
