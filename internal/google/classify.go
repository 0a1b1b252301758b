package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/teemow/workspace-mcp/internal/auth"
)

// tokenErrorResponse is the RFC 6749 error body Google returns from its
// token endpoint.
type tokenErrorResponse struct {
	ErrorCode string `json:"error"`
}

// classify maps a token-endpoint failure onto the credential error
// taxonomy. The distinction that matters is whether re-consent would help:
// a revoked or expired refresh token means yes, a network blip means no.
func classify(description string, err error) *auth.Error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		code := rerr.ErrorCode
		if code == "" {
			var body tokenErrorResponse
			if jerr := json.Unmarshal(rerr.Body, &body); jerr == nil {
				code = body.ErrorCode
			}
		}
		switch code {
		case "invalid_grant", "invalid_client", "unauthorized_client":
			return &auth.Error{Code: auth.CodeReauthRequired, Description: description, Err: err}
		}
		if rerr.Response != nil && rerr.Response.StatusCode < http.StatusInternalServerError {
			// Remaining 4xx responses (invalid_request, invalid_scope) will
			// not succeed on retry either.
			return &auth.Error{Code: auth.CodeReauthRequired, Description: description, Err: err}
		}
		return &auth.Error{Code: auth.CodeRefreshTransient, Description: description, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &auth.Error{Code: auth.CodeRefreshTransient, Description: description, Err: err}
	}

	// Transport-level failures (DNS, connection reset, TLS) surface as
	// plain errors from the HTTP client.
	return &auth.Error{Code: auth.CodeRefreshTransient, Description: description, Err: err}
}
