package google

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"

	"github.com/teemow/workspace-mcp/internal/auth"
)

func retrieveError(status int, body string) *oauth2.RetrieveError {
	return &oauth2.RetrieveError{
		Response: &http.Response{StatusCode: status},
		Body:     []byte(body),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want auth.Code
	}{
		{
			name: "invalid_grant means the refresh token is dead",
			err:  retrieveError(http.StatusBadRequest, `{"error": "invalid_grant"}`),
			want: auth.CodeReauthRequired,
		},
		{
			name: "unauthorized_client",
			err:  retrieveError(http.StatusUnauthorized, `{"error": "unauthorized_client"}`),
			want: auth.CodeReauthRequired,
		},
		{
			name: "other 4xx will not succeed on retry",
			err:  retrieveError(http.StatusBadRequest, `{"error": "invalid_scope"}`),
			want: auth.CodeReauthRequired,
		},
		{
			name: "5xx is retryable",
			err:  retrieveError(http.StatusServiceUnavailable, ``),
			want: auth.CodeRefreshTransient,
		},
		{
			name: "deadline exceeded is retryable",
			err:  context.DeadlineExceeded,
			want: auth.CodeRefreshTransient,
		},
		{
			name: "plain transport error is retryable",
			err:  errors.New("dial tcp: connection refused"),
			want: auth.CodeRefreshTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("test", tt.err)
			assert.Equal(t, tt.want, got.Code)
			assert.True(t, errors.Is(got, tt.err))
		})
	}
}

func TestClassifyErrorCodeFromStructField(t *testing.T) {
	err := &oauth2.RetrieveError{
		Response:  &http.Response{StatusCode: http.StatusBadRequest},
		ErrorCode: "invalid_grant",
	}
	assert.Equal(t, auth.CodeReauthRequired, classify("test", err).Code)
}
