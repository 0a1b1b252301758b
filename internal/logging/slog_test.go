package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "empty token", token: "", want: "<empty>"},
		{name: "short token", token: "abc", want: "[token:3 chars]"},
		{name: "long token", token: strings.Repeat("x", 64), want: "[token:64 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.want {
				t.Errorf("SanitizeToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrNilIsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("message", Err(nil))

	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error must not produce an error attribute, got %q", buf.String())
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithOperation(logger, "resolve").Info("done", Status(StatusSuccess))

	out := buf.String()
	if !strings.Contains(out, "operation=resolve") {
		t.Errorf("missing operation attribute in %q", out)
	}
	if !strings.Contains(out, "status=success") {
		t.Errorf("missing status attribute in %q", out)
	}
}
