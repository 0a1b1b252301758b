package calendar_tools

import (
	"testing"
	"time"
)

func TestCalendarIDFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"explicit", map[string]interface{}{"calendarId": "team@example.com"}, "team@example.com"},
		{"empty string", map[string]interface{}{"calendarId": ""}, "primary"},
		{"missing", map[string]interface{}{}, "primary"},
		{"wrong type", map[string]interface{}{"calendarId": 42}, "primary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calendarIDFromArgs(tt.args); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTimeArg(t *testing.T) {
	args := map[string]interface{}{
		"timeMin": "2026-01-15T14:00:00Z",
		"bad":     "not-a-time",
	}

	got, err := parseTimeArg(args, "timeMin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := parseTimeArg(args, "bad"); err == nil {
		t.Error("expected error for invalid time")
	}
	if _, err := parseTimeArg(args, "missing"); err == nil {
		t.Error("expected error for missing argument")
	}
}
