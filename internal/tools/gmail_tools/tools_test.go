package gmail_tools

import (
	"reflect"
	"testing"
)

func TestSplitAddresses(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", "alice@example.com", []string{"alice@example.com"}},
		{"multiple with spaces", "a@example.com, b@example.com ,c@example.com", []string{"a@example.com", "b@example.com", "c@example.com"}},
		{"empty", "", nil},
		{"only commas", ",,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAddresses(tt.raw)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageFromArgs(t *testing.T) {
	args := map[string]interface{}{
		"to":      "alice@example.com, bob@example.com",
		"cc":      "carol@example.com",
		"subject": "Weekly sync",
		"body":    "Agenda attached.",
		"isHtml":  false,
	}

	msg, err := messageFromArgs(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.To) != 2 || msg.To[0] != "alice@example.com" {
		t.Errorf("unexpected To: %v", msg.To)
	}
	if len(msg.Cc) != 1 || msg.Cc[0] != "carol@example.com" {
		t.Errorf("unexpected Cc: %v", msg.Cc)
	}
	if msg.Subject != "Weekly sync" || msg.Body != "Agenda attached." {
		t.Errorf("unexpected content: %+v", msg)
	}
	if msg.IsHTML {
		t.Error("expected plain text message")
	}
}

func TestMessageFromArgs_Validation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing to", map[string]interface{}{"subject": "s", "body": "b"}},
		{"missing subject", map[string]interface{}{"to": "a@example.com", "body": "b"}},
		{"missing body", map[string]interface{}{"to": "a@example.com", "subject": "s"}},
		{"empty to", map[string]interface{}{"to": " , ", "subject": "s", "body": "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := messageFromArgs(tt.args); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
