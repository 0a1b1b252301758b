package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		encoded bool
	}{
		{"plain ASCII", "Meeting notes", false},
		{"empty", "", false},
		{"German umlauts", "Grüße aus München", true},
		{"emoji", "Party 🎉", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeRFC2047(tt.input)
			if tt.encoded {
				if !strings.HasPrefix(got, "=?UTF-8?") {
					t.Errorf("expected RFC 2047 encoding for %q, got %q", tt.input, got)
				}
			} else if got != tt.input {
				t.Errorf("expected ASCII passthrough for %q, got %q", tt.input, got)
			}
		})
	}
}

func TestBuildRawMessage(t *testing.T) {
	raw, err := buildRawMessage(&EmailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		Cc:      []string{"c@example.com"},
		Subject: "Hello",
		Body:    "Hi there",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw message is not base64url: %v", err)
	}

	text := string(decoded)
	for _, want := range []string{
		"To: a@example.com, b@example.com\r\n",
		"Cc: c@example.com\r\n",
		"Subject: Hello\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n",
		"MIME-Version: 1.0\r\n",
		"\r\n\r\nHi there",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected message to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Bcc:") {
		t.Error("expected no Bcc header when none given")
	}
}

func TestBuildRawMessageHTML(t *testing.T) {
	raw, err := buildRawMessage(&EmailMessage{
		To:      []string{"a@example.com"},
		Subject: "Hello",
		Body:    "<p>Hi</p>",
		IsHTML:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, _ := base64.URLEncoding.DecodeString(raw)
	if !strings.Contains(string(decoded), "Content-Type: text/html") {
		t.Error("expected HTML content type")
	}
}

func TestBuildRawMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		msg  EmailMessage
	}{
		{"no recipient", EmailMessage{Subject: "s", Body: "b"}},
		{"no subject", EmailMessage{To: []string{"a@example.com"}, Body: "b"}},
		{"no body", EmailMessage{To: []string{"a@example.com"}, Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildRawMessage(&tt.msg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestToMessageSummary(t *testing.T) {
	msg := &gmail.Message{
		Id:      "msg-1",
		Snippet: "Hi there",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "sender@example.com"},
				{Name: "To", Value: "rcpt@example.com"},
				{Name: "Subject", Value: "Hello"},
				{Name: "Date", Value: "Mon, 2 Mar 2026 10:00:00 +0000"},
			},
		},
	}

	summary := toMessageSummary(msg)
	if summary.ID != "msg-1" || summary.From != "sender@example.com" || summary.Subject != "Hello" {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if empty := toMessageSummary(nil); empty.ID != "" {
		t.Errorf("expected empty summary for nil message, got %+v", empty)
	}
}

func TestExtractBody(t *testing.T) {
	plain := base64.URLEncoding.EncodeToString([]byte("plain body"))
	html := base64.URLEncoding.EncodeToString([]byte("<p>html body</p>"))

	multipart := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: html}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: plain}},
		},
	}
	if got := extractBody(multipart); got != "plain body" {
		t.Errorf("expected text/plain preferred, got %q", got)
	}

	htmlOnly := &gmail.MessagePart{
		MimeType: "text/html",
		Body:     &gmail.MessagePartBody{Data: html},
	}
	if got := extractBody(htmlOnly); got != "<p>html body</p>" {
		t.Errorf("expected html fallback, got %q", got)
	}

	if got := extractBody(nil); got != "" {
		t.Errorf("expected empty body for nil part, got %q", got)
	}
}
