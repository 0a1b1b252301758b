package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// EmailMessage is an outgoing email.
type EmailMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	IsHTML  bool
}

// MessageSummary is a message as returned by Search: headers only.
type MessageSummary struct {
	ID      string
	From    string
	To      string
	Subject string
	Date    string
	Snippet string
}

// MessageContent is a full message including its decoded body.
type MessageContent struct {
	MessageSummary
	Body string
}

// LabelInfo describes a Gmail label.
type LabelInfo struct {
	ID   string
	Name string
	Type string // "system" or "user"
}

// buildRawMessage assembles an RFC 2822 message and encodes it base64url
// as the Gmail API requires.
func buildRawMessage(msg *EmailMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if msg.Body == "" {
		return "", fmt.Errorf("body is required")
	}

	var b strings.Builder
	b.WriteString("To: ")
	b.WriteString(strings.Join(msg.To, ", "))
	b.WriteString("\r\n")
	if len(msg.Cc) > 0 {
		b.WriteString("Cc: ")
		b.WriteString(strings.Join(msg.Cc, ", "))
		b.WriteString("\r\n")
	}
	if len(msg.Bcc) > 0 {
		b.WriteString("Bcc: ")
		b.WriteString(strings.Join(msg.Bcc, ", "))
		b.WriteString("\r\n")
	}
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")
	if msg.IsHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

// encodeRFC2047 encodes a header value per RFC 2047. Needed for non-ASCII
// characters (like umlauts) in subjects; plain ASCII passes through.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

func toMessageSummary(msg *gmail.Message) MessageSummary {
	if msg == nil {
		return MessageSummary{}
	}
	summary := MessageSummary{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				summary.From = h.Value
			case "To":
				summary.To = h.Value
			case "Subject":
				summary.Subject = h.Value
			case "Date":
				summary.Date = h.Value
			}
		}
	}
	return summary
}

func toMessageContent(msg *gmail.Message) MessageContent {
	content := MessageContent{MessageSummary: toMessageSummary(msg)}
	if msg != nil && msg.Payload != nil {
		content.Body = extractBody(msg.Payload)
	}
	return content
}

// extractBody walks the MIME tree and returns the first text/plain part,
// falling back to text/html.
func extractBody(part *gmail.MessagePart) string {
	if body := findPart(part, "text/plain"); body != "" {
		return body
	}
	return findPart(part, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}
