package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail Users service.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client that authenticates every request
// through the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// Search lists messages matching a Gmail query, fetching metadata for up
// to maxResults messages across pages.
func (c *Client) Search(query string, maxResults int64) ([]MessageSummary, error) {
	if maxResults <= 0 {
		maxResults = 25
	}

	var ids []string
	pageToken := ""
	for int64(len(ids)) < maxResults {
		pageSize := maxResults - int64(len(ids))
		if pageSize > 100 {
			pageSize = 100
		}

		req := c.svc.Messages.List("me").Q(query).MaxResults(pageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to search messages: %w", err)
		}

		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}
	if int64(len(ids)) > maxResults {
		ids = ids[:maxResults]
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		msg, err := c.svc.Messages.Get("me", id).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", id, err)
		}
		summaries = append(summaries, toMessageSummary(msg))
	}
	return summaries, nil
}

// GetMessage retrieves a full message, including its decoded body.
func (c *Client) GetMessage(messageID string) (*MessageContent, error) {
	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	content := toMessageContent(msg)
	return &content, nil
}

// SendEmail sends an email and returns the message ID Gmail assigned.
func (c *Client) SendEmail(msg *EmailMessage) (string, error) {
	raw, err := buildRawMessage(msg)
	if err != nil {
		return "", err
	}

	sent, err := c.svc.Messages.Send("me", &gmail.Message{Raw: raw}).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// CreateDraft creates a draft and returns its ID.
func (c *Client) CreateDraft(msg *EmailMessage) (string, error) {
	raw, err := buildRawMessage(msg)
	if err != nil {
		return "", err
	}

	draft, err := c.svc.Drafts.Create("me", &gmail.Draft{
		Message: &gmail.Message{Raw: raw},
	}).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return draft.Id, nil
}

// ListLabels lists the user's labels.
func (c *Client) ListLabels() ([]LabelInfo, error) {
	res, err := c.svc.Labels.List("me").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]LabelInfo, 0, len(res.Labels))
	for _, l := range res.Labels {
		labels = append(labels, LabelInfo{
			ID:   l.Id,
			Name: l.Name,
			Type: l.Type,
		})
	}
	return labels, nil
}
