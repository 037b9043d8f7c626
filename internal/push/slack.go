package push

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/dukerupert/fmewatch/internal/fme"
)

// SlackSink posts event notifications to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	username   string
}

func NewSlackSink(webhookURL string) *SlackSink {
	return &SlackSink{
		webhookURL: webhookURL,
		username:   "fmewatch",
	}
}

func (s *SlackSink) Permission() fme.Permission {
	if s.webhookURL == "" {
		return fme.PermissionUnavailable
	}
	return fme.PermissionGranted
}

func (s *SlackSink) Notify(ctx context.Context, n fme.Notification) error {
	msg := &slack.WebhookMessage{
		Username: s.username,
		Text:     n.Body,
		Attachments: []slack.Attachment{
			{
				Fallback: n.Body,
				Title:    n.Title,
				Text:     n.Body,
				ThumbURL: n.Icon,
				Footer:   n.Tag,
			},
		},
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
