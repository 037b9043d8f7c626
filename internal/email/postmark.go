package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/dukerupert/fmewatch/internal/fme"
)

const defaultEndpoint = "https://api.postmarkapp.com/email"

// Client sends event notifications through the Postmark email API. It
// satisfies fme.Sink.
type Client struct {
	serverToken string
	fromEmail   string
	toEmail     string
	endpoint    string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithEndpoint overrides the Postmark API URL.
func WithEndpoint(url string) Option {
	return func(cl *Client) {
		cl.endpoint = url
	}
}

func NewClient(serverToken, fromEmail, toEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		toEmail:     toEmail,
		endpoint:    defaultEndpoint,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the token and both addresses are set.
func (c *Client) Configured() bool {
	return c.serverToken != "" && c.fromEmail != "" && c.toEmail != ""
}

func (c *Client) Permission() fme.Permission {
	if !c.Configured() {
		return fme.PermissionUnavailable
	}
	return fme.PermissionGranted
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

// Notify emails n to the configured recipient.
func (c *Client) Notify(ctx context.Context, n fme.Notification) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured")
	}

	htmlBody := fmt.Sprintf("<p><strong>%s</strong></p><p>%s</p>", html.EscapeString(n.Title), html.EscapeString(n.Body))
	if n.Icon != "" {
		htmlBody = fmt.Sprintf(`<p><img src="%s" alt="" width="64" height="64"></p>`, html.EscapeString(n.Icon)) + htmlBody
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       c.toEmail,
		Subject:  n.Title,
		HtmlBody: htmlBody,
		TextBody: n.Body,
		Tag:      "fme",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
