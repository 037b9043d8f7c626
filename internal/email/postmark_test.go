package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/fmewatch/internal/fme"
)

func TestNotify(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "posse@example.com", WithEndpoint(server.URL), WithHTTPClient(server.Client()))

	err := client.Notify(context.Background(), fme.Notification{
		Title: "Fool's Gold",
		Body:  "Fool's Gold starts in 10 minutes",
		Icon:  "/img/fme_fools_gold.png",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "posse@example.com" || received.From != "noreply@example.com" {
		t.Errorf("To/From = %q/%q", received.To, received.From)
	}
	if received.Subject != "Fool's Gold" || received.TextBody != "Fool's Gold starts in 10 minutes" {
		t.Errorf("Subject/TextBody = %q/%q", received.Subject, received.TextBody)
	}
	if !strings.Contains(received.HtmlBody, "Fool&#39;s Gold") {
		t.Errorf("HtmlBody not escaped: %q", received.HtmlBody)
	}
	if !strings.Contains(received.HtmlBody, `src="/img/fme_fools_gold.png"`) {
		t.Errorf("HtmlBody missing icon: %q", received.HtmlBody)
	}
}

func TestNotifyAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "posse@example.com", WithEndpoint(server.URL))
	if err := client.Notify(context.Background(), fme.Notification{Title: "x", Body: "y"}); err == nil {
		t.Fatal("expected error for 422 response")
	}
}

func TestPermission(t *testing.T) {
	tests := []struct {
		name   string
		client *Client
		want   fme.Permission
	}{
		{"configured", NewClient("tok", "from@example.com", "to@example.com"), fme.PermissionGranted},
		{"no token", NewClient("", "from@example.com", "to@example.com"), fme.PermissionUnavailable},
		{"no recipient", NewClient("tok", "from@example.com", ""), fme.PermissionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.Permission(); got != tt.want {
				t.Errorf("Permission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotifyNotConfigured(t *testing.T) {
	client := NewClient("", "", "")
	if err := client.Notify(context.Background(), fme.Notification{Title: "x"}); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}
