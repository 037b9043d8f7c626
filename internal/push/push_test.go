package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dukerupert/fmewatch/internal/fme"
	"github.com/dukerupert/fmewatch/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}
	return NewService(Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv})
}

// browserSubscription returns a subscription with valid client keys pointing
// at endpoint.
func browserSubscription(t *testing.T, id int64, endpoint string) model.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatalf("generate auth: %v", err)
	}
	return model.PushSubscription{
		ID:        id,
		Endpoint:  endpoint,
		P256dhKey: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		AuthKey:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func pushServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("missing VAPID authorization header")
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestServiceConfigured(t *testing.T) {
	if NewService(Config{}).Configured() {
		t.Error("service without keys reported configured")
	}
	if !newTestService(t).Configured() {
		t.Error("service with keys reported unconfigured")
	}
}

func TestServiceSend(t *testing.T) {
	svc := newTestService(t)

	ok := pushServer(t, http.StatusCreated)
	sub := browserSubscription(t, 1, ok.URL)
	if err := svc.Send(context.Background(), &sub, Payload{Title: "Fool's Gold", Body: "starts soon"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	gone := pushServer(t, http.StatusGone)
	sub = browserSubscription(t, 2, gone.URL)
	if err := svc.Send(context.Background(), &sub, Payload{Title: "x"}); !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}

	failing := pushServer(t, http.StatusInternalServerError)
	sub = browserSubscription(t, 3, failing.URL)
	if err := svc.Send(context.Background(), &sub, Payload{Title: "x"}); err == nil {
		t.Error("expected error for 500")
	}
}

type memorySubscriptions struct {
	mu      sync.Mutex
	subs    []model.PushSubscription
	deleted []string
}

func (m *memorySubscriptions) List() ([]model.PushSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PushSubscription(nil), m.subs...), nil
}

func (m *memorySubscriptions) DeleteByEndpoint(endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, endpoint)
	return nil
}

func TestWebPushSinkPermission(t *testing.T) {
	subs := &memorySubscriptions{}
	if p := NewWebPushSink(NewService(Config{}), subs, nil).Permission(); p != fme.PermissionUnavailable {
		t.Errorf("permission without keys = %v", p)
	}
	if p := NewWebPushSink(newTestService(t), subs, nil).Permission(); p != fme.PermissionGranted {
		t.Errorf("permission with keys = %v", p)
	}
}

func TestWebPushSinkNotify(t *testing.T) {
	svc := newTestService(t)
	ok := pushServer(t, http.StatusCreated)
	gone := pushServer(t, http.StatusGone)

	subs := &memorySubscriptions{subs: []model.PushSubscription{
		browserSubscription(t, 1, ok.URL),
		browserSubscription(t, 2, gone.URL),
	}}
	sink := NewWebPushSink(svc, subs, nil)

	if err := sink.Notify(context.Background(), fme.Notification{Title: "Fool's Gold", Body: "Fool's Gold starts in 10 minutes"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(subs.deleted) != 1 || subs.deleted[0] != gone.URL {
		t.Errorf("deleted = %v, want the expired endpoint", subs.deleted)
	}
}

func TestWebPushSinkNotifyAllFailed(t *testing.T) {
	svc := newTestService(t)
	failing := pushServer(t, http.StatusInternalServerError)

	subs := &memorySubscriptions{subs: []model.PushSubscription{browserSubscription(t, 1, failing.URL)}}
	sink := NewWebPushSink(svc, subs, nil)

	if err := sink.Notify(context.Background(), fme.Notification{Title: "x"}); err == nil {
		t.Error("expected error when every delivery failed")
	}
}

func TestWebPushSinkNotifyOnlyExpired(t *testing.T) {
	gone := pushServer(t, http.StatusGone)
	subs := &memorySubscriptions{subs: []model.PushSubscription{browserSubscription(t, 1, gone.URL)}}
	sink := NewWebPushSink(newTestService(t), subs, nil)

	if err := sink.Notify(context.Background(), fme.Notification{Title: "x"}); err != nil {
		t.Errorf("notify with a single expired subscription: %v", err)
	}
	if len(subs.deleted) != 1 {
		t.Errorf("deleted = %v, want the expired endpoint", subs.deleted)
	}
}

func TestWebPushSinkNotifyExpiredAndFailed(t *testing.T) {
	gone := pushServer(t, http.StatusGone)
	failing := pushServer(t, http.StatusInternalServerError)
	subs := &memorySubscriptions{subs: []model.PushSubscription{
		browserSubscription(t, 1, gone.URL),
		browserSubscription(t, 2, failing.URL),
	}}
	sink := NewWebPushSink(newTestService(t), subs, nil)

	if err := sink.Notify(context.Background(), fme.Notification{Title: "x"}); err == nil {
		t.Error("expected error when the only live subscription failed")
	}
}

func TestWebPushSinkNoSubscriptions(t *testing.T) {
	sink := NewWebPushSink(newTestService(t), &memorySubscriptions{}, nil)
	if err := sink.Notify(context.Background(), fme.Notification{Title: "x"}); err != nil {
		t.Errorf("notify without subscriptions: %v", err)
	}
}
