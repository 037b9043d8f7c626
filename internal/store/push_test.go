package store

import (
	"testing"

	"github.com/dukerupert/fmewatch/internal/database"
)

func setupPushTestDB(t *testing.T) *PushStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db)
}

func TestCreateSubscription(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, err := ps.CreateSubscription("https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps := setupPushTestDB(t)

	first, err := ps.CreateSubscription("https://push.example.com/sub1", "old", "old", "Phone")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := ps.CreateSubscription("https://push.example.com/sub1", "new", "new", "Phone")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert changed id: %d -> %d", first.ID, second.ID)
	}
	if second.P256dhKey != "new" || second.AuthKey != "new" {
		t.Errorf("keys not refreshed: %+v", second)
	}

	subs, _ := ps.List()
	if len(subs) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(subs))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, err := ps.GetByID(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub != nil {
		t.Errorf("expected nil, got %+v", sub)
	}
}

func TestDeleteSubscription(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, _ := ps.CreateSubscription("https://push.example.com/sub1", "k", "a", "")
	ps.CreateSubscription("https://push.example.com/sub2", "k", "a", "")

	deleted, err := ps.DeleteSubscription(sub.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("expected deleted = true")
	}

	deleted, _ = ps.DeleteSubscription(sub.ID)
	if deleted {
		t.Error("second delete reported a row")
	}

	if err := ps.DeleteByEndpoint("https://push.example.com/sub2"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, _ := ps.List()
	if len(subs) != 0 {
		t.Errorf("subscriptions = %d, want 0", len(subs))
	}
}
