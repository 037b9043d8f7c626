package fme

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tolerance is the half-width of the band around the lead time in which a
// notification may fire. It must cover at least one poll interval.
const Tolerance = 20 * time.Second

// Permission is the notification capability a sink currently has.
type Permission int

const (
	PermissionUnavailable Permission = iota
	PermissionDenied
	PermissionGranted
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unavailable"
	}
}

// Notification is the request handed to a Sink.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Lang  string `json:"lang,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Sink delivers notifications to the user.
type Sink interface {
	Permission() Permission
	Notify(ctx context.Context, n Notification) error
}

// DowngradeReason explains why notifications were switched off. The values
// double as help keys for the settings UI.
type DowngradeReason string

const (
	ReasonNoSupport DowngradeReason = "fme_notification.no_support"
	ReasonDenied    DowngradeReason = "fme_notification.denied"
)

// Record is the set of occurrence keys that already produced a notification
// attempt. It only grows.
type Record struct {
	keys map[string]struct{}
}

func NewRecord() *Record {
	return &Record{keys: make(map[string]struct{})}
}

func (r *Record) Has(key string) bool {
	_, ok := r.keys[key]
	return ok
}

// Add records key and reports whether it was new.
func (r *Record) Add(key string) bool {
	if r.Has(key) {
		return false
	}
	r.keys[key] = struct{}{}
	return true
}

func (r *Record) Len() int { return len(r.keys) }

// Action describes one notification attempt.
type Action struct {
	Key          string
	Notification Notification
	Dispatched   bool
	Err          error
}

// InBand reports whether eta lies in [lead-Tolerance, lead+Tolerance).
func InBand(eta, lead time.Duration) bool {
	return eta >= lead-Tolerance && eta < lead+Tolerance
}

// Notifier decides per tick whether an occurrence should produce a
// notification and dispatches it at most once.
type Notifier struct {
	mu          sync.Mutex
	sink        Sink
	record      *Record
	messages    Messages
	onDowngrade func(DowngradeReason)
	downgraded  bool
	reason      DowngradeReason
	logger      *slog.Logger
}

// NewNotifier creates a Notifier. onDowngrade is called when the sink turns
// out to be unusable so the host can switch the feature off; it may be nil
// and must not call back into the Notifier.
func NewNotifier(sink Sink, messages Messages, onDowngrade func(DowngradeReason), logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sink:        sink,
		record:      NewRecord(),
		messages:    messages,
		onDowngrade: onDowngrade,
		logger:      logger,
	}
}

// CheckPermission downgrades immediately when the sink is already known to
// be unusable. It is called once at startup.
func (n *Notifier) CheckPermission() {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.permissionLocked() {
	case PermissionUnavailable:
		n.downgradeLocked(ReasonNoSupport)
	case PermissionDenied:
		n.downgradeLocked(ReasonDenied)
	}
}

// Permission reports the sink's current permission.
func (n *Notifier) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permissionLocked()
}

// Downgraded reports whether notifications are switched off for the session
// and why.
func (n *Notifier) Downgraded() (bool, DowngradeReason) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.downgraded, n.reason
}

// Reenable lifts a downgrade. Only explicit user action should call it.
func (n *Notifier) Reenable() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.downgraded = false
	n.reason = ""
}

// Sent returns how many occurrences have been recorded.
func (n *Notifier) Sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.record.Len()
}

// MaybeNotify fires a notification for occ when it is enabled, not yet
// recorded and its eta is inside the lead-time band. Once the band check
// passes the key is recorded whatever the sink does, so a failed delivery is
// never retried. The sink is called without holding the notifier lock.
func (n *Notifier) MaybeNotify(ctx context.Context, occ Occurrence, cfg Config) (Action, bool) {
	action, send, ok := n.claim(occ, cfg)
	if !ok || !send {
		return action, ok
	}

	if err := n.dispatch(ctx, action.Notification); err != nil {
		action.Err = err
		n.logger.Warn("notification dispatch failed", "key", action.Key, "error", err)
		n.mu.Lock()
		n.downgradeLocked(ReasonDenied)
		n.mu.Unlock()
		return action, true
	}
	action.Dispatched = true
	return action, true
}

// claim runs the checks under the lock and records the key. send is false
// when the sink is not granted; the notifier is then already downgraded.
func (n *Notifier) claim(occ Occurrence, cfg Config) (action Action, send, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !cfg.NotificationsEnabled || n.downgraded {
		return Action{}, false, false
	}
	if !cfg.Enabled.Enabled(occ.ID) {
		return Action{}, false, false
	}

	perm := n.permissionLocked()
	if perm == PermissionUnavailable {
		n.downgradeLocked(ReasonNoSupport)
		return Action{}, false, false
	}

	key := occ.Key()
	if n.record.Has(key) {
		return Action{}, false, false
	}
	if !InBand(occ.Eta, cfg.LeadTime) {
		return Action{}, false, false
	}

	n.record.Add(key)
	action = Action{
		Key: key,
		Notification: Notification{
			Title: occ.Name,
			Body:  n.messages.notificationBody(occ.Name, occ.EtaText),
			Icon:  occ.ImageRef,
			Lang:  cfg.Language,
			Tag:   key,
		},
	}
	if perm != PermissionGranted {
		n.downgradeLocked(ReasonDenied)
		return action, false, true
	}
	return action, true, true
}

func (n *Notifier) dispatch(ctx context.Context, notif Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification sink panic: %v", r)
		}
	}()
	return n.sink.Notify(ctx, notif)
}

func (n *Notifier) permissionLocked() Permission {
	if n.sink == nil {
		return PermissionUnavailable
	}
	return n.sink.Permission()
}

func (n *Notifier) downgradeLocked(reason DowngradeReason) {
	if n.downgraded {
		return
	}
	n.downgraded = true
	n.reason = reason
	n.logger.Info("notifications disabled", "reason", string(reason))
	if n.onDowngrade != nil {
		n.onDowngrade(reason)
	}
}
