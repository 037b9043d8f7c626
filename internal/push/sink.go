package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/fmewatch/internal/fme"
	"github.com/dukerupert/fmewatch/internal/model"
)

// SubscriptionStore is the part of the push store the sink needs.
type SubscriptionStore interface {
	List() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

// WebPushSink delivers event notifications to every stored browser
// subscription.
type WebPushSink struct {
	service *Service
	subs    SubscriptionStore
	logger  *slog.Logger
}

func NewWebPushSink(service *Service, subs SubscriptionStore, logger *slog.Logger) *WebPushSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebPushSink{service: service, subs: subs, logger: logger}
}

// Permission is unavailable without VAPID keys. Browsers grant or deny per
// subscription, so a configured service counts as granted.
func (s *WebPushSink) Permission() fme.Permission {
	if !s.service.Configured() {
		return fme.PermissionUnavailable
	}
	return fme.PermissionGranted
}

// Notify sends n to every subscription. Expired subscriptions are removed
// and do not count as failures. An error is returned only when no
// subscription accepted the notification and at least one live one failed.
func (s *WebPushSink) Notify(ctx context.Context, n fme.Notification) error {
	subs, err := s.subs.List()
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload := Payload{
		Title: n.Title,
		Body:  n.Body,
		Icon:  n.Icon,
		Lang:  n.Lang,
		URL:   "/",
		Tag:   n.Tag,
	}

	var errs []error
	delivered := 0
	for i := range subs {
		sub := &subs[i]
		err := s.service.Send(ctx, sub, payload)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrExpired):
			s.logger.Info("removing expired subscription", "id", sub.ID)
			if err := s.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				s.logger.Error("delete expired subscription", "id", sub.ID, "error", err)
			}
		default:
			errs = append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
		}
	}

	if delivered == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		s.logger.Warn("push delivery failed", "error", err)
	}
	return nil
}
