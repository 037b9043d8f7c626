package push

import (
	"context"
	"errors"

	"github.com/dukerupert/fmewatch/internal/fme"
)

// MultiSink fans a notification out to several sinks.
type MultiSink struct {
	sinks []fme.Sink
}

func NewMultiSink(sinks ...fme.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Permission is granted if any member is granted, denied if none is granted
// but one is denied, otherwise unavailable.
func (m *MultiSink) Permission() fme.Permission {
	perm := fme.PermissionUnavailable
	for _, s := range m.sinks {
		switch s.Permission() {
		case fme.PermissionGranted:
			return fme.PermissionGranted
		case fme.PermissionDenied:
			perm = fme.PermissionDenied
		}
	}
	return perm
}

// Notify delivers to every granted member. It fails only when all of them
// failed.
func (m *MultiSink) Notify(ctx context.Context, n fme.Notification) error {
	var errs []error
	granted := 0
	for _, s := range m.sinks {
		if s.Permission() != fme.PermissionGranted {
			continue
		}
		granted++
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	if granted > 0 && len(errs) == granted {
		return errors.Join(errs...)
	}
	return nil
}
