// Package cooldown tracks legendary animal species that were recently hunted
// and releases them once their cooldown runs out.
package cooldown

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/dukerupert/fmewatch/internal/clock"
	"github.com/dukerupert/fmewatch/internal/model"
)

const (
	// DefaultDuration is how long a species stays greyed out.
	DefaultDuration = 72 * time.Hour
	// DefaultSweepInterval is how often expired cooldowns are released.
	DefaultSweepInterval = 2 * time.Second
)

// Change actions passed to the OnChange callback.
const (
	ActionStarted = "started"
	ActionCleared = "cleared"
	ActionExpired = "expired"
)

var ErrInvalidSpecies = errors.New("invalid species")

var speciesPattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Store persists cooldowns.
type Store interface {
	Start(species string, now time.Time, d time.Duration) (model.Cooldown, error)
	Active(now time.Time) ([]model.Cooldown, error)
	Delete(species string) (bool, error)
	DeleteExpired(now time.Time) ([]model.Cooldown, error)
}

// Manager marks species and runs the expiry sweeper.
type Manager struct {
	store    Store
	clock    clock.Clock
	duration time.Duration
	interval time.Duration
	onChange func(action string, c model.Cooldown)
	logger   *slog.Logger

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a manager. onChange may be nil.
func NewManager(store Store, c clock.Clock, onChange func(action string, c model.Cooldown), logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		clock:    c,
		duration: DefaultDuration,
		interval: DefaultSweepInterval,
		onChange: onChange,
		logger:   logger,
	}
}

// Mark starts the cooldown for species, restarting it if already running.
func (m *Manager) Mark(species string) (model.Cooldown, error) {
	if !speciesPattern.MatchString(species) {
		return model.Cooldown{}, ErrInvalidSpecies
	}
	c, err := m.store.Start(species, m.clock.Now(), m.duration)
	if err != nil {
		return model.Cooldown{}, err
	}
	m.changed(ActionStarted, c)
	return c, nil
}

// Clear ends the cooldown for species early.
func (m *Manager) Clear(species string) (bool, error) {
	if !speciesPattern.MatchString(species) {
		return false, ErrInvalidSpecies
	}
	ok, err := m.store.Delete(species)
	if err != nil || !ok {
		return ok, err
	}
	m.changed(ActionCleared, model.Cooldown{Species: species})
	return true, nil
}

// Active lists the running cooldowns.
func (m *Manager) Active() ([]model.Cooldown, error) {
	return m.store.Active(m.clock.Now())
}

// Sweep releases every expired cooldown.
func (m *Manager) Sweep() ([]model.Cooldown, error) {
	expired, err := m.store.DeleteExpired(m.clock.Now())
	if err != nil {
		return nil, err
	}
	for _, c := range expired {
		m.logger.Info("cooldown expired", "species", c.Species)
		m.changed(ActionExpired, c)
	}
	return expired, nil
}

// Start runs the sweeper until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Sweep(); err != nil {
					m.logger.Error("sweep cooldowns", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the sweeper.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) changed(action string, c model.Cooldown) {
	if m.onChange != nil {
		m.onChange(action, c)
	}
}
