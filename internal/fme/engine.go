package fme

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/fmewatch/internal/clock"
	"github.com/dukerupert/fmewatch/internal/schedule"
)

// DefaultInterval is how often the engine re-evaluates the schedule.
const DefaultInterval = 10 * time.Second

// Snapshot is the result of one evaluation, pushed to the UI.
type Snapshot struct {
	At                   time.Time `json:"at"`
	Loaded               bool      `json:"loaded"`
	DisplayEnabled       bool      `json:"display_enabled"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	Groups               []Display `json:"groups"`
}

// Group returns the display slot for g.
func (s Snapshot) Group(g schedule.Group) (Display, bool) {
	for _, d := range s.Groups {
		if d.Group == g {
			return d, true
		}
	}
	return Display{}, false
}

// Publisher receives every snapshot.
type Publisher interface {
	Publish(Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Snapshot)

func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// Ticker is the part of time.Ticker the engine uses, so tests can drive the
// loop by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Options tune an Engine. Zero values pick the defaults.
type Options struct {
	Interval     time.Duration
	ImageBaseURL string
	Messages     *Messages
	NewTicker    func(time.Duration) Ticker
}

// Engine owns the schedule table and the notifier and re-evaluates them on a
// fixed interval.
type Engine struct {
	clock     clock.Clock
	config    ConfigSource
	notifier  *Notifier
	publisher Publisher
	logger    *slog.Logger

	interval  time.Duration
	imageBase string
	messages  Messages
	newTicker func(time.Duration) Ticker

	table   atomic.Pointer[schedule.Table]
	refresh chan struct{}

	// tickMu serializes ticks; it is held across sink dispatch.
	tickMu sync.Mutex

	cfgMu      sync.Mutex
	lastConfig Config

	mu     sync.RWMutex
	last   Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates an engine. The schedule table is installed later by Load
// or SetTable; until then ticks evaluate nothing.
func NewEngine(c clock.Clock, cfg ConfigSource, notifier *Notifier, pub Publisher, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.NewTicker == nil {
		opts.NewTicker = newRealTicker
	}
	msgs := DefaultMessages
	if opts.Messages != nil {
		msgs = *opts.Messages
	}
	if notifier == nil {
		notifier = NewNotifier(nil, msgs, nil, logger)
	}

	return &Engine{
		clock:      c,
		config:     cfg,
		notifier:   notifier,
		publisher:  pub,
		logger:     logger,
		interval:   opts.Interval,
		imageBase:  opts.ImageBaseURL,
		messages:   msgs,
		newTicker:  opts.NewTicker,
		refresh:    make(chan struct{}, 1),
		lastConfig: DefaultConfig(),
	}
}

// Notifier returns the engine's notifier.
func (e *Engine) Notifier() *Notifier {
	return e.notifier
}

// SetTable installs the schedule table.
func (e *Engine) SetTable(t *schedule.Table) {
	e.table.Store(t)
}

// Table returns the installed table, or nil while the engine is dormant.
func (e *Engine) Table() *schedule.Table {
	return e.table.Load()
}

// Load reads the schedule from src and installs it. On failure the engine
// stays dormant; there is no retry.
func (e *Engine) Load(ctx context.Context, src schedule.Source) error {
	start := time.Now()
	table, err := src.Load(ctx)
	if err != nil {
		e.logger.Error("schedule load failed, events disabled", "error", err)
		return err
	}
	e.SetTable(table)
	e.logger.Info("schedule loaded", "events", table.Len(), "duration", time.Since(start))
	e.Refresh()
	return nil
}

// Start runs the poll loop in a goroutine until ctx is cancelled or Stop is
// called.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		e.Run(ctx)
	}()
}

// Stop cancels the poll loop and waits for it to return.
func (e *Engine) Stop() {
	e.mu.RLock()
	cancel := e.cancel
	done := e.done
	e.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Run evaluates once, then on every tick or refresh request until ctx is
// done.
func (e *Engine) Run(ctx context.Context) {
	ticker := e.newTicker(e.interval)
	defer ticker.Stop()

	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			e.Tick(ctx)
		case <-e.refresh:
			e.Tick(ctx)
		}
	}
}

// Refresh asks the loop for an evaluation outside the regular interval.
func (e *Engine) Refresh() {
	select {
	case e.refresh <- struct{}{}:
	default:
	}
}

// Snapshot returns the most recent evaluation.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// Tick evaluates every group once: resolve, gate, notify, then publish.
// Groups and entries are visited in a fixed order so the display slot is
// stable between ticks.
func (e *Engine) Tick(ctx context.Context) Snapshot {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	cfg := e.currentConfig()
	now := e.clock.Now()
	table := e.table.Load()

	snap := Snapshot{
		At:                   now,
		Loaded:               table != nil,
		DisplayEnabled:       cfg.DisplayEnabled,
		NotificationsEnabled: cfg.NotificationsEnabled,
		Groups:               []Display{},
	}

	if table != nil && (cfg.DisplayEnabled || cfg.NotificationsEnabled) {
		for _, g := range schedule.Groups {
			window := cfg.Window(g)

			var occs []Occurrence
			for _, def := range table.Entries(g) {
				if !cfg.Enabled.Enabled(def.ID) {
					continue
				}
				occs = append(occs, e.occurrence(now, def, window))
			}

			display, upcoming := Project(g, occs, cfg.Enabled, window, e.messages)
			for _, occ := range upcoming {
				action, ok := e.notifier.MaybeNotify(ctx, occ, cfg)
				if !ok {
					continue
				}
				e.logger.Info("notification attempted",
					"key", action.Key,
					"dispatched", action.Dispatched,
					"eta", occ.Eta.Round(time.Second),
				)
			}
			snap.Groups = append(snap.Groups, display)
		}
	}

	e.mu.Lock()
	e.last = snap
	e.mu.Unlock()

	if e.publisher != nil {
		e.publisher.Publish(snap)
	}
	return snap
}

// Upcoming returns the enabled events currently inside their group's display
// window, soonest first.
func (e *Engine) Upcoming() []Occurrence {
	table := e.table.Load()
	if table == nil {
		return nil
	}
	cfg := e.currentConfig()
	now := e.clock.Now()

	var out []Occurrence
	for _, g := range schedule.Groups {
		window := cfg.Window(g)
		for _, def := range table.Entries(g) {
			occ := e.occurrence(now, def, window)
			if IsUpcoming(occ, cfg.Enabled, window) {
				out = append(out, occ)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Occurrence) int {
		return cmp.Compare(a.Eta, b.Eta)
	})
	return out
}

// Occurrences resolves the next occurrence of every enabled event within the
// coming day, in table order.
func (e *Engine) Occurrences() []Occurrence {
	table := e.table.Load()
	if table == nil {
		return nil
	}
	cfg := e.currentConfig()
	now := e.clock.Now()

	var out []Occurrence
	for _, g := range schedule.Groups {
		for _, def := range table.Entries(g) {
			if !cfg.Enabled.Enabled(def.ID) {
				continue
			}
			out = append(out, e.occurrence(now, def, day))
		}
	}
	return out
}

func (e *Engine) occurrence(now time.Time, def schedule.Definition, window time.Duration) Occurrence {
	occ := Resolve(now, def, window)
	occ.Name = schedule.DisplayName(def.ID)
	occ.EtaText = e.messages.EtaText(occ.Eta)
	occ.ImageRef = e.imageRef(def.ID)
	return occ
}

func (e *Engine) imageRef(id string) string {
	if e.imageBase == "" {
		return id + ".png"
	}
	return strings.TrimSuffix(e.imageBase, "/") + "/" + id + ".png"
}

// currentConfig reads the configuration, falling back to the last good one
// when the source fails.
func (e *Engine) currentConfig() Config {
	if e.config == nil {
		e.cfgMu.Lock()
		defer e.cfgMu.Unlock()
		return e.lastConfig
	}
	cfg, err := e.config.FMEConfig()

	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	if err != nil {
		e.logger.Warn("read config, using previous", "error", err)
		return e.lastConfig
	}
	e.lastConfig = cfg
	return cfg
}
