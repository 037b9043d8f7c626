package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fmewatch/internal/backup"
	"github.com/dukerupert/fmewatch/internal/clock"
	"github.com/dukerupert/fmewatch/internal/config"
	"github.com/dukerupert/fmewatch/internal/cooldown"
	"github.com/dukerupert/fmewatch/internal/email"
	"github.com/dukerupert/fmewatch/internal/fme"
	"github.com/dukerupert/fmewatch/internal/handler"
	"github.com/dukerupert/fmewatch/internal/middleware"
	"github.com/dukerupert/fmewatch/internal/model"
	"github.com/dukerupert/fmewatch/internal/push"
	"github.com/dukerupert/fmewatch/internal/store"
	ws "github.com/dukerupert/fmewatch/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	engine         *fme.Engine
	notifier       *fme.Notifier
	cooldowns      *cooldown.Manager
	backups        *backup.Manager
	fmeH           *handler.FMEHandler
	settingsH      *handler.SettingsHandler
	pushH          *handler.PushHandler
	cooldownH      *handler.CooldownHandler
	backupH        *handler.BackupHandler
	rateLimiter    *middleware.RateLimiter
	adminHash      string
	allowedOrigins []string
	logger         *slog.Logger
}

// New wires the stores, notification sinks, engine and handlers. Nothing is
// started; the caller runs the engine and the cooldown sweeper.
func New(db *sql.DB, cfg *config.Config, clk clock.Clock, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)
	cooldownStore := store.NewCooldownStore(db)

	// Notification sinks
	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.VAPIDSubscriber,
	})
	sink := push.NewMultiSink(
		push.NewWebPushSink(pushSvc, pushStore, logger.With("component", "push")),
		push.NewSlackSink(cfg.SlackWebhookURL),
		email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.EmailTo),
	)

	notifierLogger := logger.With("component", "notifier")
	notifier := fme.NewNotifier(sink, fme.DefaultMessages, func(reason fme.DowngradeReason) {
		if err := settingsStore.DisableNotifications(string(reason)); err != nil {
			notifierLogger.Error("persist downgrade", "error", err)
		}
		hub.Broadcast(ws.NewMessage("notifications", "disabled", map[string]string{
			"reason": string(reason),
		}))
	}, notifierLogger)

	engine := fme.NewEngine(clk, settingsStore, notifier, fme.PublisherFunc(func(snap fme.Snapshot) {
		hub.Broadcast(ws.NewMessage("fme", "updated", snap))
	}), fme.Options{
		Interval:     cfg.PollInterval,
		ImageBaseURL: cfg.ImageBaseURL,
	}, logger.With("component", "fme"))

	hub.SetGreeting(func() (ws.Message, bool) {
		snap := engine.Snapshot()
		if snap.At.IsZero() {
			return ws.Message{}, false
		}
		return ws.NewMessage("fme", "updated", snap), true
	})

	cooldownMgr := cooldown.NewManager(cooldownStore, clk, func(action string, c model.Cooldown) {
		hub.Broadcast(ws.NewMessage("cooldown", action, c))
	}, logger.With("component", "cooldown"))

	backupStore := store.NewBackupStore(db)
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
			Prefix:    cfg.Backup.Prefix,
		},
		Passphrase:    cfg.Backup.Passphrase,
		Interval:      cfg.Backup.Interval,
		RetentionDays: cfg.Backup.RetentionDays,
	}, db, backupStore, func(st backup.Status) {
		hub.Broadcast(ws.NewMessage("backup", string(st.State), st))
	}, logger.With("component", "backup"))

	return &Server{
		db:             db,
		hub:            hub,
		engine:         engine,
		notifier:       notifier,
		cooldowns:      cooldownMgr,
		backups:        backupMgr,
		fmeH:           handler.NewFMEHandler(engine, clk, logger.With("component", "fme_handler")),
		settingsH:      handler.NewSettingsHandler(settingsStore, notifier, engine, hub, logger.With("component", "settings")),
		pushH:          handler.NewPushHandler(pushStore, pushSvc, sink, logger.With("component", "push_handler")),
		cooldownH:      handler.NewCooldownHandler(cooldownMgr, clk.Now, logger.With("component", "cooldown_handler")),
		backupH:        handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		rateLimiter:    middleware.NewRateLimiter(),
		adminHash:      cfg.AdminPasswordHash,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// Engine returns the event engine.
func (s *Server) Engine() *fme.Engine {
	return s.engine
}

// Notifier returns the notification gate shared by the engine and handlers.
func (s *Server) Notifier() *fme.Notifier {
	return s.notifier
}

// CooldownManager returns the cooldown manager.
func (s *Server) CooldownManager() *cooldown.Manager {
	return s.cooldowns
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backups
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins, s.logger.With("component", "websocket")))

	// Event projection
	mux.HandleFunc("GET /api/fme", s.fmeH.Snapshot)
	mux.HandleFunc("GET /api/fme/upcoming", s.fmeH.Upcoming)
	mux.HandleFunc("GET /api/fme.ics", s.fmeH.Calendar)
	mux.HandleFunc("GET /api/clock", s.fmeH.Clock)

	// Settings
	mux.HandleFunc("GET /api/settings/fme", s.settingsH.GetFME)
	mux.Handle("PUT /api/settings/fme", s.adminHandler(s.settingsH.UpdateFME))
	mux.HandleFunc("GET /api/notifications/permission", s.settingsH.GetPermission)
	mux.Handle("POST /api/notifications/enable", s.adminHandler(s.settingsH.EnableNotifications))

	// Push notification API routes
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.rateLimitedHandler(s.pushH.Subscribe))
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.Handle("POST /api/push/test", s.adminHandler(s.pushH.TestNotification))

	// Legendary cooldowns
	mux.HandleFunc("GET /api/cooldowns", s.cooldownH.List)
	mux.HandleFunc("POST /api/cooldowns/{species}", s.cooldownH.Mark)
	mux.HandleFunc("DELETE /api/cooldowns/{species}", s.cooldownH.Clear)

	// Backups
	mux.Handle("GET /api/backups/status", s.adminHandler(s.backupH.Status))
	mux.Handle("GET /api/backups", s.adminHandler(s.backupH.List))
	mux.Handle("POST /api/backups", s.adminHandler(s.backupH.Run))
	mux.Handle("GET /api/backups/{id}/download", s.adminHandler(s.backupH.Download))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":          status,
		"schedule_loaded": s.engine.Table() != nil,
		"clients":         s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) adminHandler(h http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(s.adminHash, s.logger.With("component", "admin"))(h)
}
