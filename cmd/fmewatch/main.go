package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/fmewatch/internal/backup"
	"github.com/dukerupert/fmewatch/internal/clock"
	"github.com/dukerupert/fmewatch/internal/config"
	"github.com/dukerupert/fmewatch/internal/database"
	"github.com/dukerupert/fmewatch/internal/logging"
	"github.com/dukerupert/fmewatch/internal/middleware"
	"github.com/dukerupert/fmewatch/internal/push"
	"github.com/dukerupert/fmewatch/internal/schedule"
	"github.com/dukerupert/fmewatch/internal/server"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of the given admin password and exit")
	generateVAPID := flag.Bool("generate-vapid", false, "print a new VAPID key pair and exit")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	decrypt := flag.String("decrypt-backup", "", "decrypt a downloaded backup file using FMEWATCH_BACKUP_PASSPHRASE and exit")
	decryptOut := flag.String("out", "fmewatch-restored.db", "output path for -decrypt-backup")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := middleware.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}
	if *generateVAPID {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("FMEWATCH_VAPID_PUBLIC_KEY=%s\nFMEWATCH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *decrypt != "" {
		if cfg.Backup.Passphrase == "" {
			fmt.Fprintln(os.Stderr, "FMEWATCH_BACKUP_PASSPHRASE is not set")
			os.Exit(1)
		}
		if err := backup.DecryptFile(*decrypt, *decryptOut, cfg.Backup.Passphrase); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("restored database written to", *decryptOut)
		return
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(db, cfg, clock.NewMap(cfg.ClockOffset), logger)
	srv.Notifier().CheckPermission()

	engine := srv.Engine()
	engine.Start(ctx)
	defer engine.Stop()

	if src := scheduleSource(cfg); src != nil {
		// The table is installed whenever the load finishes; until then the
		// engine ticks without doing anything.
		go engine.Load(ctx, src)
	} else {
		logger.Warn("no schedule configured, event tracking disabled",
			"hint", "set FMEWATCH_SCHEDULE_URL or FMEWATCH_SCHEDULE_FILE")
	}

	srv.CooldownManager().Start(ctx)
	defer srv.CooldownManager().Stop()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	go srv.RateLimiter().RunCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("fmewatch running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func scheduleSource(cfg *config.Config) schedule.Source {
	switch {
	case cfg.ScheduleURL != "":
		return schedule.NewHTTPSource(cfg.ScheduleURL)
	case cfg.ScheduleFile != "":
		return schedule.NewFileSource(cfg.ScheduleFile)
	default:
		return nil
	}
}
