package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "FMEWATCH_"

type Config struct {
	Port         string
	DBPath       string
	LogLevel     string
	LogFormat    string
	ScheduleURL  string
	ScheduleFile string
	PollInterval time.Duration
	ClockOffset  time.Duration
	ImageBaseURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
	SlackWebhookURL string
	PostmarkToken   string
	EmailFrom       string
	EmailTo         string

	AdminPasswordHash string
	AllowedOrigins    []string

	Backup BackupConfig
}

// BackupConfig configures encrypted database backups to S3-compatible storage.
type BackupConfig struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	Prefix        string
	Passphrase    string
	Interval      time.Duration
	RetentionDays int
}

// LoadDotEnv loads the given .env files, or ".env" when none are named.
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return FromLookup(os.Getenv)
}

// FromLookup reads the configuration through getenv.
func FromLookup(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(prefix + key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:              get("PORT", "8080"),
		DBPath:            get("DB_PATH", "fmewatch.db"),
		LogLevel:          get("LOG_LEVEL", "info"),
		LogFormat:         get("LOG_FORMAT", "text"),
		ScheduleURL:       get("SCHEDULE_URL", ""),
		ScheduleFile:      get("SCHEDULE_FILE", ""),
		ImageBaseURL:      get("IMAGE_BASE_URL", "./assets/images/fme/"),
		VAPIDPublicKey:    get("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:   get("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber:   get("VAPID_SUBSCRIBER", ""),
		SlackWebhookURL:   get("SLACK_WEBHOOK_URL", ""),
		PostmarkToken:     get("POSTMARK_TOKEN", ""),
		EmailFrom:         get("EMAIL_FROM", ""),
		EmailTo:           get("EMAIL_TO", ""),
		AdminPasswordHash: get("ADMIN_PASSWORD_HASH", ""),
		Backup: BackupConfig{
			Endpoint:   get("S3_ENDPOINT", ""),
			Bucket:     get("S3_BUCKET", ""),
			Region:     get("S3_REGION", "us-east-1"),
			AccessKey:  get("S3_ACCESS_KEY", ""),
			SecretKey:  get("S3_SECRET_KEY", ""),
			Prefix:     get("S3_PREFIX", ""),
			Passphrase: get("BACKUP_PASSPHRASE", ""),
		},
	}

	var err error
	if cfg.PollInterval, err = parseDuration(prefix+"POLL_INTERVAL", get("POLL_INTERVAL", "10s")); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("%sPOLL_INTERVAL must be positive", prefix)
	}
	if cfg.ClockOffset, err = parseDuration(prefix+"CLOCK_OFFSET", get("CLOCK_OFFSET", "0s")); err != nil {
		return nil, err
	}

	if cfg.Backup.Interval, err = parseDuration(prefix+"BACKUP_INTERVAL", get("BACKUP_INTERVAL", "24h")); err != nil {
		return nil, err
	}
	if cfg.Backup.RetentionDays, err = strconv.Atoi(get("BACKUP_RETENTION_DAYS", "30")); err != nil || cfg.Backup.RetentionDays <= 0 {
		return nil, fmt.Errorf("%sBACKUP_RETENTION_DAYS must be a positive integer", prefix)
	}

	if origins := get("ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.ScheduleURL != "" && cfg.ScheduleFile != "" {
		return nil, fmt.Errorf("set only one of %sSCHEDULE_URL and %sSCHEDULE_FILE", prefix, prefix)
	}
	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return nil, fmt.Errorf("%sVAPID_PUBLIC_KEY and %sVAPID_PRIVATE_KEY must be set together", prefix, prefix)
	}

	if cfg.Backup.Bucket != "" && cfg.Backup.Passphrase == "" {
		return nil, fmt.Errorf("%sS3_BUCKET requires %sBACKUP_PASSPHRASE", prefix, prefix)
	}

	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
