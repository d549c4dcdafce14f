// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/chorestars/internal/backup"
	"github.com/dukerupert/chorestars/internal/roster"
)

const prefix = "CHORESTARS_"

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	Children       []string
	ParentPassword string
	ChildPasswords map[string]string

	RefreshCheckInterval   time.Duration
	SessionCleanupInterval time.Duration
	SessionMaxIdle         time.Duration
	WeeklyPeriod           time.Duration

	Backup         backup.Config
	BackupInterval time.Duration
}

// Load reads envFile into the environment when it exists, without
// overriding variables that are already set, then builds the config.
// An empty envFile skips the file step.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DBPath:         getenv("DB_PATH", "chorestars.db"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
		ParentPassword: os.Getenv(prefix + "PARENT_PASSWORD"),
		ChildPasswords: make(map[string]string),
		Backup: backup.Config{
			Endpoint:   os.Getenv(prefix + "BACKUP_ENDPOINT"),
			Bucket:     os.Getenv(prefix + "BACKUP_BUCKET"),
			Region:     getenv("BACKUP_REGION", "auto"),
			AccessKey:  os.Getenv(prefix + "BACKUP_ACCESS_KEY"),
			SecretKey:  os.Getenv(prefix + "BACKUP_SECRET_KEY"),
			Prefix:     os.Getenv(prefix + "BACKUP_PREFIX"),
			Passphrase: os.Getenv(prefix + "BACKUP_PASSPHRASE"),
		},
	}

	cfg.Children = append([]string(nil), roster.DefaultChildren...)
	if v := os.Getenv(prefix + "CHILDREN"); strings.TrimSpace(v) != "" {
		cfg.Children = nil
		for _, name := range strings.Split(v, ",") {
			if name = roster.Normalize(name); name != "" {
				cfg.Children = append(cfg.Children, name)
			}
		}
		if len(cfg.Children) == 0 {
			return nil, fmt.Errorf("%sCHILDREN: no child names in %q", prefix, v)
		}
	}
	for _, name := range cfg.Children {
		if pw := os.Getenv(prefix + strings.ToUpper(name) + "_PASSWORD"); pw != "" {
			cfg.ChildPasswords[name] = pw
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"REFRESH_CHECK_INTERVAL", time.Hour, &cfg.RefreshCheckInterval},
		{"SESSION_CLEANUP_INTERVAL", time.Hour, &cfg.SessionCleanupInterval},
		{"SESSION_MAX_IDLE", 30 * 24 * time.Hour, &cfg.SessionMaxIdle},
		{"WEEKLY_PERIOD", 7 * 24 * time.Hour, &cfg.WeeklyPeriod},
		{"BACKUP_INTERVAL", 24 * time.Hour, &cfg.BackupInterval},
		{"BACKUP_RETENTION", backup.DefaultRetention, &cfg.Backup.Retention},
	}
	for _, d := range durations {
		v, err := getDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = v
	}

	return cfg, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(prefix + key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(prefix + key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", prefix, key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s%s must be positive, got %s", prefix, key, v)
	}
	return d, nil
}
