package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "chorestars.db" {
		t.Errorf("DBPath = %q, want chorestars.db", cfg.DBPath)
	}
	if len(cfg.Children) != 3 {
		t.Errorf("Children = %v, want default roster", cfg.Children)
	}
	if cfg.RefreshCheckInterval != time.Hour {
		t.Errorf("RefreshCheckInterval = %v, want 1h", cfg.RefreshCheckInterval)
	}
	if cfg.SessionMaxIdle != 720*time.Hour {
		t.Errorf("SessionMaxIdle = %v, want 720h", cfg.SessionMaxIdle)
	}
	if cfg.WeeklyPeriod != 168*time.Hour {
		t.Errorf("WeeklyPeriod = %v, want 168h", cfg.WeeklyPeriod)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr())
	}
	if cfg.Backup.Enabled() {
		t.Error("backup enabled without credentials")
	}
	if cfg.BackupInterval != 24*time.Hour {
		t.Errorf("BackupInterval = %v, want 24h", cfg.BackupInterval)
	}
}

func TestLoadBackup(t *testing.T) {
	t.Setenv("CHORESTARS_BACKUP_BUCKET", "stars")
	t.Setenv("CHORESTARS_BACKUP_ACCESS_KEY", "ak")
	t.Setenv("CHORESTARS_BACKUP_SECRET_KEY", "sk")
	t.Setenv("CHORESTARS_BACKUP_PASSPHRASE", "pp")
	t.Setenv("CHORESTARS_BACKUP_RETENTION", "72h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Backup.Enabled() {
		t.Error("backup not enabled")
	}
	if cfg.Backup.Region != "auto" {
		t.Errorf("Region = %q, want auto", cfg.Backup.Region)
	}
	if cfg.Backup.Retention != 72*time.Hour {
		t.Errorf("Retention = %v, want 72h", cfg.Backup.Retention)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHORESTARS_PORT", "9090")
	t.Setenv("CHORESTARS_CHILDREN", " Ana, ben ,,")
	t.Setenv("CHORESTARS_PARENT_PASSWORD", "secret")
	t.Setenv("CHORESTARS_ANA_PASSWORD", "ana123")
	t.Setenv("CHORESTARS_WEEKLY_PERIOD", "48h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if len(cfg.Children) != 2 || cfg.Children[0] != "ana" || cfg.Children[1] != "ben" {
		t.Errorf("Children = %v, want [ana ben]", cfg.Children)
	}
	if cfg.ParentPassword != "secret" {
		t.Errorf("ParentPassword = %q, want secret", cfg.ParentPassword)
	}
	if cfg.ChildPasswords["ana"] != "ana123" {
		t.Errorf("ana password = %q, want ana123", cfg.ChildPasswords["ana"])
	}
	if _, ok := cfg.ChildPasswords["ben"]; ok {
		t.Error("ben should have no password")
	}
	if cfg.WeeklyPeriod != 48*time.Hour {
		t.Errorf("WeeklyPeriod = %v, want 48h", cfg.WeeklyPeriod)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	tests := []string{"soon", "-1h", "0s"}
	for _, v := range tests {
		t.Run(v, func(t *testing.T) {
			t.Setenv("CHORESTARS_SESSION_CLEANUP_INTERVAL", v)
			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %q", v)
			}
		})
	}
}

func TestLoadEmptyChildren(t *testing.T) {
	t.Setenv("CHORESTARS_CHILDREN", " , ")
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty child list")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "CHORESTARS_DB_PATH=/tmp/from-file.db\nCHORESTARS_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// register cleanup for variables the file will set
	t.Setenv("CHORESTARS_DB_PATH", "")
	os.Unsetenv("CHORESTARS_DB_PATH")
	t.Setenv("CHORESTARS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-file.db" {
		t.Errorf("DBPath = %q, want value from file", cfg.DBPath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want existing env to win", cfg.LogLevel)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}
