package store

import (
	"database/sql"
	"fmt"
	"time"
)

type SettingsStore struct {
	db dbtx
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// WithTx returns a copy of the store bound to tx.
func (s *SettingsStore) WithTx(tx *sql.Tx) *SettingsStore {
	return &SettingsStore{db: tx}
}

// Get returns the value for key. ok is false when the key has never been set.
func (s *SettingsStore) Get(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetTime reads a timestamp stored with SetTime.
func (s *SettingsStore) GetTime(key string) (time.Time, bool, error) {
	value, ok, err := s.Get(key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse setting %q: %w", key, err)
	}
	return t, true, nil
}

func (s *SettingsStore) SetTime(key string, t time.Time) error {
	return s.Set(key, t.UTC().Format(time.RFC3339Nano))
}
