// Package backup takes encrypted snapshots of the ledger database and
// keeps them in S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/chorestars/internal/scheduler"
)

const (
	keyTimeFormat = "20060102T150405Z"
	keyExt        = ".db.enc"
	keyStem       = "ledger-"

	DefaultRetention = 30 * 24 * time.Hour
)

var ErrNotConfigured = errors.New("backup not configured")

// objectStore is the subset of the S3 client the manager uses.
type objectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Config struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Prefix     string
	Passphrase string
	Retention  time.Duration
}

// Enabled reports whether storage credentials and a passphrase are set.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

type Snapshot struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	TakenAt time.Time `json:"taken_at"`
}

type Manager struct {
	mu     sync.Mutex
	db     *sql.DB
	client objectStore
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// NewManager returns nil, ErrNotConfigured when cfg is not Enabled.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) (*Manager, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return newManager(cfg, db, newS3Client(cfg), logger), nil
}

func newManager(cfg Config, db *sql.DB, client objectStore, logger *slog.Logger) *Manager {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Prefix != "" && !strings.HasSuffix(cfg.Prefix, "/") {
		cfg.Prefix += "/"
	}
	return &Manager{
		db:     db,
		client: client,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// SetClock replaces the time source used for snapshot keys and retention.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Manager) keyFor(t time.Time) string {
	return m.cfg.Prefix + keyStem + t.UTC().Format(keyTimeFormat) + keyExt
}

func (m *Manager) timeOf(key string) (time.Time, bool) {
	name, ok := strings.CutPrefix(key, m.cfg.Prefix+keyStem)
	if !ok {
		return time.Time{}, false
	}
	name, ok = strings.CutSuffix(name, keyExt)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(keyTimeFormat, name)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Run takes a snapshot, uploads it and removes snapshots older than the
// retention window.
func (m *Manager) Run(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	removed, err := m.prune(ctx)
	if err != nil {
		m.logger.Warn("prune snapshots", "error", err)
	}
	m.logger.Info("ledger snapshot stored", "key", snap.Key, "bytes", snap.Size, "pruned", removed)
	return snap, nil
}

func (m *Manager) snapshot(ctx context.Context) (*Snapshot, error) {
	takenAt := m.now().UTC()

	tmpDir, err := os.MkdirTemp("", "chorestars-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	copyPath := filepath.Join(tmpDir, "ledger.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", copyPath); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}
	plaintext, err := os.ReadFile(copyPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Seal(plaintext, m.cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := m.keyFor(takenAt)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}
	return &Snapshot{Key: key, Size: int64(len(sealed)), TakenAt: takenAt}, nil
}

// List returns stored snapshots, newest first. Objects under the prefix
// that were not written by the manager are ignored.
func (m *Manager) List(ctx context.Context) ([]Snapshot, error) {
	var snaps []Snapshot
	p := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.Bucket),
		Prefix: aws.String(m.cfg.Prefix + keyStem),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			t, ok := m.timeOf(key)
			if !ok {
				continue
			}
			snaps = append(snaps, Snapshot{Key: key, Size: aws.ToInt64(obj.Size), TakenAt: t})
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].TakenAt.After(snaps[j].TakenAt) })
	return snaps, nil
}

// Prune deletes snapshots older than the retention window. The newest
// snapshot is always kept.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prune(ctx)
}

func (m *Manager) prune(ctx context.Context) (int, error) {
	snaps, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := m.now().UTC().Add(-m.cfg.Retention)
	removed := 0
	for i, snap := range snaps {
		if i == 0 || !snap.TakenAt.Before(cutoff) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(snap.Key),
		}); err != nil {
			return removed, fmt.Errorf("delete %s: %w", snap.Key, err)
		}
		removed++
	}
	return removed, nil
}

// Restore downloads and decrypts the snapshot stored under key, checks its
// integrity and writes it to dstPath. The server must not have dstPath
// open.
func (m *Manager) Restore(ctx context.Context, key, dstPath string) error {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	plaintext, err := Open(sealed, m.cfg.Passphrase)
	if err != nil {
		return err
	}

	tmpPath := dstPath + ".restore"
	if err := os.WriteFile(tmpPath, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	if err := checkIntegrity(ctx, tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dstPath + "-wal")
	os.Remove(dstPath + "-shm")

	m.logger.Info("ledger restored", "key", key, "path", dstPath)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Job runs a snapshot on every tick of interval.
func (m *Manager) Job(interval time.Duration) scheduler.Job {
	return scheduler.Job{
		Name:     "ledger-backup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := m.Run(ctx)
			return err
		},
	}
}
