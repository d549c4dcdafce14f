// Package weekly replaces the pool of recurring tasks on a fixed period.
package weekly

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/chorestars/internal/database"
	"github.com/dukerupert/chorestars/internal/model"
	"github.com/dukerupert/chorestars/internal/store"
)

// DefaultPeriod is the time between refreshes.
const DefaultPeriod = 7 * 24 * time.Hour

const lastRefreshKey = "weekly_last_refresh"

// Result describes one completed refresh.
type Result struct {
	Deleted     int64     `json:"deleted"`
	Created     int       `json:"created"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

type Cycle struct {
	mu        sync.Mutex
	db        *sql.DB
	tasks     *store.TaskStore
	settings  *store.SettingsStore
	templates map[string][]model.TaskTemplate
	period    time.Duration
	now       func() time.Time
	logger    *slog.Logger

	// OnRefresh, when set, is called after every committed refresh.
	OnRefresh func(Result)
}

// New creates a cycle that regenerates templates every period. A
// non-positive period falls back to DefaultPeriod.
func New(db *sql.DB, templates map[string][]model.TaskTemplate, period time.Duration, logger *slog.Logger) *Cycle {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Cycle{
		db:        db,
		tasks:     store.NewTaskStore(db),
		settings:  store.NewSettingsStore(db),
		templates: templates,
		period:    period,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

func (c *Cycle) SetClock(now func() time.Time) {
	c.now = now
}

// LastRefresh returns the persisted time of the last refresh. ok is false
// when no refresh has ever run.
func (c *Cycle) LastRefresh() (t time.Time, ok bool, err error) {
	t, ok, err = c.settings.GetTime(lastRefreshKey)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get last refresh: %w", err)
	}
	return t, ok, nil
}

// IsDue reports whether at least one period has elapsed since the last
// refresh. A cycle that has never refreshed is due.
func (c *Cycle) IsDue(now time.Time) (bool, error) {
	last, ok, err := c.LastRefresh()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return now.Sub(last) >= c.period, nil
}

// Refresh deletes every recurring task and recreates the weekly templates,
// recording the refresh time in the same transaction. A failure leaves the
// previous pool in place and the cycle still due.
func (c *Cycle) Refresh() (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh()
}

func (c *Cycle) refresh() (*Result, error) {
	now := c.now().UTC()
	result := Result{RefreshedAt: now}

	err := database.InTx(c.db, func(tx *sql.Tx) error {
		tasks := c.tasks.WithTx(tx)

		deleted, err := tasks.DeleteRecurring()
		if err != nil {
			return err
		}
		created, err := tasks.BulkCreateRecurring(c.templates, now)
		if err != nil {
			return err
		}
		if err := c.settings.WithTx(tx).SetTime(lastRefreshKey, now); err != nil {
			return err
		}
		result.Deleted = deleted
		result.Created = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("refresh weekly tasks: %w", err)
	}

	c.logger.Info("weekly tasks refreshed", "deleted", result.Deleted, "created", result.Created)
	if c.OnRefresh != nil {
		c.OnRefresh(result)
	}
	return &result, nil
}

// RunIfDue refreshes when the cycle is due and otherwise does nothing. It is
// the scheduler entry point; the due check and the refresh happen under one
// lock so overlapping ticks cannot refresh twice in a period.
func (c *Cycle) RunIfDue(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	due, err := c.IsDue(c.now())
	if err != nil {
		return err
	}
	if !due {
		n, err := c.tasks.CountRecurring()
		if err != nil {
			return fmt.Errorf("count recurring tasks: %w", err)
		}
		if n == 0 {
			c.logger.Warn("recurring task pool is empty until next refresh")
		}
		return nil
	}

	_, err = c.refresh()
	return err
}
