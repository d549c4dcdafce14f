// Package ledger owns the star balance of every child: crediting completed
// tasks exactly once, settling balances through cash-outs, and deriving the
// pending (earned but unsettled) view from the cash-out history.
//
// Every mutation for a child runs under that child's lock and inside one
// database transaction, so a completion can never be lost to a concurrent
// completion or silently erased by a concurrent cash-out.
package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/chorestars/internal/database"
	"github.com/dukerupert/chorestars/internal/model"
	"github.com/dukerupert/chorestars/internal/roster"
	"github.com/dukerupert/chorestars/internal/store"
)

type Ledger struct {
	db       *sql.DB
	children *store.ChildStore
	tasks    *store.TaskStore
	cashOuts *store.CashOutStore
	locks    *childLocks
	now      func() time.Time
	logger   *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Ledger {
	return &Ledger{
		db:       db,
		children: store.NewChildStore(db),
		tasks:    store.NewTaskStore(db),
		cashOuts: store.NewCashOutStore(db),
		locks:    newChildLocks(),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// SetClock overrides the clock used for completion and cash-out timestamps.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// SeedChildren creates the roster children with zero balances. Existing
// children keep their balances.
func (l *Ledger) SeedChildren(names []string) error {
	if err := l.children.Seed(names, l.now()); err != nil {
		return storageErr("seed children", err)
	}
	return nil
}

// requireChild normalizes name and checks it against the seeded children.
func (l *Ledger) requireChild(name string) (string, error) {
	name = roster.Normalize(name)
	if name == "" {
		return "", invalid("child name is required")
	}
	c, err := l.children.GetByName(name)
	if err != nil {
		return "", storageErr("lookup child", err)
	}
	if c == nil {
		return "", fmt.Errorf("%w %q", ErrUnknownChild, name)
	}
	return name, nil
}

// CreateTask adds an incomplete task for the child.
func (l *Ledger) CreateTask(childName, text string, reward int, recurring bool) (*model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("task text is required")
	}
	if reward <= 0 {
		return nil, invalid("reward must be positive, got %d", reward)
	}
	name, err := l.requireChild(childName)
	if err != nil {
		return nil, err
	}

	task, err := l.tasks.Create(name, text, reward, recurring, l.now())
	if err != nil {
		return nil, storageErr("create task", err)
	}
	l.logger.Info("task created", "child", name, "task_id", task.ID, "reward", reward, "recurring", recurring)
	return task, nil
}

// ListTasks returns tasks matching completed, newest created first. An empty
// childName lists across all children.
func (l *Ledger) ListTasks(childName string, completed bool) ([]model.Task, error) {
	name := ""
	if strings.TrimSpace(childName) != "" {
		var err error
		if name, err = l.requireChild(childName); err != nil {
			return nil, err
		}
	}
	tasks, err := l.tasks.List(name, completed)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	return tasks, nil
}

// CompleteTask marks the task completed and credits its reward to the child
// in a single transaction, returning the credited amount. A task that is
// missing, already completed, or owned by another child is not an error:
// nothing changes and 0 is returned.
func (l *Ledger) CompleteTask(taskID int64, childName string) (int, error) {
	name, err := l.requireChild(childName)
	if err != nil {
		return 0, err
	}

	unlock := l.locks.lock(name)
	defer unlock()

	credited := 0
	err = database.InTx(l.db, func(tx *sql.Tx) error {
		tasks := l.tasks.WithTx(tx)

		task, err := tasks.GetByID(taskID)
		if err != nil {
			return err
		}
		if task == nil || task.Completed || task.ChildName != name {
			return nil
		}

		// Completions must land strictly inside the open settlement window,
		// even when the clock has not advanced past the last cash-out.
		at := l.now().UTC()
		last, err := l.cashOuts.WithTx(tx).Last(name)
		if err != nil {
			return err
		}
		if last != nil && !at.After(last.ResetAt) {
			at = last.ResetAt.Add(time.Nanosecond)
		}

		ok, err := tasks.MarkCompleted(taskID, name, at)
		if err != nil || !ok {
			return err
		}
		if err := l.children.WithTx(tx).AddStars(name, task.Reward); err != nil {
			return err
		}
		credited = task.Reward
		return nil
	})
	if err != nil {
		return 0, storageErr("complete task", err)
	}

	if credited == 0 {
		l.logger.Debug("task completion not applicable", "child", name, "task_id", taskID)
		return 0, nil
	}
	l.logger.Info("task completed", "child", name, "task_id", taskID, "credited", credited)
	return credited, nil
}

// Balance returns the child's current star balance.
func (l *Ledger) Balance(childName string) (int, error) {
	name, err := l.requireChild(childName)
	if err != nil {
		return 0, err
	}
	c, err := l.children.GetByName(name)
	if err != nil {
		return 0, storageErr("get balance", err)
	}
	if c == nil {
		return 0, fmt.Errorf("%w %q", ErrUnknownChild, name)
	}
	return c.Stars, nil
}

// CashOut settles the child's whole balance: it is reset to zero and a
// cash-out event carrying the settled amount is recorded. A zero balance
// records nothing and returns 0.
func (l *Ledger) CashOut(childName string) (int, error) {
	name, err := l.requireChild(childName)
	if err != nil {
		return 0, err
	}

	unlock := l.locks.lock(name)
	defer unlock()

	settled := 0
	err = database.InTx(l.db, func(tx *sql.Tx) error {
		children := l.children.WithTx(tx)

		c, err := children.GetByName(name)
		if err != nil {
			return err
		}
		if c == nil || c.Stars == 0 {
			return nil
		}

		// The reset must not precede any completion it settles, otherwise
		// that completion would reappear as pending.
		at := l.now().UTC()
		latest, err := l.tasks.WithTx(tx).LatestCompletion(name)
		if err != nil {
			return err
		}
		if latest != nil && at.Before(*latest) {
			at = *latest
		}

		if err := children.ZeroStars(name); err != nil {
			return err
		}
		if _, err := l.cashOuts.WithTx(tx).Record(name, c.Stars, at); err != nil {
			return err
		}
		settled = c.Stars
		return nil
	})
	if err != nil {
		return 0, storageErr("cash out", err)
	}

	if settled > 0 {
		l.logger.Info("cash-out recorded", "child", name, "settled", settled)
	}
	return settled, nil
}

// PendingTasks returns the child's completed tasks not yet settled by a
// cash-out, newest completion first.
func (l *Ledger) PendingTasks(childName string) ([]model.Task, error) {
	name, err := l.requireChild(childName)
	if err != nil {
		return nil, err
	}
	tasks, err := l.tasks.PendingTasks(name)
	if err != nil {
		return nil, storageErr("pending tasks", err)
	}
	return tasks, nil
}

// CashOutHistory returns cash-outs newest first, for one child or, with an
// empty name, for everyone.
func (l *Ledger) CashOutHistory(childName string) ([]model.CashOut, error) {
	name := ""
	if strings.TrimSpace(childName) != "" {
		var err error
		if name, err = l.requireChild(childName); err != nil {
			return nil, err
		}
	}
	history, err := l.cashOuts.List(name)
	if err != nil {
		return nil, storageErr("cash-out history", err)
	}
	return history, nil
}

// SeedStarterTasks gives every child that has no tasks at all its starter
// list of one-off tasks. Children that already have tasks are skipped, so
// running it on every start is harmless.
func (l *Ledger) SeedStarterTasks(templates map[string][]model.TaskTemplate) (int, error) {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	created := 0
	err := database.InTx(l.db, func(tx *sql.Tx) error {
		tasks := l.tasks.WithTx(tx)
		now := l.now()
		for _, name := range names {
			n, err := tasks.CountByChild(name)
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			for _, tmpl := range templates[name] {
				if _, err := tasks.Create(name, tmpl.Text, tmpl.Reward, false, now); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("seed starter tasks", err)
	}
	if created > 0 {
		l.logger.Info("starter tasks seeded", "count", created)
	}
	return created, nil
}
