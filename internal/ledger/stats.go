package ledger

import (
	"time"

	"github.com/dukerupert/chorestars/internal/model"
)

const (
	recentPendingLimit = 5
	statsWeek          = 7 * 24 * time.Hour
)

// Statistics derives a per-child and household summary from the ledger.
// It holds no state of its own.
func (l *Ledger) Statistics() (*model.Stats, error) {
	children, err := l.children.List()
	if err != nil {
		return nil, storageErr("statistics", err)
	}

	stats := &model.Stats{Children: []model.ChildStats{}}
	for _, c := range children {
		pending, err := l.tasks.PendingTasks(c.Name)
		if err != nil {
			return nil, storageErr("statistics", err)
		}
		incomplete, err := l.tasks.CountIncomplete(c.Name)
		if err != nil {
			return nil, storageErr("statistics", err)
		}
		earned, err := l.tasks.SumCompleted(c.Name)
		if err != nil {
			return nil, storageErr("statistics", err)
		}

		recent := pending
		if len(recent) > recentPendingLimit {
			recent = recent[:recentPendingLimit]
		}
		if recent == nil {
			recent = []model.Task{}
		}

		stats.Children = append(stats.Children, model.ChildStats{
			ChildName:        c.Name,
			CompletedPending: len(pending),
			PendingTasks:     incomplete,
			Balance:          c.Stars,
			TotalEarned:      earned,
			RecentPending:    recent,
		})
		stats.TotalCompleted += len(pending)
		stats.TotalPending += incomplete
		stats.TotalBalance += c.Stars
	}

	if stats.TotalPaidOut, err = l.cashOuts.TotalPaidOut(); err != nil {
		return nil, storageErr("statistics", err)
	}
	if stats.WeekCompleted, stats.WeekEarned, err = l.tasks.CompletedSince(l.now().Add(-statsWeek)); err != nil {
		return nil, storageErr("statistics", err)
	}
	return stats, nil
}
