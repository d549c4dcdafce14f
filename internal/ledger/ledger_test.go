package ledger

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/chorestars/internal/database"
	"github.com/dukerupert/chorestars/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupLedger(t *testing.T) (*Ledger, *fakeClock) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := newFakeClock()
	l := New(db, discardLogger())
	l.SetClock(clock.Now)
	if err := l.SeedChildren([]string{"a", "b"}); err != nil {
		t.Fatalf("seed children: %v", err)
	}
	return l, clock
}

func mustCreate(t *testing.T, l *Ledger, child, text string, reward int, recurring bool) *model.Task {
	t.Helper()
	task, err := l.CreateTask(child, text, reward, recurring)
	if err != nil {
		t.Fatalf("create task %q: %v", text, err)
	}
	return task
}

func mustBalance(t *testing.T, l *Ledger, child string) int {
	t.Helper()
	b, err := l.Balance(child)
	if err != nil {
		t.Fatalf("balance %s: %v", child, err)
	}
	return b
}

func pendingSum(t *testing.T, l *Ledger, child string) int {
	t.Helper()
	tasks, err := l.PendingTasks(child)
	if err != nil {
		t.Fatalf("pending %s: %v", child, err)
	}
	sum := 0
	for _, task := range tasks {
		sum += task.Reward
	}
	return sum
}

func TestScenarioCompleteAndCashOut(t *testing.T) {
	l, clock := setupLedger(t)

	if b := mustBalance(t, l, "a"); b != 0 {
		t.Fatalf("initial balance = %d, want 0", b)
	}

	t1 := mustCreate(t, l, "a", "sweep", 3, false)
	clock.Advance(time.Minute)
	got, err := l.CompleteTask(t1.ID, "a")
	if err != nil {
		t.Fatalf("complete t1: %v", err)
	}
	if got != 3 {
		t.Errorf("credited = %d, want 3", got)
	}
	if b := mustBalance(t, l, "a"); b != 3 {
		t.Errorf("balance = %d, want 3", b)
	}

	t2 := mustCreate(t, l, "a", "read", 4, true)
	clock.Advance(time.Minute)
	if got, _ := l.CompleteTask(t2.ID, "a"); got != 4 {
		t.Errorf("credited = %d, want 4", got)
	}
	if b := mustBalance(t, l, "a"); b != 7 {
		t.Errorf("balance = %d, want 7", b)
	}

	clock.Advance(time.Minute)
	settled, err := l.CashOut("a")
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if settled != 7 {
		t.Errorf("settled = %d, want 7", settled)
	}
	if b := mustBalance(t, l, "a"); b != 0 {
		t.Errorf("balance after cash-out = %d, want 0", b)
	}

	history, err := l.CashOutHistory("a")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Amount != 7 {
		t.Fatalf("history = %+v, want one entry of 7", history)
	}
}

func TestCompleteTaskTwiceCreditsOnce(t *testing.T) {
	l, _ := setupLedger(t)
	task := mustCreate(t, l, "a", "dishes", 5, false)

	first, err := l.CompleteTask(task.ID, "a")
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	second, err := l.CompleteTask(task.ID, "a")
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}

	if first != 5 {
		t.Errorf("first = %d, want 5", first)
	}
	if second != 0 {
		t.Errorf("second = %d, want 0", second)
	}
	if b := mustBalance(t, l, "a"); b != 5 {
		t.Errorf("balance = %d, want 5", b)
	}
}

func TestCompleteTaskNotApplicable(t *testing.T) {
	l, _ := setupLedger(t)
	other := mustCreate(t, l, "b", "trash", 2, false)

	tests := []struct {
		name   string
		taskID int64
	}{
		{"missing task", 9999},
		{"other child's task", other.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.CompleteTask(tt.taskID, "a")
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			if got != 0 {
				t.Errorf("credited = %d, want 0", got)
			}
		})
	}

	if b := mustBalance(t, l, "a"); b != 0 {
		t.Errorf("balance a = %d, want 0", b)
	}
	if b := mustBalance(t, l, "b"); b != 0 {
		t.Errorf("balance b = %d, want 0", b)
	}
	open, err := l.ListTasks("b", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 {
		t.Errorf("b open tasks = %d, want 1 (mismatched completion must not mutate)", len(open))
	}
}

func TestCompleteTaskUnknownChild(t *testing.T) {
	l, _ := setupLedger(t)
	task := mustCreate(t, l, "a", "sweep", 3, false)

	_, err := l.CompleteTask(task.ID, "nobody")
	if !errors.Is(err, ErrUnknownChild) {
		t.Errorf("err = %v, want ErrUnknownChild", err)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestChildNamesAreNormalized(t *testing.T) {
	l, _ := setupLedger(t)
	task := mustCreate(t, l, " A ", "sweep", 3, false)

	if task.ChildName != "a" {
		t.Errorf("child = %q, want %q", task.ChildName, "a")
	}
	if got, _ := l.CompleteTask(task.ID, "A"); got != 3 {
		t.Errorf("credited = %d, want 3", got)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	l, _ := setupLedger(t)

	tests := []struct {
		name   string
		child  string
		text   string
		reward int
	}{
		{"zero reward", "a", "sweep", 0},
		{"negative reward", "a", "sweep", -2},
		{"empty text", "a", "   ", 3},
		{"unknown child", "zed", "sweep", 3},
		{"empty child", "", "sweep", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateTask(tt.child, tt.text, tt.reward, false)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	all, err := l.ListTasks("", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("tasks = %d, want 0 after rejected creates", len(all))
	}
}

func TestCashOutZeroBalanceRecordsNothing(t *testing.T) {
	l, _ := setupLedger(t)

	settled, err := l.CashOut("a")
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if settled != 0 {
		t.Errorf("settled = %d, want 0", settled)
	}
	history, _ := l.CashOutHistory("a")
	if len(history) != 0 {
		t.Errorf("history = %d entries, want 0", len(history))
	}
}

func TestCashOutEmptiesPending(t *testing.T) {
	l, clock := setupLedger(t)
	for _, reward := range []int{2, 3, 4} {
		task := mustCreate(t, l, "a", "chore", reward, false)
		clock.Advance(time.Second)
		l.CompleteTask(task.ID, "a")
	}

	if got := pendingSum(t, l, "a"); got != 9 {
		t.Fatalf("pending sum = %d, want 9", got)
	}

	clock.Advance(time.Second)
	if settled, _ := l.CashOut("a"); settled != 9 {
		t.Errorf("settled = %d, want 9", settled)
	}
	pending, err := l.PendingTasks("a")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d tasks, want 0", len(pending))
	}
}

func TestPendingWindow(t *testing.T) {
	l, clock := setupLedger(t)

	before := mustCreate(t, l, "a", "before", 3, false)
	after := mustCreate(t, l, "a", "after", 5, false)

	clock.Advance(time.Minute)
	l.CompleteTask(before.ID, "a")
	clock.Advance(time.Minute)
	l.CashOut("a")
	clock.Advance(time.Minute)
	l.CompleteTask(after.ID, "a")

	pending, err := l.PendingTasks("a")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != after.ID {
		t.Fatalf("pending = %+v, want only task %d", pending, after.ID)
	}

	clock.Advance(time.Minute)
	l.CashOut("a")
	pending, _ = l.PendingTasks("a")
	if len(pending) != 0 {
		t.Errorf("pending after second cash-out = %d, want 0", len(pending))
	}
}

func TestPendingNewestCompletionFirst(t *testing.T) {
	l, clock := setupLedger(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		task := mustCreate(t, l, "a", "chore", 1, false)
		ids = append(ids, task.ID)
	}
	// complete in reverse creation order
	for i := len(ids) - 1; i >= 0; i-- {
		clock.Advance(time.Second)
		l.CompleteTask(ids[i], "a")
	}

	pending, _ := l.PendingTasks("a")
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	for i := 1; i < len(pending); i++ {
		if pending[i-1].CompletedAt.Before(*pending[i].CompletedAt) {
			t.Errorf("pending[%d] completed before pending[%d]", i-1, i)
		}
	}
	if pending[0].ID != ids[0] {
		t.Errorf("newest = %d, want %d", pending[0].ID, ids[0])
	}
}

func TestFrozenClockKeepsWindowsConsistent(t *testing.T) {
	l, _ := setupLedger(t)

	t1 := mustCreate(t, l, "a", "one", 3, false)
	t2 := mustCreate(t, l, "a", "two", 4, false)

	l.CompleteTask(t1.ID, "a")
	l.CashOut("a")
	l.CompleteTask(t2.ID, "a")

	if b := mustBalance(t, l, "a"); b != 4 {
		t.Errorf("balance = %d, want 4", b)
	}
	if got := pendingSum(t, l, "a"); got != 4 {
		t.Errorf("pending sum = %d, want 4", got)
	}
}

func TestBalanceReconciliation(t *testing.T) {
	l, clock := setupLedger(t)
	rng := rand.New(rand.NewPCG(1, 2))

	var open []int64
	for step := 0; step < 200; step++ {
		clock.Advance(time.Duration(rng.IntN(3)) * time.Second)
		switch op := rng.IntN(10); {
		case op < 4:
			task := mustCreate(t, l, "a", "chore", 1+rng.IntN(9), false)
			open = append(open, task.ID)
		case op < 8 && len(open) > 0:
			i := rng.IntN(len(open))
			if _, err := l.CompleteTask(open[i], "a"); err != nil {
				t.Fatalf("step %d complete: %v", step, err)
			}
			open = append(open[:i], open[i+1:]...)
		default:
			if _, err := l.CashOut("a"); err != nil {
				t.Fatalf("step %d cash out: %v", step, err)
			}
		}

		if b, p := mustBalance(t, l, "a"), pendingSum(t, l, "a"); b != p {
			t.Fatalf("step %d: balance %d != pending sum %d", step, b, p)
		}
	}
}

func TestCashOutHistoryNewestFirst(t *testing.T) {
	l, clock := setupLedger(t)

	for _, child := range []string{"a", "b", "a"} {
		task := mustCreate(t, l, child, "chore", 2, false)
		clock.Advance(time.Minute)
		l.CompleteTask(task.ID, child)
		clock.Advance(time.Minute)
		l.CashOut(child)
	}

	all, err := l.CashOutHistory("")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("history = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ResetAt.Before(all[i].ResetAt) {
			t.Errorf("history[%d] older than history[%d]", i-1, i)
		}
	}

	onlyA, _ := l.CashOutHistory("a")
	if len(onlyA) != 2 {
		t.Errorf("history a = %d, want 2", len(onlyA))
	}
}

func TestStatistics(t *testing.T) {
	l, clock := setupLedger(t)

	var done []int64
	for i := 0; i < 7; i++ {
		task := mustCreate(t, l, "a", "chore", 1, false)
		done = append(done, task.ID)
	}
	mustCreate(t, l, "a", "open", 2, false)
	mustCreate(t, l, "b", "open", 2, false)

	for _, id := range done[:2] {
		clock.Advance(time.Second)
		l.CompleteTask(id, "a")
	}
	clock.Advance(time.Second)
	l.CashOut("a")
	for _, id := range done[2:] {
		clock.Advance(time.Second)
		l.CompleteTask(id, "a")
	}

	stats, err := l.Statistics()
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if len(stats.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(stats.Children))
	}

	a := stats.Children[0]
	if a.ChildName != "a" {
		t.Fatalf("first child = %q, want a", a.ChildName)
	}
	if a.CompletedPending != 5 {
		t.Errorf("a.CompletedPending = %d, want 5", a.CompletedPending)
	}
	if a.PendingTasks != 1 {
		t.Errorf("a.PendingTasks = %d, want 1", a.PendingTasks)
	}
	if a.Balance != 5 {
		t.Errorf("a.Balance = %d, want 5", a.Balance)
	}
	if a.TotalEarned != 7 {
		t.Errorf("a.TotalEarned = %d, want 7", a.TotalEarned)
	}
	if len(a.RecentPending) != 5 {
		t.Errorf("a.RecentPending = %d, want 5", len(a.RecentPending))
	}

	if stats.TotalCompleted != 5 {
		t.Errorf("TotalCompleted = %d, want 5", stats.TotalCompleted)
	}
	if stats.TotalPending != 2 {
		t.Errorf("TotalPending = %d, want 2", stats.TotalPending)
	}
	if stats.TotalBalance != 5 {
		t.Errorf("TotalBalance = %d, want 5", stats.TotalBalance)
	}
	if stats.TotalPaidOut != 2 {
		t.Errorf("TotalPaidOut = %d, want 2", stats.TotalPaidOut)
	}
	if stats.WeekCompleted != 7 || stats.WeekEarned != 7 {
		t.Errorf("week = %d/%d, want 7/7", stats.WeekCompleted, stats.WeekEarned)
	}

	clock.Advance(8 * 24 * time.Hour)
	stats, _ = l.Statistics()
	if stats.WeekCompleted != 0 {
		t.Errorf("WeekCompleted after 8 days = %d, want 0", stats.WeekCompleted)
	}
}

func TestSeedStarterTasksIsIdempotent(t *testing.T) {
	l, _ := setupLedger(t)
	templates := map[string][]model.TaskTemplate{
		"a": {{Text: "tidy", Reward: 2}, {Text: "read", Reward: 3}},
		"b": {{Text: "water plants", Reward: 1}},
	}

	n, err := l.SeedStarterTasks(templates)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 3 {
		t.Errorf("created = %d, want 3", n)
	}

	n, err = l.SeedStarterTasks(templates)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n != 0 {
		t.Errorf("created on reseed = %d, want 0", n)
	}

	tasks, _ := l.ListTasks("a", false)
	for _, task := range tasks {
		if task.Recurring {
			t.Errorf("starter task %q is recurring", task.Text)
		}
	}
}
