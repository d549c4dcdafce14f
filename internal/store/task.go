package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/chorestars/internal/model"
)

type TaskStore struct {
	db dbtx
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// WithTx returns a copy of the store bound to tx.
func (s *TaskStore) WithTx(tx *sql.Tx) *TaskStore {
	return &TaskStore{db: tx}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var recurring, completed int
	var completedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.ChildName, &t.Text, &t.Reward,
		&recurring, &completed, &completedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Recurring = recurring != 0
	t.Completed = completed != 0
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

const taskCols = `id, child_name, text, reward, recurring, completed, completed_at, created_at`

func (s *TaskStore) Create(childName, text string, reward int, recurring bool, createdAt time.Time) (*model.Task, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (child_name, text, reward, recurring, created_at) VALUES (?, ?, ?, ?, ?)`,
		childName, text, reward, boolToInt(recurring), createdAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns tasks matching the completed flag, newest created first. An
// empty childName lists across all children.
func (s *TaskStore) List(childName string, completed bool) ([]model.Task, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if childName == "" {
		rows, err = s.db.Query(
			`SELECT `+taskCols+` FROM tasks WHERE completed = ? ORDER BY created_at DESC, id DESC`,
			boolToInt(completed),
		)
	} else {
		rows, err = s.db.Query(
			`SELECT `+taskCols+` FROM tasks WHERE child_name = ? AND completed = ? ORDER BY created_at DESC, id DESC`,
			childName, boolToInt(completed),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return scanTasks(rows)
}

// ListRecurring returns every recurring task ordered by child, then id.
func (s *TaskStore) ListRecurring() ([]model.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks WHERE recurring = 1 ORDER BY child_name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list recurring tasks: %w", err)
	}
	return scanTasks(rows)
}

// BulkCreateRecurring creates one recurring task per template entry. Children
// are processed in name order so ids are assigned deterministically.
func (s *TaskStore) BulkCreateRecurring(perChild map[string][]model.TaskTemplate, createdAt time.Time) (int, error) {
	names := make([]string, 0, len(perChild))
	for name := range perChild {
		names = append(names, name)
	}
	sort.Strings(names)

	created := 0
	for _, name := range names {
		for _, tmpl := range perChild[name] {
			if _, err := s.db.Exec(
				`INSERT INTO tasks (child_name, text, reward, recurring, created_at) VALUES (?, ?, ?, 1, ?)`,
				name, tmpl.Text, tmpl.Reward, createdAt.UTC(),
			); err != nil {
				return created, fmt.Errorf("insert recurring task for %q: %w", name, err)
			}
			created++
		}
	}
	return created, nil
}

// DeleteRecurring removes every recurring task regardless of completion state.
func (s *TaskStore) DeleteRecurring() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE recurring = 1`)
	if err != nil {
		return 0, fmt.Errorf("delete recurring tasks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *TaskStore) CountRecurring() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE recurring = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recurring tasks: %w", err)
	}
	return n, nil
}

func (s *TaskStore) CountByChild(childName string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE child_name = ?`, childName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *TaskStore) CountIncomplete(childName string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tasks WHERE child_name = ? AND completed = 0`,
		childName,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count incomplete tasks: %w", err)
	}
	return n, nil
}

// MarkCompleted flips an incomplete task owned by childName to completed.
// It reports false when no row matched: the task is missing, already
// completed, or belongs to another child.
func (s *TaskStore) MarkCompleted(id int64, childName string, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET completed = 1, completed_at = ? WHERE id = ? AND child_name = ? AND completed = 0`,
		at.UTC(), id, childName,
	)
	if err != nil {
		return false, fmt.Errorf("mark task completed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// LatestCompletion returns the most recent completion time for the child,
// or nil when nothing has been completed.
func (s *TaskStore) LatestCompletion(childName string) (*time.Time, error) {
	var at sql.NullTime
	err := s.db.QueryRow(
		`SELECT completed_at FROM tasks WHERE child_name = ? AND completed = 1 ORDER BY completed_at DESC LIMIT 1`,
		childName,
	).Scan(&at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest completion: %w", err)
	}
	if !at.Valid {
		return nil, nil
	}
	return &at.Time, nil
}

// PendingTasks returns the child's completed tasks whose completion is
// strictly after the child's most recent cash-out (or all completed tasks
// when there has been none), newest completion first. It runs as a single
// statement so the reset lookup and the scan see the same snapshot.
func (s *TaskStore) PendingTasks(childName string) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE child_name = ? AND completed = 1
		   AND completed_at > COALESCE(
		       (SELECT reset_at FROM cash_outs WHERE child_name = ? ORDER BY reset_at DESC, id DESC LIMIT 1), '')
		 ORDER BY completed_at DESC, id DESC`,
		childName, childName,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	return scanTasks(rows)
}

// SumCompleted returns the all-time reward total of the child's completed tasks.
func (s *TaskStore) SumCompleted(childName string) (int, error) {
	var sum int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(reward), 0) FROM tasks WHERE child_name = ? AND completed = 1`,
		childName,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum completed rewards: %w", err)
	}
	return sum, nil
}

// CompletedSince returns the count and reward total of tasks completed after since.
func (s *TaskStore) CompletedSince(since time.Time) (count, reward int, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(reward), 0) FROM tasks WHERE completed = 1 AND completed_at > ?`,
		since.UTC(),
	).Scan(&count, &reward)
	if err != nil {
		return 0, 0, fmt.Errorf("completed since: %w", err)
	}
	return count, reward, nil
}
