package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorestars/internal/model"
)

type ChildStore struct {
	db dbtx
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

// WithTx returns a copy of the store bound to tx.
func (s *ChildStore) WithTx(tx *sql.Tx) *ChildStore {
	return &ChildStore{db: tx}
}

func scanChild(scanner interface{ Scan(...any) error }) (*model.Child, error) {
	var c model.Child
	if err := scanner.Scan(&c.Name, &c.Stars, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const childCols = `name, stars, created_at`

// Seed inserts any roster children that do not exist yet. Existing balances
// are left alone.
func (s *ChildStore) Seed(names []string, now time.Time) error {
	for _, name := range names {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO children (name, stars, created_at) VALUES (?, 0, ?)`,
			name, now.UTC(),
		); err != nil {
			return fmt.Errorf("seed child %q: %w", name, err)
		}
	}
	return nil
}

func (s *ChildStore) GetByName(name string) (*model.Child, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE name = ?`, name)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

func (s *ChildStore) List() ([]model.Child, error) {
	rows, err := s.db.Query(`SELECT ` + childCols + ` FROM children ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

// AddStars credits delta stars to the child's balance.
func (s *ChildStore) AddStars(name string, delta int) error {
	result, err := s.db.Exec(`UPDATE children SET stars = stars + ? WHERE name = ?`, delta, name)
	if err != nil {
		return fmt.Errorf("add stars: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("add stars: child %q not found", name)
	}
	return nil
}

func (s *ChildStore) ZeroStars(name string) error {
	if _, err := s.db.Exec(`UPDATE children SET stars = 0 WHERE name = ?`, name); err != nil {
		return fmt.Errorf("zero stars: %w", err)
	}
	return nil
}
