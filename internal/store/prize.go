package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorestars/internal/model"
)

type PrizeStore struct {
	db *sql.DB
}

func NewPrizeStore(db *sql.DB) *PrizeStore {
	return &PrizeStore{db: db}
}

func scanPrize(scanner interface{ Scan(...any) error }) (*model.Prize, error) {
	var p model.Prize
	if err := scanner.Scan(&p.ID, &p.Title, &p.Cost, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

const prizeCols = `id, title, cost, created_at`

func (s *PrizeStore) Create(title string, cost int) (*model.Prize, error) {
	result, err := s.db.Exec(
		`INSERT INTO prizes (title, cost, created_at) VALUES (?, ?, ?)`,
		title, cost, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert prize: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PrizeStore) GetByID(id int64) (*model.Prize, error) {
	row := s.db.QueryRow(`SELECT `+prizeCols+` FROM prizes WHERE id = ?`, id)
	p, err := scanPrize(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prize: %w", err)
	}
	return p, nil
}

// List returns all prizes, cheapest first.
func (s *PrizeStore) List() ([]model.Prize, error) {
	rows, err := s.db.Query(`SELECT ` + prizeCols + ` FROM prizes ORDER BY cost ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list prizes: %w", err)
	}
	defer rows.Close()

	var prizes []model.Prize
	for rows.Next() {
		p, err := scanPrize(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prize: %w", err)
		}
		prizes = append(prizes, *p)
	}
	return prizes, rows.Err()
}

func (s *PrizeStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM prizes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete prize: %w", err)
	}
	return nil
}
