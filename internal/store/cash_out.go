package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorestars/internal/model"
)

// CashOutStore persists reset events. Rows are append-only.
type CashOutStore struct {
	db dbtx
}

func NewCashOutStore(db *sql.DB) *CashOutStore {
	return &CashOutStore{db: db}
}

// WithTx returns a copy of the store bound to tx.
func (s *CashOutStore) WithTx(tx *sql.Tx) *CashOutStore {
	return &CashOutStore{db: tx}
}

func scanCashOut(scanner interface{ Scan(...any) error }) (*model.CashOut, error) {
	var c model.CashOut
	if err := scanner.Scan(&c.ID, &c.ChildName, &c.Amount, &c.ResetAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const cashOutCols = `id, child_name, amount, reset_at`

func (s *CashOutStore) Record(childName string, amount int, at time.Time) (*model.CashOut, error) {
	result, err := s.db.Exec(
		`INSERT INTO cash_outs (child_name, amount, reset_at) VALUES (?, ?, ?)`,
		childName, amount, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert cash-out: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+cashOutCols+` FROM cash_outs WHERE id = ?`, id)
	return scanCashOut(row)
}

// Last returns the child's most recent cash-out, or nil if there is none.
func (s *CashOutStore) Last(childName string) (*model.CashOut, error) {
	row := s.db.QueryRow(
		`SELECT `+cashOutCols+` FROM cash_outs WHERE child_name = ? ORDER BY reset_at DESC, id DESC LIMIT 1`,
		childName,
	)
	c, err := scanCashOut(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last cash-out: %w", err)
	}
	return c, nil
}

// List returns cash-outs newest first. An empty childName lists all children.
func (s *CashOutStore) List(childName string) ([]model.CashOut, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if childName == "" {
		rows, err = s.db.Query(`SELECT ` + cashOutCols + ` FROM cash_outs ORDER BY reset_at DESC, id DESC`)
	} else {
		rows, err = s.db.Query(
			`SELECT `+cashOutCols+` FROM cash_outs WHERE child_name = ? ORDER BY reset_at DESC, id DESC`,
			childName,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list cash-outs: %w", err)
	}
	defer rows.Close()

	var cashOuts []model.CashOut
	for rows.Next() {
		c, err := scanCashOut(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cash-out: %w", err)
		}
		cashOuts = append(cashOuts, *c)
	}
	return cashOuts, rows.Err()
}

func (s *CashOutStore) TotalPaidOut() (int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM cash_outs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum cash-outs: %w", err)
	}
	return total, nil
}
