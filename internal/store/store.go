package store

import "database/sql"

// dbtx is satisfied by both *sql.DB and *sql.Tx so a store can be bound to
// a transaction with WithTx.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
