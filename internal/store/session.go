package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/chorestars/internal/model"
)

// SessionStore maps an external actor (a chat identity) to the identity it
// is currently acting as. Entries are transient and safe to purge.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the clock used for last-activity timestamps.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.now = now
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var sess model.Session
	var role string
	var childName sql.NullString

	if err := scanner.Scan(&sess.ActorID, &role, &childName, &sess.LastActive); err != nil {
		return nil, err
	}
	sess.Identity.Role = model.Role(role)
	if childName.Valid {
		sess.Identity.ChildName = childName.String
	}
	return &sess, nil
}

const sessionCols = `actor_id, role, child_name, last_active`

// SetActive records who actorID is acting as. Last write wins. Acting as a
// child also adds that child to the actor's available children.
func (s *SessionStore) SetActive(actorID string, id model.Identity) error {
	if actorID == "" {
		return errors.New("set active: empty actor id")
	}
	var childName sql.NullString
	switch id.Role {
	case model.RoleChild:
		if id.ChildName == "" {
			return errors.New("set active: child role without child name")
		}
		childName = sql.NullString{String: id.ChildName, Valid: true}
	case model.RoleParent, model.RoleNone:
	default:
		return fmt.Errorf("set active: unknown role %q", id.Role)
	}

	now := s.now().UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO sessions (actor_id, role, child_name, last_active) VALUES (?, ?, ?, ?)
		 ON CONFLICT(actor_id) DO UPDATE SET role = excluded.role, child_name = excluded.child_name, last_active = excluded.last_active`,
		actorID, string(id.Role), childName, now,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if childName.Valid {
		if _, err := tx.Exec(
			`INSERT INTO session_children (actor_id, child_name, last_used) VALUES (?, ?, ?)
			 ON CONFLICT(actor_id, child_name) DO UPDATE SET last_used = excluded.last_used`,
			actorID, childName.String, now,
		); err != nil {
			return fmt.Errorf("record session child: %w", err)
		}
	}
	return tx.Commit()
}

// GetActive returns the identity actorID is acting as and refreshes its
// last-activity time. Unknown actors resolve to the zero Identity.
func (s *SessionStore) GetActive(actorID string) (model.Identity, error) {
	result, err := s.db.Exec(`UPDATE sessions SET last_active = ? WHERE actor_id = ?`, s.now().UTC(), actorID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("touch session: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return model.Identity{}, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return model.Identity{}, nil
	}

	sess, err := s.Get(actorID)
	if err != nil || sess == nil {
		return model.Identity{}, err
	}
	return sess.Identity, nil
}

// Get returns the raw session row without touching it, or nil.
func (s *SessionStore) Get(actorID string) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE actor_id = ?`, actorID)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// AvailableChildren lists the children actorID has acted as, most recent first.
func (s *SessionStore) AvailableChildren(actorID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT child_name FROM session_children WHERE actor_id = ? ORDER BY last_used DESC, child_name ASC`,
		actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list session children: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan session child: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CleanupInactive deletes sessions idle for longer than olderThan, along
// with their child history. Child and ledger rows are never touched.
func (s *SessionStore) CleanupInactive(olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).UTC()
	result, err := s.db.Exec(`DELETE FROM sessions WHERE last_active < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete inactive sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
