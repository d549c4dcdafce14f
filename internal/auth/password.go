package auth

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorestars/internal/model"
)

var ErrDuplicatePassword = errors.New("two roles share a password")

type credential struct {
	identity model.Identity
	hash     []byte
}

// Authenticator resolves a login password to the role it belongs to. Only
// bcrypt hashes are kept after construction.
type Authenticator struct {
	creds []credential
}

// NewAuthenticator hashes the parent password and one password per child.
// Empty passwords disable that role. cost is the bcrypt cost; zero means
// bcrypt.DefaultCost.
func NewAuthenticator(parentPassword string, childPasswords map[string]string, cost int) (*Authenticator, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	seen := make(map[string]string)
	a := &Authenticator{}
	add := func(id model.Identity, label, password string) error {
		if password == "" {
			return nil
		}
		if other, ok := seen[password]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicatePassword, other, label)
		}
		seen[password] = label

		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", label, err)
		}
		a.creds = append(a.creds, credential{identity: id, hash: hash})
		return nil
	}

	if err := add(model.Identity{Role: model.RoleParent}, "parent", parentPassword); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(childPasswords))
	for name := range childPasswords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id := model.Identity{Role: model.RoleChild, ChildName: name}
		if err := add(id, name, childPasswords[name]); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Authenticate returns the identity whose password matches. ok is false
// when no role matches.
func (a *Authenticator) Authenticate(password string) (model.Identity, bool) {
	if password == "" {
		return model.Identity{}, false
	}
	for _, c := range a.creds {
		if bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil {
			return c.identity, true
		}
	}
	return model.Identity{}, false
}

// Roles returns how many roles can log in.
func (a *Authenticator) Roles() int {
	return len(a.creds)
}
