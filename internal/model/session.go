package model

import "time"

type Role string

const (
	RoleNone   Role = ""
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Identity is who an actor is currently acting as. ChildName is set only
// for RoleChild.
type Identity struct {
	Role      Role   `json:"role"`
	ChildName string `json:"child_name,omitempty"`
}

func (id Identity) IsParent() bool { return id.Role == RoleParent }

func (id Identity) IsChild() bool { return id.Role == RoleChild && id.ChildName != "" }

type Session struct {
	ActorID    string    `json:"actor_id"`
	Identity   Identity  `json:"identity"`
	LastActive time.Time `json:"last_active"`
}
