package auth

import (
	"context"
	"testing"

	"github.com/dukerupert/chorestars/internal/model"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		ActorID:  "tg-100",
		Identity: model.Identity{Role: model.RoleChild, ChildName: "ramz"},
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.ActorID != "tg-100" {
		t.Errorf("ActorID = %q, want %q", got.ActorID, "tg-100")
	}
	if got.Identity.Role != model.RoleChild {
		t.Errorf("Role = %q, want %q", got.Identity.Role, model.RoleChild)
	}
	if got.Identity.ChildName != "ramz" {
		t.Errorf("ChildName = %q, want %q", got.Identity.ChildName, "ramz")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestActorID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{ActorID: "tg-7"})
	if ActorID(ctx) != "tg-7" {
		t.Errorf("ActorID = %q, want tg-7", ActorID(ctx))
	}
}

func TestActorIDMissing(t *testing.T) {
	if ActorID(context.Background()) != "" {
		t.Error("expected empty actor for missing context")
	}
}

func TestChildName(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{
		Identity: model.Identity{Role: model.RoleChild, ChildName: "riza"},
	})
	if ChildName(ctx) != "riza" {
		t.Errorf("ChildName = %q, want riza", ChildName(ctx))
	}
}

func TestChildNameForParent(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{
		Identity: model.Identity{Role: model.RoleParent},
	})
	if ChildName(ctx) != "" {
		t.Errorf("ChildName = %q, want empty for parent", ChildName(ctx))
	}
}

func TestIsParent(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{Identity: model.Identity{Role: model.RoleParent}})
	if !IsParent(ctx) {
		t.Error("expected IsParent = true for parent role")
	}
}

func TestIsParentFalse(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{
		Identity: model.Identity{Role: model.RoleChild, ChildName: "djama"},
	})
	if IsParent(ctx) {
		t.Error("expected IsParent = false for child role")
	}
}

func TestIsParentMissing(t *testing.T) {
	if IsParent(context.Background()) {
		t.Error("expected IsParent = false for missing context")
	}
}
