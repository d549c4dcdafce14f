package auth

import (
	"context"

	"github.com/dukerupert/chorestars/internal/model"
)

type contextKey struct{}

// AuthContext is the resolved caller of a request.
type AuthContext struct {
	ActorID  string
	Identity model.Identity
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func ActorID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.ActorID
}

// ChildName returns the active child, or "" when the caller is not acting
// as a child.
func ChildName(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok || !ac.Identity.IsChild() {
		return ""
	}
	return ac.Identity.ChildName
}

func IsParent(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Identity.IsParent()
}
