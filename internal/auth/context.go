package auth

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleAgency Role = "agency"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleAgency:
		return true
	}
	return false
}

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type actorKey struct{}

func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
