package models

import (
	"context"

	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// Principal is the authenticated caller injected by the auth middleware.
// Services never read it ambiently: handlers pull the ids out and pass them
// as explicit arguments.
type Principal struct {
	ID   uuid.UUID
	Role types.UserRole
}

// AnonymousPrincipal marks a request that carried no credentials.
func AnonymousPrincipal() *Principal {
	return &Principal{}
}

func (p *Principal) IsAnonymous() bool {
	return p == nil || p.Role == ""
}

type principalCtxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalCtxKey{}).(*Principal); ok {
		return p
	}
	return nil
}
