package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
)

// --- base auth middleware ---

// Auth validates the bearer token and injects the caller into context.
// Requests without an Authorization header pass through as anonymous;
// protected endpoints reject them in RequireRoles.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			r = r.WithContext(models.WithPrincipal(ctx, models.AnonymousPrincipal()))
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerToken(header)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		subject, role, err := h.verifier.Verify(raw)
		if err != nil {
			h.log.Warn(wrap.WithAction(ctx, "authenticate"), "rejected token", "err", err.Error())
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		principal := &models.Principal{
			ID:   subject,
			Role: types.UserRole(role),
		}

		next.ServeHTTP(w, r.WithContext(models.WithPrincipal(ctx, principal)))
	})
}

// RequireRoles wraps a handler and allows only callers with one of the given
// roles. With no roles listed any authenticated caller passes.
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := models.PrincipalFromContext(r.Context())
		if principal.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[principal.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// --- header parser ---
func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
