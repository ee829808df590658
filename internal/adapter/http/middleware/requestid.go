package middleware

import (
	"net/http"

	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// RequestID injects a request id into the log context. An inbound
// X-Request-ID is honored so ids survive proxy hops.
func (h *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.MustNew().String()
		}

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(wrap.WithRequestID(r.Context(), id)))
	})
}
