package middleware

import (
	"net/http"

	"github.com/kyilmaz/dealerpool/internal/usecase"
)

// ActorHeader names the operator performing an admin action. The value is
// recorded on processed transactions and in the audit trail.
const ActorHeader = "X-Actor-ID"

// Actor attaches the operator identity from the request header to the context.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(ActorHeader); actor != "" {
			r = r.WithContext(usecase.WithActor(r.Context(), actor))
		}

		next.ServeHTTP(w, r)
	})
}
