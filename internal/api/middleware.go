package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mjacome/quill/internal/auth"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	bodyKey
)

// verifyToken extracts the bearer token, verifies it and attaches the
// decoded claims to the request context. Absent or invalid tokens end
// the request with 403 before the handler runs.
func (h *Handlers) verifyToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		claims, err := h.auth.Verify(token)
		if err != nil {
			log.Debug().Err(err).Msg("token verification failed")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// verifyAdmin gates admin-only routes. It must be composed after
// verifyToken, which populates the claims.
func (h *Handlers) verifyAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || !claims.Type.IsAdmin() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// withBody decodes and validates the request payload ahead of the auth
// middleware, so malformed input is rejected without touching the store
// or the token.
func withBody[T any](next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := new(T)
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := checkRequest(body); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), bodyKey, body)))
	}
}

func bodyFromContext[T any](ctx context.Context) *T {
	body, _ := ctx.Value(bodyKey).(*T)
	return body
}
