// Package middle holds HTTP middleware for the narratr compile service,
// adapted from github.com/dekarrin/tunaq's server/middle package: the same
// bearer-token auth handler and panic-recovery wrapper, narrowed to the
// one thing this service authenticates (a job owner id) instead of a full
// user/session/role model.
package middle

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dekarrin/narratr/internal/svc/auth"
)

type ctxKey int

const (
	ctxOwnerID ctxKey = iota
	ctxLoggedIn
)

// OwnerID retrieves the authenticated caller's id from the request
// context, as set by RequireAuth.
func OwnerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxOwnerID).(uuid.UUID)
	return id, ok
}

// Middleware matches the signature chi (and net/http generally) expects.
type Middleware func(next http.Handler) http.Handler

// RequireAuth rejects any request without a valid "Authorization: Bearer
// <token>" header, and otherwise stores the token's owner id in the
// request context for downstream handlers.
func RequireAuth(secret []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			tok, err := bearerToken(req)
			if err == nil {
				var ownerID uuid.UUID
				ownerID, err = auth.ValidateToken(secret, tok)
				if err == nil {
					ctx := context.WithValue(req.Context(), ctxOwnerID, ownerID)
					ctx = context.WithValue(ctx, ctxLoggedIn, true)
					next.ServeHTTP(w, req.WithContext(ctx))
					return
				}
			}

			time.Sleep(unauthDelay)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

func bearerToken(req *http.Request) (string, error) {
	h := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", fmt.Errorf("missing or malformed Authorization header")
	}
	return strings.TrimPrefix(h, prefix), nil
}

// DontPanic recovers from a panic in the wrapped handler and converts it
// into a generic HTTP-500, matching tunaq's panicTo500 behavior.
func DontPanic() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if panicErr := recover(); panicErr != nil {
					fmt.Printf("panic: %v\nSTACK TRACE: %s\n", panicErr, string(debug.Stack()))
					http.Error(w, "an internal server error occurred", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, req)
		})
	}
}
