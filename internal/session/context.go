package session

import (
	"context"
	"net/http"

	"github.com/learnhub-academy/learnhub/internal/rbac"
)

type contextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext extracts the session from context.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

// CurrentUser resolves the signed-in user for a request. It satisfies
// rbac.UserResolver.
func CurrentUser(r *http.Request) *rbac.User {
	sess := FromContext(r.Context())
	if sess == nil {
		return nil
	}
	return sess.CurrentUser()
}
