package port

import "context"

// PermissionChecker is the consumed authorization collaborator. Every
// mutating engine operation calls it before opening a transaction.
type PermissionChecker interface {
	HasPermission(ctx context.Context, action, resource string) bool
}

// Session carries the acting user identity supplied by the session
// provider. The engine never authenticates; it only consumes identity.
type Session struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the session carries the given role
func (s *Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type sessionKeyType struct{}

var sessionKey sessionKeyType

// WithSession attaches a session to the context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the session from the context, if any
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}
