package identity

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var sessionCtxKey = &contextKey{"session"}
var sourceAddrCtxKey = &contextKey{"source_addr"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithSessionContext sets the Session in the given context
func WithSessionContext(r context.Context, session Session) context.Context {
	return context.WithValue(r, sessionCtxKey, session)
}

// SessionFromContext extracts the Session from the context
func SessionFromContext(ctx context.Context) (Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(Session)
	return raw, ok
}

// WithSourceAddr records the request's remote address so audit events can
// carry it.
func WithSourceAddr(r context.Context, addr string) context.Context {
	return context.WithValue(r, sourceAddrCtxKey, addr)
}

// SourceAddrFromContext extracts the remote address, if any.
func SourceAddrFromContext(ctx context.Context) string {
	addr, _ := ctx.Value(sourceAddrCtxKey).(string)
	return addr
}
