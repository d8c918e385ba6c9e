// Package access carries the request caller and answers capability checks.
package access

import "context"

// Caller identifies who is making a request.
type Caller struct {
	UserID int64
	Locale string
}

type callerContextKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, c)
}

// CallerFromContext returns the caller stored in ctx, or the zero Caller
// (an anonymous visitor).
func CallerFromContext(ctx context.Context) Caller {
	if ctx == nil {
		return Caller{}
	}
	c, _ := ctx.Value(callerContextKey{}).(Caller)
	return c
}
