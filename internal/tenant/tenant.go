// Package tenant resolves and carries the acting tenant for an operation.
// The resolved tenant travels as an explicit context value, never as mutable
// ambient state, so one request can never observe another request's tenant.
package tenant

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// HeaderName is the HTTP header carrying an explicit tenant id.
const HeaderName = "X-Tenant-Id"

type ctxKey struct{}

// Resolve picks the acting tenant from an explicit header value and an
// auth-claim value. The header wins; either may be empty. Malformed ids are
// treated as absent rather than guessed at.
func Resolve(headerValue, claimValue string) (string, bool) {
	for _, raw := range []string{headerValue, claimValue} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if id, err := uuid.Parse(raw); err == nil {
			return id.String(), true
		}
	}
	return "", false
}

// With returns a context carrying the tenant id. If the context already
// carries one, the original context is returned unchanged: the resolved
// tenant is immutable for the lifetime of the operation.
func With(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	if _, ok := From(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// From extracts the resolved tenant id, if any.
func From(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
