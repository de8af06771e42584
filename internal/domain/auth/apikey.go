// Package auth holds the register API key identity model. Registers
// authenticate with per-terminal keys issued by the back office.
package auth

import "context"

// APIKeyInfo holds the identity data for a validated register API key.
type APIKeyInfo struct {
	ID       string
	KeyHash  string
	Name     string
	Register string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

type ctxKey struct{}

// NewContext returns a context carrying the authenticated key info.
func NewContext(ctx context.Context, info *APIKeyInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the authenticated key info, or nil when the request was
// not authenticated.
func FromContext(ctx context.Context) *APIKeyInfo {
	info, _ := ctx.Value(ctxKey{}).(*APIKeyInfo)
	return info
}
