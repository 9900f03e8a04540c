package core

import "context"

type auditCtxKey string

const auditCtxKeyClientIP auditCtxKey = "verifykit.client_ip"

// WithClientIP annotates ctx so flow controllers can stamp the caller's IP
// into audit records without threading it through every signature.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, auditCtxKeyClientIP, ip)
}

// ClientIPFromContext returns the IP set by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(auditCtxKeyClientIP).(string)
	return s
}
