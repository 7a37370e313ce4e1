package authcore

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's source IP to the context. The login
// limiter uses it for per-IP throttling when enabled; everything else
// ignores it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
