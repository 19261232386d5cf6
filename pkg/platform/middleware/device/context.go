package device

import "context"

type contextKeyDevice struct{}

// GetSummary retrieves the parsed device summary from the context.
func GetSummary(ctx context.Context) string {
	if summary, ok := ctx.Value(contextKeyDevice{}).(string); ok {
		return summary
	}
	return ""
}

// WithSummary injects a device summary into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithSummary(ctx context.Context, summary string) context.Context {
	return context.WithValue(ctx, contextKeyDevice{}, summary)
}
