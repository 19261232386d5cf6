package device

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Middleware parses the User-Agent header into a compact "browser/version
// (os)" summary and stores it in the request context for audit events.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		summary := Summarize(r.UserAgent())
		next.ServeHTTP(w, r.WithContext(WithSummary(r.Context(), summary)))
	})
}

// Summarize reduces a raw User-Agent string to what audit events need.
func Summarize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	if os := ua.OS(); os != "" {
		return fmt.Sprintf("%s/%s (%s)", name, version, os)
	}
	return fmt.Sprintf("%s/%s", name, version)
}
