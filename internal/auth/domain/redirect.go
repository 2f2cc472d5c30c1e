package domain

import "strings"

// SafeRedirectPath validates a caller-supplied post-login destination.
// Only same-origin relative paths are accepted: the value must start with a
// single leading slash. Protocol-relative ("//evil.com") and absolute
// ("http://evil.com") destinations fall back to the default landing path,
// closing the open-redirect hole.
func SafeRedirectPath(next, fallback string) string {
	if next == "" {
		return fallback
	}
	// Browsers normalize a leading "/\" to "//", so a backslash second
	// character is protocol-relative too.
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
