// Package htmlsanitize strips unsafe markup from user-authored HTML
// before it is stored. Announcement bodies and chat messages pass
// through here; everything else is treated as plain text.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize removes script tags, event handler attributes, and
// javascript: URLs while keeping ordinary formatting markup.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
