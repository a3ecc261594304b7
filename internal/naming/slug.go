// Package naming builds the storage-key-safe tokens and key templates used
// by every sink in the ingest pipeline.
package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^0-9a-z]+`)
	slugForm = regexp.MustCompile(`^[0-9a-z]+(-[0-9a-z]+)*$`)
)

// Slugify converts a human-readable market name into a storage-key-safe
// token. Lower-cases, removes parentheses, slashes and hyphens outright,
// collapses any remaining run of non-alphanumerics to a single dash, and
// trims edge dashes. A token already in slug form is a fixed point, so the
// hyphen removal never eats the dashes a previous pass produced.
// Deterministic and idempotent; distinct names may collapse to the same
// slug.
func Slugify(name string) string {
	if slugForm.MatchString(name) {
		return name
	}
	cleaned := strings.ToLower(name)
	cleaned = strings.NewReplacer("(", "", ")", "", "/", "", "-", "").Replace(cleaned)
	cleaned = nonAlnum.ReplaceAllString(cleaned, "-")
	return strings.Trim(cleaned, "-")
}
