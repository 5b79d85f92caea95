package catalog

import (
	"strings"

	"golang.org/x/text/width"
)

// FoldName normalizes a program name for search comparison. Broadcast titles
// mix half-width and full-width katakana and ASCII; width folding plus case
// folding makes 【ﾆｭｰｽ】 and 【ニュース】 compare equal.
func FoldName(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

// NameMatches reports whether name contains query under folded comparison.
// An empty query matches everything.
func NameMatches(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(FoldName(name), FoldName(query))
}
