// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Lead fields are rendered by the dashboard as plain text and copied into
// exports, so all markup is removed rather than filtered.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes every HTML element and attribute from s, keeping the
// text content. Entities produced by the policy are unescaped again so
// "Smith & Sons" survives a round trip.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// StripAll applies StripTags to every element of ss in place and returns it.
func StripAll(ss []string) []string {
	for i, s := range ss {
		ss[i] = StripTags(s)
	}
	return ss
}
