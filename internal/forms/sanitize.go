package forms

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richTextPolicy  = bluemonday.UGCPolicy()
	plainTextPolicy = bluemonday.StrictPolicy()
)

// RichText keeps safe formatting markup in free-text fields such as
// homework details.
func RichText(input string) string {
	return strings.TrimSpace(richTextPolicy.Sanitize(input))
}

// PlainText strips all markup from single-line fields.
func PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(plainTextPolicy.Sanitize(input)))
}
