// Package render turns itinerary records into HTML fragments: link lists,
// detail blocks, card summaries, day states and the modal overlay.
package render

import (
	"fmt"
	"strings"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape makes s safe for insertion into HTML text and quoted attribute values.
func Escape(s string) string {
	return htmlReplacer.Replace(s)
}

// EscapeValue escapes any value; nil becomes the empty string.
func EscapeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return Escape(t)
	case fmt.Stringer:
		return Escape(t.String())
	case error:
		return Escape(t.Error())
	default:
		return Escape(fmt.Sprint(t))
	}
}
