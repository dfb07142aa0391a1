package utils

import (
	"fmt"
	"strings"
)

// XMLEscapeText escapes s for use as XML character data: `<`, `>`, `&`,
// `'` (as "&#39;") and `"` become named/numeric entity references; any
// other character below 0x20 or above 0x7F becomes a numeric &#xHH;
// reference.
func XMLEscapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '&':
			b.WriteString("&amp;")
		case r == '\'':
			b.WriteString("&#39;")
		case r == '"':
			b.WriteString("&quot;")
		case r < 0x20 || r > 0x7F:
			fmt.Fprintf(&b, "&#x%X;", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
