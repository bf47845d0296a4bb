package ui

import (
	"html"
	"strings"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// RenderMarked turns highlighted HTML from the search package into terminal
// text: entities are unescaped and <mark> spans get the Mark style, or
// [brackets] when color is off.
func RenderMarked(s string, st Styles, noColor bool) string {
	var sb strings.Builder
	for {
		i := strings.Index(s, markOpen)
		if i < 0 {
			sb.WriteString(html.UnescapeString(s))
			return sb.String()
		}
		sb.WriteString(html.UnescapeString(s[:i]))
		s = s[i+len(markOpen):]

		j := strings.Index(s, markClose)
		if j < 0 {
			j = len(s)
		}
		seg := html.UnescapeString(s[:j])
		if noColor {
			sb.WriteString("[" + seg + "]")
		} else {
			sb.WriteString(st.Mark.Render(seg))
		}
		if j == len(s) {
			return sb.String()
		}
		s = s[j+len(markClose):]
	}
}
