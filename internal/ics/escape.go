package ics

import "strings"

// textEscaper applies the RFC 5545 TEXT escaping rules. A Replacer scans
// the source text once, so the backslash rule never re-escapes the output
// of the other rules.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
