package grammar

import "strings"

var rep = strings.NewReplacer(
	`.`, `\.`,
	`*`, `\*`,
	`+`, `\+`,
	`?`, `\?`,
	`|`, `\|`,
	`(`, `\(`,
	`)`, `\)`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
	`^`, `\^`,
	`$`, `\$`,
	`\`, `\\`,
)

// EscapePattern escapes the special characters so that the result is a pattern matching s
// literally. For example, EscapePattern(`a+`) returns `a\+`.
func EscapePattern(s string) string {
	return rep.Replace(s)
}
