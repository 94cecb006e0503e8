// Package search builds substring filters that behave the same on mysql, postgres and sqlite.
package search

import "strings"

// '!' is accepted as a LIKE escape by every supported dialect; a backslash is not.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsClause matches column case-insensitively against a pattern from ContainsPattern.
func ContainsClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '!'"
}

// ContainsPattern lowercases value and escapes its wildcards so it only matches literally.
func ContainsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}
