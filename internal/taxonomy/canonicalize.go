// Package taxonomy is the central registry the rest of the pipeline reads
// from: column aliases, feature-name lists, tier boundaries, the cost
// matrix, model hyperparameter defaults, and the bidirectional map between
// rubric-version dimension names. Nothing here touches I/O; it is pure
// lookup and normalization.
package taxonomy

import (
	"regexp"
	"strings"
)

var parenStripper = regexp.MustCompile(`[()]`)
var whitespaceCollapser = regexp.MustCompile(`\s+`)

// Canonicalize normalizes a raw column header: strips surrounding
// whitespace, collapses internal whitespace and replaces it with
// underscores, drops parentheses, and resolves the result against the
// alias registry. Unaliased names are returned as given, title-cased on
// underscore-separated words to match the applicant-table convention.
func Canonicalize(column string) string {
	c := strings.TrimSpace(column)
	c = parenStripper.ReplaceAllString(c, "")
	c = whitespaceCollapser.ReplaceAllString(c, "_")
	c = strings.TrimSpace(c)

	if alias, ok := ColumnAliases[strings.ToLower(c)]; ok {
		return alias
	}

	return titleCaseUnderscored(c)
}

func titleCaseUnderscored(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		lower := strings.ToLower(p)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, "_")
}

// ResolveIDColumn finds which of a table's columns is the applicant
// identifier, after canonicalization, by checking each against
// IDColumnAliases. Returns "" if none match.
func ResolveIDColumn(columns []string) string {
	for _, c := range columns {
		canon := Canonicalize(c)
		if IDColumnAliases[strings.ToLower(canon)] {
			return canon
		}
	}
	return ""
}

// ApplyTypoPatches rewrites known-typo column names to their corrected
// form. `Disadvantanged_Ind` (extra n) is the documented case (§ S2).
func ApplyTypoPatches(column string) string {
	if patched, ok := TypoPatches[column]; ok {
		return patched
	}
	return column
}
