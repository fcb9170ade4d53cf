package bruker

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	trailingStarRe = regexp.MustCompile(`\*$`)
	nonWordRe      = regexp.MustCompile(`[^\w#]`)
	multiDashRe    = regexp.MustCompile(`-+`)
)

// CleanName normalizes an instrument-sourced name into a database-friendly
// identifier: lowercased, special characters folded ('*' to t, trailing
// '*' to -s, '+' to p), and everything else outside word characters and
// '#' collapsed to single dashes.
func CleanName(name string) string {
	name = strings.ReplaceAll(name, `\`, " ")
	name = strings.TrimSpace(name)
	name = collapseSpaces(name)
	name = strings.ToLower(name)
	name = trailingStarRe.ReplaceAllString(name, "-s")
	name = strings.ReplaceAll(name, "*", "t")
	name = strings.ReplaceAll(name, "+", "p")
	name = nonWordRe.ReplaceAllString(name, "-")
	name = multiDashRe.ReplaceAllString(name, "-")
	name = strings.TrimPrefix(name, "-")
	name = strings.TrimRight(name, "-")
	return name
}

// CleanNames normalizes a list of names and makes the result unique by
// appending #1, #2, ... to repeats.
func CleanNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		cleaned := CleanName(name)
		if n, dup := seen[cleaned]; dup {
			seen[cleaned] = n + 1
			out[i] = cleaned + "#" + strconv.Itoa(n+1)
		} else {
			seen[cleaned] = 0
			out[i] = cleaned
		}
	}
	return out
}
