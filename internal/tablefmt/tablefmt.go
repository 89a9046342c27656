// Package tablefmt canonicalizes tabular cell grids into pipe-delimited
// Markdown tables.
package tablefmt

import "strings"

// ToMarkdown renders rows as a Markdown table. rows[0] is the header and the
// separator line has one "---" per header column. Empty input yields "".
func ToMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, row(rows[0]))

	sep := make([]string, len(rows[0]))
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, row(sep))

	for _, r := range rows[1:] {
		lines = append(lines, row(r))
	}
	return strings.Join(lines, "\n")
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
