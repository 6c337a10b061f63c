package record

import "strings"

// ExtractTitle returns the text after the first line whose trimmed form
// starts with "# ", or "" if no line does. The scan is over raw lines,
// not parsed markdown: a "# " line inside a fenced code block still
// counts, and setext headings never do. Pure: the same text always
// yields the same title. Callers use the result only as a fallback; an
// explicit title argument always wins.
func ExtractTitle(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "# ") {
			return strings.TrimSpace(stripped[len("# "):])
		}
	}
	return ""
}
