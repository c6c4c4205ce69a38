package markdown

import "strings"

const (
	metaTitle       = "**Meta Title:**"
	metaDescription = "**Meta Description:**"
)

// Article is a draft split into its parts.
type Article struct {
	Title       string
	Description string
	Body        string // Markdown, without the title line and meta lines
}

// ParseArticle extracts the title and description of a draft. The title is
// the first "**Meta Title:**" line or, failing that, the first "# " heading.
// The body is everything after the title line, minus meta lines.
func ParseArticle(md string) Article {
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	var a Article
	start := 0

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, metaTitle) {
			a.Title = strings.TrimSpace(strings.TrimPrefix(line, metaTitle))
			start = i + 1
			break
		}
	}
	if a.Title == "" {
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "# ") {
				a.Title = strings.TrimSpace(line[2:])
				start = i + 1
				break
			}
		}
	}

	for _, line := range lines {
		if t := strings.TrimSpace(line); strings.HasPrefix(t, metaDescription) {
			a.Description = strings.TrimSpace(strings.TrimPrefix(t, metaDescription))
			break
		}
	}

	var body []string
	for _, line := range lines[start:] {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, metaDescription) || strings.HasPrefix(t, metaTitle) {
			continue
		}
		body = append(body, line)
	}
	a.Body = strings.TrimSpace(strings.Join(body, "\n"))
	return a
}
