// Package markdown converts the Markdown drafts produced by the content
// workflow into the HTML stored in blog posts.
package markdown

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`\b_([^_]+)_\b`)
	reInlineCode       = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reOrderedList      = regexp.MustCompile(`^(\d+)\.\s`)
	reHeading          = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
)

// block is the kind of multi-line element currently open.
type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrderedList
	blockQuote
	blockCode
)

var closing = map[block]string{
	blockPara:        "</p>\n",
	blockList:        "</ul>\n",
	blockOrderedList: "</ol>\n",
	blockQuote:       "</blockquote>\n",
	blockCode:        "</code></pre>\n",
}

type renderer struct {
	b    strings.Builder
	open block
}

func (r *renderer) close() {
	r.b.WriteString(closing[r.open])
	r.open = blockNone
}

// enter opens kind unless it is already open, closing whatever else was.
// It reports whether a new block was started.
func (r *renderer) enter(kind block, tag string) bool {
	if r.open == kind {
		return false
	}
	r.close()
	r.b.WriteString(tag)
	r.open = kind
	return true
}

// ToHTML converts md to HTML. Text is escaped; only the Markdown constructs
// below produce markup: headings, paragraphs, lists, block quotes, fenced
// code, horizontal rules, emphasis, inline code and links.
func ToHTML(md string) string {
	r := &renderer{}
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, "\r")

		if strings.HasPrefix(line, "```") {
			if r.open == blockCode {
				r.close()
				continue
			}
			lang := strings.TrimSpace(line[3:])
			if lang != "" {
				r.enter(blockCode, `<pre><code class="language-`+html.EscapeString(lang)+`">`)
			} else {
				r.enter(blockCode, "<pre><code>")
			}
			continue
		}
		if r.open == blockCode {
			r.b.WriteString(html.EscapeString(line))
			r.b.WriteByte('\n')
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			r.close()
		case strings.HasPrefix(trimmed, "---") && strings.Trim(trimmed, "-") == "":
			r.close()
			r.b.WriteString("<hr/>\n")
		case reHeading.MatchString(trimmed):
			r.close()
			m := reHeading.FindStringSubmatch(trimmed)
			level := strconv.Itoa(len(m[1]))
			r.b.WriteString("<h" + level + ">" + FormatInline(strings.TrimSpace(m[2])) + "</h" + level + ">\n")
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			r.enter(blockList, "<ul>\n")
			r.b.WriteString("<li>" + FormatInline(strings.TrimSpace(trimmed[2:])) + "</li>\n")
		case reOrderedList.MatchString(trimmed):
			r.enter(blockOrderedList, "<ol>\n")
			item := reOrderedList.ReplaceAllString(trimmed, "")
			r.b.WriteString("<li>" + FormatInline(strings.TrimSpace(item)) + "</li>\n")
		case strings.HasPrefix(trimmed, ">"):
			if !r.enter(blockQuote, "<blockquote>") {
				r.b.WriteByte(' ')
			}
			r.b.WriteString(FormatInline(strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))))
		default:
			if !r.enter(blockPara, "<p>") {
				r.b.WriteByte(' ')
			}
			r.b.WriteString(FormatInline(trimmed))
		}
	}
	r.close()
	return r.b.String()
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags, so
// formatting never touches URLs inside href attributes.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// FormatInline escapes s and applies inline formatting.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)

	// inline code is swapped out first so nothing inside backticks is formatted
	var code []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		code = append(code, "<code>"+reInlineCode.FindStringSubmatch(m)[1]+"</code>")
		return "\x00IC" + strconv.Itoa(len(code)-1) + "\x00"
	})

	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `">` + match[1] + `</a>`
	})
	escaped = ApplyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
		return seg
	})

	for i, c := range code {
		escaped = strings.Replace(escaped, "\x00IC"+strconv.Itoa(i)+"\x00", c, 1)
	}
	return escaped
}

// SafeURL returns raw escaped for an href attribute, or "" when its scheme is
// not allowed.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
