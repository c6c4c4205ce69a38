// Package blog maps rows of the blog_posts table to posts and owns the SQL
// used to read and write them.
package blog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liveenity/liveenity/libsql"
)

// ErrNotFound is returned when no post has the requested slug.
var ErrNotFound = errors.New("post not found")

const (
	DefaultTitle   = "No Title"
	DefaultContent = "No content available"

	// DisplayLayout is the human readable date shown on post pages.
	DisplayLayout = "January 2, 2006"
)

var timestampLayouts = []string{
	libsql.TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Post is a published blog article. Content is HTML.
type Post struct {
	ID        int64
	Slug      string
	Title     string
	Content   string
	CreatedAt time.Time

	// RawCreatedAt holds the stored value when it could not be parsed.
	RawCreatedAt string
}

// DisplayDate formats CreatedAt for display. A post without a creation time
// shows now; one with an unparseable value shows the value as stored.
func (p Post) DisplayDate(now time.Time) string {
	if !p.CreatedAt.IsZero() {
		return p.CreatedAt.Format(DisplayLayout)
	}
	if p.RawCreatedAt != "" {
		return p.RawCreatedAt
	}
	return now.Format(DisplayLayout)
}

// Preview returns the first n characters of the content followed by "...".
func (p Post) Preview(n int) string {
	r := []rune(p.Content)
	if len(r) <= n {
		return p.Content
	}
	return string(r[:n]) + "..."
}

// postFromRecord maps a row by column name so tables with missing optional
// columns still load.
func postFromRecord(rec map[string]libsql.Value) Post {
	p := Post{
		Title:   DefaultTitle,
		Content: DefaultContent,
	}
	if v, ok := rec["id"].(int64); ok {
		p.ID = v
	}
	if s := asString(rec["slug"]); s != "" {
		p.Slug = s
	}
	if rec["title"] != nil {
		p.Title = asString(rec["title"])
	}
	if rec["content"] != nil {
		p.Content = asString(rec["content"])
	}
	switch v := rec["created_at"].(type) {
	case nil:
	case int64:
		p.CreatedAt = time.Unix(v, 0).UTC()
	default:
		raw := strings.TrimSpace(asString(v))
		if t, ok := parseTimestamp(raw); ok {
			p.CreatedAt = t
		} else {
			p.RawCreatedAt = raw
		}
	}
	return p
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asString(v libsql.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
