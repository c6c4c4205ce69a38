package liveenity

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/liveenity/liveenity/blog"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// BuildSitemap returns sitemap XML listing the home page and every post
// under /pages/<slug>.
func BuildSitemap(base string, posts []blog.Post, now time.Time) ([]byte, error) {
	today := now.Format("2006-01-02")
	urls := []sitemapURL{
		{Loc: BuildURL(base), LastMod: today, ChangeFreq: "daily", Priority: "1.0"},
	}
	for _, p := range posts {
		if p.Slug == "" {
			continue
		}
		lastmod := today
		if !p.CreatedAt.IsZero() {
			lastmod = p.CreatedAt.Format("2006-01-02")
		}
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(base, "pages", p.Slug),
			LastMod:    lastmod,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemapURLSet{XMLNS: sitemapNS, URLs: urls}); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteSitemap replaces the sitemap file at path.
func WriteSitemap(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
