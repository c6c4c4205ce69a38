// Package pages decides how a page request is answered: render a post into
// the blog template, serve the template unchanged, or report not found.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/liveenity/liveenity/blog"
	"github.com/liveenity/liveenity/slots"
)

// ContentTypeHTML is the content type of every resolved page.
const ContentTypeHTML = "text/html; charset=UTF-8"

const notFoundBody = `<!DOCTYPE html>
<html><head><title>404 - Page Not Found</title></head>
<body><h1>404 - Page Not Found</h1><p>The page you are looking for does not exist.</p></body>
</html>
`

// PostFinder looks up a post by slug. It returns blog.ErrNotFound when no
// post matches; any other error is treated as a database failure.
type PostFinder interface {
	GetPost(ctx context.Context, slug string) (blog.Post, error)
}

// Logger receives operator-facing diagnostics. echo.Logger satisfies it.
type Logger interface {
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Page is a resolved response.
type Page struct {
	Status      int
	Body        []byte
	ContentType string
}

// Config names the files the resolver reads and the site name used in page
// titles.
type Config struct {
	SiteName     string
	TemplatePath string // blog template, also the default page
	NotFoundPath string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source used for posts without a date.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver runs one pass of the page state machine per request. It holds no
// per-request state and is safe for concurrent use.
type Resolver struct {
	posts    PostFinder
	static   fs.FS
	renderer *slots.Renderer
	cfg      Config
	log      Logger
	now      func() time.Time
}

// NewResolver returns a Resolver. posts may be nil when no database is
// configured; every lookup then degrades to the default page.
func NewResolver(posts PostFinder, static fs.FS, cfg Config, log Logger, opts ...Option) *Resolver {
	r := &Resolver{
		posts:    posts,
		static:   static,
		renderer: slots.NewRenderer(static),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve answers a request for slug; an empty slug asks for the default
// page. Database failures never surface: the default page is served instead.
// A returned error means the page could not be produced at all and should be
// reported as a generic server error.
func (r *Resolver) Resolve(ctx context.Context, slug string) (Page, error) {
	if slug == "" {
		return r.serveDefault()
	}
	if r.posts == nil {
		r.log.Warnf("pages: no database configured, serving default page for %q", slug)
		return r.serveDefault()
	}

	post, err := r.posts.GetPost(ctx, slug)
	switch {
	case errors.Is(err, blog.ErrNotFound):
		return r.notFound(), nil
	case err != nil:
		r.log.Errorf("pages: lookup %q failed: %v", slug, err)
		return r.serveDefault()
	}
	return r.renderPost(post)
}

func (r *Resolver) renderPost(post blog.Post) (Page, error) {
	title := post.Title
	if r.cfg.SiteName != "" {
		title += " - " + r.cfg.SiteName
	}
	body, err := r.renderer.Render(r.cfg.TemplatePath, map[string]string{
		slots.Title:   title,
		slots.Heading: post.Title,
		slots.Date:    post.DisplayDate(r.now()),
		slots.Content: post.Content,
	})
	if err != nil {
		return Page{}, fmt.Errorf("render post %q: %w", post.Slug, err)
	}
	return Page{Status: http.StatusOK, Body: []byte(body), ContentType: ContentTypeHTML}, nil
}

func (r *Resolver) notFound() Page {
	body, err := fs.ReadFile(r.static, r.cfg.NotFoundPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warnf("pages: read %s: %v", r.cfg.NotFoundPath, err)
		}
		body = []byte(notFoundBody)
	}
	return Page{Status: http.StatusNotFound, Body: body, ContentType: ContentTypeHTML}
}

func (r *Resolver) serveDefault() (Page, error) {
	body, err := fs.ReadFile(r.static, r.cfg.TemplatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r.notFound(), nil
		}
		return Page{}, fmt.Errorf("read default page: %w", err)
	}
	return Page{Status: http.StatusOK, Body: body, ContentType: ContentTypeHTML}, nil
}
