// Package liveenity is the Liveenity site server. It serves the static site,
// renders blog posts from a libSQL database into the blog template, and hosts
// the small admin area used by the content workflow.
package liveenity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/liveenity/liveenity/blog"
	"github.com/liveenity/liveenity/libsql"
	"github.com/liveenity/liveenity/pages"
	"github.com/liveenity/liveenity/scrape"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// ErrNoDatabase is returned by OpenDatabase when nothing is configured.
var ErrNoDatabase = errors.New("no database configured")

// Database is a Querier that owns resources.
type Database interface {
	libsql.Querier
	Close() error
}

// OpenDatabase opens the remote database when a URL and token are
// configured, otherwise the local SQLite file at DatabasePath.
func OpenDatabase(cfg SiteConfig) (Database, error) {
	switch {
	case cfg.DatabaseURL != "" && cfg.DatabaseToken != "":
		c, err := libsql.NewClient(libsql.Config{
			URL:       cfg.DatabaseURL,
			AuthToken: cfg.DatabaseToken,
			Timeout:   cfg.QueryTimeout,
			UserAgent: "liveenity/" + Version,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case cfg.DatabasePath != "":
		l, err := libsql.OpenLocal(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, ErrNoDatabase
	}
}

// App wires the configuration, database, resolver, middleware and routes.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	DB       libsql.Querier // nil when no database is configured
	Posts    *blog.Store    // nil when DB is nil
	Resolver *pages.Resolver

	static        fs.FS
	closer        func() error
	querierSet    bool
	loginLimiter  *RateLimiter
	scrapeLimiter *RateLimiter
	scraper       *scrape.Runner
}

// New builds the application. A missing or unreachable database is not an
// error: pages degrade to the default template.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Config.setDefaults()
	if err := a.Config.validate(); err != nil {
		return nil, err
	}

	e := a.Echo
	e.HideBanner = true
	e.Logger.SetLevel(a.Config.LogLevel)
	e.Logger.SetPrefix("liveenity")

	if !a.querierSet {
		db, err := OpenDatabase(a.Config)
		switch {
		case errors.Is(err, ErrNoDatabase):
			e.Logger.Warnf("no database configured (set TURSO_DATABASE_URL and TURSO_AUTH_TOKEN, or DATABASE_PATH); posts are disabled")
		case err != nil:
			e.Logger.Errorf("open database: %v; posts are disabled", err)
		default:
			a.DB = db
			a.closer = db.Close
		}
	}

	// keep the finder a nil interface, not a typed nil, when there is no database
	var finder pages.PostFinder
	if a.DB != nil {
		a.Posts = blog.NewStore(a.DB)
		finder = a.Posts
	}

	a.static = os.DirFS(a.Config.StaticDir)
	a.Resolver = pages.NewResolver(finder, a.static, pages.Config{
		SiteName:     a.Config.Name,
		TemplatePath: a.Config.TemplatePath,
		NotFoundPath: a.Config.NotFoundPath,
	}, e.Logger)

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.scrapeLimiter = NewRateLimiter(10, time.Minute)
	a.scraper = &scrape.Runner{
		Python:  a.Config.PythonPath,
		Script:  a.Config.ScrapeScript,
		Timeout: a.Config.ScrapeTimeout,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// Start serves HTTP on Config.Addr until the server is shut down.
func (a *App) Start() error {
	a.Echo.Logger.Infof("liveenity %s listening on %s (%s mode)", Version, a.Config.Addr, a.Config.Mode)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases the database and background goroutines.
func (a *App) Close() error {
	a.loginLimiter.Stop()
	a.scrapeLimiter.Stop()
	if a.closer != nil {
		if err := a.closer(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
