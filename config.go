package liveenity

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/liveenity/liveenity/libsql"
)

// Mode selects which routes are served.
type Mode string

const (
	// ModeStandalone serves everything, including static files and the
	// keyword research endpoint.
	ModeStandalone Mode = "standalone"
	// ModeManaged runs behind a hosting platform that serves static files and
	// runs the research script as its own function.
	ModeManaged Mode = "managed"
)

// ParseMode parses a mode name. An empty string is standalone.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStandalone:
		return ModeStandalone, nil
	case ModeManaged:
		return ModeManaged, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeStandalone, ModeManaged)
	}
}

// Bounds for QueryTimeout. A page request waits at most this long on the
// database before degrading to the default template.
const (
	MinQueryTimeout = 5 * time.Second
	MaxQueryTimeout = 10 * time.Second
)

// SiteConfig holds all configuration for the site server.
type SiteConfig struct {
	Name string // Site name, used in page titles (default "Liveenity")
	URL  string // Canonical URL (default "http://localhost:3000")
	Addr string // Listen address (default ":3000")
	Mode Mode   // default standalone

	StaticDir    string // Static root (default "public")
	TemplatePath string // Blog template, relative to StaticDir (default "templates/blog.html")
	NotFoundPath string // default "404.html"
	IndexPath    string // default "index.html"
	SitemapPath  string // default "sitemap.xml"
	PagesDir     string // default "pages"

	DatabaseURL   string        // libSQL URL; with DatabaseToken selects the remote database
	DatabaseToken string        //
	DatabasePath  string        // local SQLite file, used when no remote database is set
	QueryTimeout  time.Duration // per statement, 5s to 10s (default 10s)

	KeywordsPath  string        // default "SCRAP/KEYWORDS.txt"
	PythonPath    string        // default "python3"
	ScrapeScript  string        // default "SCRAP/keyword_searcher.py"
	ScrapeTimeout time.Duration // default 2m

	AdminPassword string // enables /admin when set
	SessionSecret string // required with AdminPassword
	CookieSecure  bool   // set true for HTTPS

	LogLevel log.Lvl // default INFO
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Liveenity"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Mode == "" {
		c.Mode = ModeStandalone
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.TemplatePath == "" {
		c.TemplatePath = "templates/blog.html"
	}
	if c.NotFoundPath == "" {
		c.NotFoundPath = "404.html"
	}
	if c.IndexPath == "" {
		c.IndexPath = "index.html"
	}
	if c.SitemapPath == "" {
		c.SitemapPath = "sitemap.xml"
	}
	if c.PagesDir == "" {
		c.PagesDir = "pages"
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = libsql.DefaultTimeout
	}
	if c.KeywordsPath == "" {
		c.KeywordsPath = "SCRAP/KEYWORDS.txt"
	}
	if c.PythonPath == "" {
		c.PythonPath = "python3"
	}
	if c.ScrapeScript == "" {
		c.ScrapeScript = "SCRAP/keyword_searcher.py"
	}
	if c.ScrapeTimeout == 0 {
		c.ScrapeTimeout = 2 * time.Minute
	}
	if c.LogLevel == 0 {
		c.LogLevel = log.INFO
	}
}

func (c *SiteConfig) validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.AdminPassword != "" && c.SessionSecret == "" {
		return errors.New("liveenity: SessionSecret is required when AdminPassword is set")
	}
	if err := checkQueryTimeout(c.QueryTimeout); err != nil {
		return err
	}
	return nil
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c SiteConfig) WithDefaults() SiteConfig {
	c.setDefaults()
	return c
}

func checkQueryTimeout(d time.Duration) error {
	if d < MinQueryTimeout || d > MaxQueryTimeout {
		return fmt.Errorf("liveenity: query timeout %v outside %v to %v", d, MinQueryTimeout, MaxQueryTimeout)
	}
	return nil
}

// AdminEnabled reports whether the admin area is served.
func (c SiteConfig) AdminEnabled() bool { return c.AdminPassword != "" }

// ConfigFromEnv builds a SiteConfig from the environment. Unset values are
// left for setDefaults.
func ConfigFromEnv() (SiteConfig, error) {
	cfg := SiteConfig{
		Name:          os.Getenv("SITE_NAME"),
		URL:           os.Getenv("SITE_URL"),
		Addr:          os.Getenv("ADDR"),
		StaticDir:     os.Getenv("STATIC_DIR"),
		DatabaseURL:   os.Getenv("TURSO_DATABASE_URL"),
		DatabaseToken: os.Getenv("TURSO_AUTH_TOKEN"),
		DatabasePath:  os.Getenv("DATABASE_PATH"),
		KeywordsPath:  os.Getenv("KEYWORDS_PATH"),
		PythonPath:    os.Getenv("PYTHON_BIN"),
		ScrapeScript:  os.Getenv("SCRAPE_SCRIPT"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("ADMIN_SESSION_SECRET"),
	}
	if cfg.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Addr = ":" + port
		}
	}

	mode := os.Getenv("APP_MODE")
	if mode == "" && os.Getenv("VERCEL") != "" {
		mode = string(ModeManaged)
	}
	m, err := ParseMode(mode)
	if err != nil {
		return cfg, err
	}
	cfg.Mode = m

	if cfg.QueryTimeout, err = EnvDuration("QUERY_TIMEOUT", 0); err != nil {
		return cfg, err
	}
	if cfg.QueryTimeout != 0 {
		if err := checkQueryTimeout(cfg.QueryTimeout); err != nil {
			return cfg, fmt.Errorf("QUERY_TIMEOUT: %w", err)
		}
	}
	if cfg.ScrapeTimeout, err = EnvDuration("SCRAPE_TIMEOUT", 0); err != nil {
		return cfg, err
	}
	if cfg.CookieSecure, err = EnvBool("COOKIE_SECURE", false); err != nil {
		return cfg, err
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if cfg.LogLevel, err = ParseLogLevel(lvl); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// ParseLogLevel maps debug, info, warn, error and off to a log level.
func ParseLogLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "info", "":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithQuerier uses q as the database instead of opening one from the
// configuration. A nil q runs the site without a database.
func WithQuerier(q libsql.Querier) Option {
	return func(a *App) {
		a.querierSet = true
		a.DB = q
	}
}

// WithStaticDir overrides the static root.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}
