package liveenity

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/liveenity/liveenity/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (a *App) site() views.Site {
	return views.Site{Name: a.Config.Name, URL: a.Config.URL}
}

func (a *App) handlePages(c echo.Context) error {
	page, err := a.Resolver.Resolve(c.Request().Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		return err
	}
	return c.Blob(page.Status, page.ContentType, page.Body)
}

func (a *App) handleSitemap(c echo.Context) error {
	data, err := fs.ReadFile(a.static, a.Config.SitemapPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return echo.ErrNotFound
		}
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, data)
}

// handleStaticPage serves pages/<page>.html for extensionless paths and falls
// through to the catch-all otherwise.
func (a *App) handleStaticPage(c echo.Context) error {
	name := c.Param("page")
	if name == "" || strings.Contains(name, ".") || strings.HasPrefix(name, "_") {
		return a.handleCatchAll(c)
	}
	data, err := fs.ReadFile(a.static, path.Join(a.Config.PagesDir, name+".html"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return a.handleCatchAll(c)
		}
		return err
	}
	return c.HTMLBlob(http.StatusOK, data)
}

// handleCatchAll serves a matching static file in standalone mode, then the
// root document, then 404.
func (a *App) handleCatchAll(c echo.Context) error {
	if a.Config.Mode == ModeStandalone {
		if name, ok := a.staticName(c.Request().URL.Path); ok {
			return echo.StaticFileHandler(name, a.static)(c)
		}
	}
	data, err := fs.ReadFile(a.static, a.Config.IndexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return echo.ErrNotFound
		}
		return err
	}
	return c.HTMLBlob(http.StatusOK, data)
}

// staticName maps a request path to a regular file in the static root.
// Dotfiles and directories are never served.
func (a *App) staticName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", false
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	info, err := fs.Stat(a.static, name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return name, true
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	// outside the API a wrong method on a page path is just a missing page
	if ok && (he.Code == http.StatusNotFound ||
		he.Code == http.StatusMethodNotAllowed && !strings.HasPrefix(c.Request().URL.Path, "/api/")) {
		a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		_ = RenderStatus(c, code, views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// renderNotFound prefers the site's own 404 page.
func (a *App) renderNotFound(c echo.Context) {
	if data, err := fs.ReadFile(a.static, a.Config.NotFoundPath); err == nil {
		_ = c.HTMLBlob(http.StatusNotFound, data)
		return
	}
	_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site()))
}
