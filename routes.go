package liveenity

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// methodAny registers a route for every HTTP method.
const methodAny = "ANY"

var (
	anyMethod = []string{methodAny}
	getOnly   = []string{http.MethodGet}
	postOnly  = []string{http.MethodPost}
	// readable pages also answer HEAD for crawlers and uptime checks.
	readable = []string{http.MethodGet, http.MethodHead}
)

// route is one entry of the dispatch table.
type route struct {
	methods []string
	path    string
	name    string
	handler echo.HandlerFunc
}

// routeTable lists every route in priority order. Admin routes exist only
// when an admin password is configured, and the research endpoint only in
// standalone mode.
func (a *App) routeTable() []route {
	var rt []route
	if a.Config.AdminEnabled() {
		rt = append(rt,
			route{getOnly, "/admin", "admin", a.handleAdmin},
			route{postOnly, "/admin/login", "admin-login", a.handleAdminLogin},
			route{postOnly, "/admin/logout", "admin-logout", handleAdminLogout},
			route{getOnly, "/admin/keywords", "keywords", a.handleKeywords},
			route{postOnly, "/admin/keywords", "keywords-save", a.handleKeywordsSave},
		)
	}
	if a.Config.Mode == ModeStandalone {
		rt = append(rt, route{anyMethod, "/api/scrape", "scrape", a.handleScrape})
	}
	rt = append(rt,
		route{readable, "/pages", "pages", a.handlePages},
		route{readable, "/pages/:slug", "post", a.handlePages},
		route{readable, "/sitemap.xml", "sitemap", a.handleSitemap},
		route{readable, "/:page", "page", a.handleStaticPage},
		route{readable, "/", "home", a.handleCatchAll},
		route{readable, "/*", "catch-all", a.handleCatchAll},
	)
	return rt
}

func (a *App) setupRoutes() {
	for _, r := range a.routeTable() {
		if len(r.methods) == 1 && r.methods[0] == methodAny {
			for _, er := range a.Echo.Any(r.path, r.handler) {
				er.Name = r.name
			}
			continue
		}
		for _, m := range r.methods {
			a.Echo.Add(m, r.path, r.handler).Name = r.name
		}
	}
}
