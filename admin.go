package liveenity

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/liveenity/liveenity/keywords"
	"github.com/liveenity/liveenity/views"
)

var adminMessages = map[string]string{
	"saved":   "Keywords saved.",
	"toolong": fmt.Sprintf("Keywords saved. Lines longer than %d characters were left out.", keywords.MaxKeywordLen),
}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.site(), false, CsrfToken(c)))
	}
	return c.Redirect(http.StatusSeeOther, "/admin/keywords")
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/keywords")
	}
	a.loginLimiter.Record(ip)
	c.Logger().Warnf("admin: failed login from %s", ip)
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *App) handleKeywords(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	kws, err := keywords.Load(a.Config.KeywordsPath)
	if err != nil {
		return err
	}
	return Render(c, views.KeywordEditor(a.site(), kws, adminMessages[c.QueryParam("msg")], CsrfToken(c)))
}

func (a *App) handleKeywordsSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	kws, tooLong := keywords.Parse(c.FormValue("keywords"))
	if err := keywords.Save(a.Config.KeywordsPath, kws); err != nil {
		return err
	}
	c.Logger().Infof("admin: saved %d keywords, left out %d over-long lines", len(kws), tooLong)
	if tooLong > 0 {
		return c.Redirect(http.StatusSeeOther, "/admin/keywords?msg=toolong")
	}
	return c.Redirect(http.StatusSeeOther, "/admin/keywords?msg=saved")
}
