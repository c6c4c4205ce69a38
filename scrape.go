package liveenity

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/liveenity/liveenity/scrape"
)

const maxScrapeBody = 4 << 10

type scrapeRequest struct {
	Keyword string `json:"keyword"`
}

type scrapeResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// handleScrape runs the keyword research script for {"keyword": "..."}.
// Script failures are logged; clients only see a generic message.
func (a *App) handleScrape(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
		return jsonError(c, http.StatusMethodNotAllowed, "Method not allowed")
	}
	if !a.scrapeLimiter.Allow(c.RealIP()) {
		return jsonError(c, http.StatusTooManyRequests, "Too many requests")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxScrapeBody+1))
	if err != nil || len(body) > maxScrapeBody {
		return jsonError(c, http.StatusBadRequest, "Invalid JSON")
	}
	var req scrapeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid JSON")
	}
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return jsonError(c, http.StatusBadRequest, "Keyword is required")
	}

	data, err := a.scraper.Run(c.Request().Context(), keyword)
	if err != nil {
		if errors.Is(err, scrape.ErrEmptyKeyword) {
			return jsonError(c, http.StatusBadRequest, "Keyword is required")
		}
		c.Logger().Errorf("scrape %q: %v", keyword, err)
		return jsonError(c, http.StatusInternalServerError, "Keyword research failed")
	}
	return c.JSON(http.StatusOK, scrapeResponse{Status: "success", Data: data})
}
