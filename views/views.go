// Package views holds the server-rendered pages that are not driven by the
// static blog template: error pages and the admin area.
package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Site carries the values every page needs.
type Site struct {
	Name string
	URL  string
}

const styles = `body{font-family:system-ui,sans-serif;max-width:42rem;margin:3rem auto;padding:0 1rem;color:#1c1917}
h1{font-size:1.75rem}a{color:inherit}
.msg{padding:.5rem .75rem;border:1px solid #a8a29e;background:#f5f5f4}
.err{border-color:#b91c1c;color:#b91c1c}
textarea{width:100%;min-height:18rem;font-family:ui-monospace,monospace}
button{margin-top:.75rem;padding:.4rem 1rem}`

// layout wraps body in a minimal document.
func layout(site Site, title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		full := title
		if site.Name != "" {
			full += " - " + site.Name
		}
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<meta name="robots" content="noindex">`+
			`<title>`+templ.EscapeString(full)+`</title><style>`+styles+`</style></head><body>`); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func write(w io.Writer, parts ...string) error {
	_, err := io.WriteString(w, strings.Join(parts, ""))
	return err
}

// NotFound is the 404 page used when no static 404.html exists.
func NotFound(site Site) templ.Component {
	return layout(site, "404 - Page Not Found", func(w io.Writer) error {
		return write(w,
			`<h1>404 - Page Not Found</h1>`,
			`<p>The page you are looking for does not exist.</p>`,
			`<p><a href="/">Back to the home page</a></p>`)
	})
}

// ServerError is the generic 500 page. It never includes error detail.
func ServerError(site Site) templ.Component {
	return layout(site, "Something went wrong", func(w io.Writer) error {
		return write(w,
			`<h1>Something went wrong</h1>`,
			`<p>We could not load this page. Please try again in a moment.</p>`)
	})
}

// AdminLogin is the password form for the admin area.
func AdminLogin(site Site, showError bool, csrfToken string) templ.Component {
	return layout(site, "Admin", func(w io.Writer) error {
		var msg string
		if showError {
			msg = `<p class="msg err">Incorrect password.</p>`
		}
		return write(w,
			`<h1>Admin</h1>`, msg,
			`<form method="post" action="/admin/login">`,
			`<input type="hidden" name="_csrf" value="`, templ.EscapeString(csrfToken), `">`,
			`<label>Password <input type="password" name="password" autofocus required></label> `,
			`<button type="submit">Log in</button></form>`)
	})
}

// KeywordEditor edits the research keyword list, one keyword per line.
func KeywordEditor(site Site, keywords []string, message string, csrfToken string) templ.Component {
	return layout(site, "Keywords", func(w io.Writer) error {
		var msg string
		if message != "" {
			msg = `<p class="msg">` + templ.EscapeString(message) + `</p>`
		}
		return write(w,
			`<h1>Keywords</h1>`, msg,
			`<form method="post" action="/admin/keywords">`,
			`<input type="hidden" name="_csrf" value="`, templ.EscapeString(csrfToken), `">`,
			`<textarea name="keywords" spellcheck="false">`, templ.EscapeString(strings.Join(keywords, "\n")), `</textarea>`,
			`<button type="submit">Save</button></form>`,
			`<form method="post" action="/admin/logout">`,
			`<input type="hidden" name="_csrf" value="`, templ.EscapeString(csrfToken), `">`,
			`<button type="submit">Log out</button></form>`)
	})
}
