package handlers

import (
	"net/http"
	"strings"

	"survey-go/views"

	"github.com/a-h/templ"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Context and session keys shared with the router middleware.
const (
	CSRFTokenContextKey = "csrf_token"
	CSPNonceContextKey  = "csp_nonce"
	AdminContextKey     = "admin"
	AdminSessionKey     = "adminID"
)

const (
	flashNotice = "notice"
	flashError  = "error"
)

func contextString(c *gin.Context, key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

func isLoggedIn(c *gin.Context) bool {
	_, ok := c.Get(AdminContextKey)
	return ok
}

// renderPage writes component inside the layout with the given status.
func renderPage(c *gin.Context, status int, title string, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	layout := views.Layout(title, isLoggedIn(c), contextString(c, CSRFTokenContextKey), contextString(c, CSPNonceContextKey))
	if err := layout.Render(templ.WithChildren(c.Request.Context(), component), c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func addFlash(c *gin.Context, kind, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg, kind)
	_ = session.Save()
}

// takeFlash pops the pending flash messages of one kind.
func takeFlash(c *gin.Context, kind string) string {
	session := sessions.Default(c)
	flashes := session.Flashes(kind)
	if len(flashes) == 0 {
		return ""
	}
	_ = session.Save()
	msgs := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return strings.Join(msgs, " ")
}

func redirectWithFlash(c *gin.Context, location, kind, msg string) {
	addFlash(c, kind, msg)
	c.Redirect(http.StatusSeeOther, location)
}

// requestBaseURL returns the configured public URL, or one derived from the
// request when none is configured.
func requestBaseURL(c *gin.Context, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
