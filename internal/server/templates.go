package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	jsonwriter "github.com/dgellow/chat-front/internal/json"
	"github.com/dgellow/chat-front/internal/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Template names, matching the files under templates/.
const (
	tmplAuth   = "auth.html"
	tmplLogin  = "login.html"
	tmplChat   = "chat.html"
	tmplDetail = "detail.html"
	tmplShare  = "share.html"
	tmpl404    = "404.html"
)

// pageData feeds the page templates: the stringified SSR envelope plus
// the site-wide template settings.
type pageData struct {
	Props     template.JS
	SiteKey   string
	APIPrefix string
}

// loginData feeds the login form template.
type loginData struct {
	Error     string
	Username  string
	SiteKey   string
	APIPrefix string
}

// renderTemplate executes a page template into a buffer before writing,
// so a render failure yields a clean error response instead of a torn
// page.
func renderTemplate(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		log.LogError("Failed to render template %s: %v", name, err)
		jsonwriter.WriteInternalServerError(w, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
