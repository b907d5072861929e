// Package site serves the service landing page.
package site

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
)

// Link is one entry on the landing page.
type Link struct {
	Path        string
	Description string
}

// DefaultLinks lists the operational and documentation routes.
var DefaultLinks = []Link{
	{"/api-docs", "API reference"},
	{"/openapi.yaml", "OpenAPI document"},
	{"/stats", "Service statistics"},
	{"/healthz", "Prometheus metrics"},
}

var page = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <ul>
    {{- range .Links}}
      <li><a href="{{.Path}}">{{.Path}}</a> {{.Description}}</li>
    {{- end}}
    </ul>
  </body>
</html>
`))

// Register attaches the landing page at the exact root path of mux.
func Register(_ context.Context, mux *http.ServeMux, links ...Link) {
	if mux == nil {
		panic("mux is nil")
	}
	if len(links) == 0 {
		links = DefaultLinks
	}
	h := NewRootHandler("talentcheck", links)
	mux.HandleFunc("GET /{$}", h.HandleRoot)
}

// RootHandler renders the landing page once and serves it from memory.
type RootHandler struct {
	body []byte
}

// NewRootHandler creates a new root handler.
func NewRootHandler(title string, links []Link) *RootHandler {
	var buf bytes.Buffer
	// The template is static and its inputs are plain strings.
	_ = page.Execute(&buf, struct {
		Title string
		Links []Link
	}{title, links})
	return &RootHandler{body: buf.Bytes()}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.body)
}
