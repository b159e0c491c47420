// Package views renders the HTML pages. Each page template is parsed
// together with the shared layout and includes into its own set, and is
// executed through the "layout" template. Engine implements fiber.Views.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

//go:embed templates
var files embed.FS

const layoutName = "layout"

// Engine is a fiber.Views backed by the embedded templates.
type Engine struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New returns an Engine over the embedded templates.
func New() *Engine {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return NewFromFS(sub)
}

// NewFromFS returns an Engine over fsys, which must hold layout.html,
// includes/*.html and one file per page.
func NewFromFS(fsys fs.FS) *Engine {
	return &Engine{fsys: fsys, funcs: Funcs()}
}

// Load parses every page. It is called by fiber at startup and may be
// called again to reload.
func (e *Engine) Load() error {
	base, err := template.New(layoutName).Funcs(e.funcs).ParseFS(e.fsys, "layout.html", "includes/*.html")
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	entries, err := fs.Glob(e.fsys, "*.html")
	if err != nil {
		return err
	}
	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry == "layout.html" {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(e.fsys, entry); err != nil {
			return fmt.Errorf("parse %s: %w", entry, err)
		}
		pages[strings.TrimSuffix(entry, path.Ext(entry))] = t
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render executes the named page (without extension) inside the layout.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	loaded := e.pages != nil
	e.mu.RUnlock()
	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("views: template %q not found", name)
	}
	return t.ExecuteTemplate(w, layoutName, binding)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"linebreaksbr": linebreaksbr,
		"date":         formatDate,
		"media":        mediaURL,
		"add":          func(a, b int) int { return a + b },
		"year":         func() int { return time.Now().Year() },
		"default": func(fallback, v string) string {
			if v == "" {
				return fallback
			}
			return v
		},
	}
}

func linebreaksbr(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")) // #nosec G203: input is escaped above
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

func mediaURL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + strings.TrimPrefix(rel, "/")
}
