// Package diary is the file-backed diary application: an index page, a
// writing form, and view and delete actions over a Store.
package diary

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/logging"
)

//go:embed templates/*.html
var builtin embed.FS

// Page template names
const (
	pageIndex = "index.html"
	pageWrite = "write.html"
	pageView  = "view.html"
)

// Registrar is the part of the engine the diary routes are added through.
type Registrar interface {
	GET(prefix string, h http.HandlerFunc)
	POST(prefix string, h http.HandlerFunc)
}

// Handlers renders diary pages from a Store.
type Handlers struct {
	store *Store
	pages *template.Template
	log   *logging.Logger
}

// pageFuncs are available to every page template. pathSegment escapes a
// diary name for use in a link; the server form-decodes request paths, so
// '+' must travel as %2B.
var pageFuncs = template.FuncMap{
	"pathSegment": url.QueryEscape,
}

// New loads the built-in page templates, replacing any of them with a file
// of the same name found in templatesDir.
func New(store *Store, log *logging.Logger, templatesDir string) (*Handlers, error) {
	if log == nil {
		log = logging.Nop()
	}
	pages, err := template.New("").Funcs(pageFuncs).ParseFS(builtin, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if templatesDir != "" {
		dir := os.DirFS(templatesDir)
		matches, err := fs.Glob(dir, "*.html")
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			if pages, err = pages.ParseFS(dir, matches...); err != nil {
				return nil, fmt.Errorf("failed to parse templates in %s: %w", templatesDir, err)
			}
		}
	}
	return &Handlers{store: store, pages: pages, log: log}, nil
}

// Register adds the diary routes.
func (h *Handlers) Register(r Registrar) {
	r.GET("/", h.Index)
	r.GET("/write", h.Write)
	r.POST("/post_write", h.PostWrite)
	r.GET("/diary", h.View)
	r.GET("/delete", h.Delete)
}

// Index lists every diary. It also answers any GET no other route claims.
func (h *Handlers) Index(*http.Request) (*http.Response, error) {
	entries, err := h.store.List()
	if err != nil {
		return nil, err
	}
	return h.render(pageIndex, struct{ Entries []Entry }{entries})
}

// Write serves the new entry form.
func (h *Handlers) Write(*http.Request) (*http.Response, error) {
	return h.render(pageWrite, nil)
}

// PostWrite stores the submitted form and redirects to the index.
func (h *Handlers) PostWrite(req *http.Request) (*http.Response, error) {
	form := http.DecodeForm(req.Body)
	name, err := h.store.Create(form["title"], form["content"])
	if err != nil {
		return nil, err
	}
	h.log.Info().Str("diary", name).Int("bytes", len(req.Body)).Msg("diary written")
	return http.Redirect(http.StatusFound, "/"), nil
}

// View shows /diary/<name>.
func (h *Handlers) View(req *http.Request) (*http.Response, error) {
	e, err := h.store.Read(strings.TrimPrefix(req.Path, "/diary/"))
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidName) {
		return http.Text(http.StatusNotFound, "diary not found"), nil
	}
	if err != nil {
		return nil, err
	}
	return h.render(pageView, e)
}

// Delete removes /delete/<name> and redirects to the index.
func (h *Handlers) Delete(req *http.Request) (*http.Response, error) {
	name := strings.TrimPrefix(req.Path, "/delete/")
	switch err := h.store.Delete(name); {
	case errors.Is(err, ErrInvalidName):
		h.log.Warn().Str("path", req.Path).Msg("refusing to delete")
	case err != nil:
		return nil, err
	default:
		h.log.Info().Str("diary", name).Msg("diary deleted")
	}
	return http.Redirect(http.StatusFound, "/"), nil
}

func (h *Handlers) render(page string, data any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, page, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return http.Data(http.StatusOK, http.MIMETextHTML, buf.Bytes()), nil
}
