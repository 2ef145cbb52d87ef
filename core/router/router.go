// Package router resolves (method, path) pairs to handlers by longest
// matching path prefix.
package router

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/logging"
)

// ErrDuplicateRoute is the panic value wrapped when a strict router sees the
// same (method, path) registered twice.
var ErrDuplicateRoute = errors.New("duplicate route")

// Option configures a Router.
type Option func(*Router)

// WithStrictRoutes makes duplicate registration panic instead of replacing
// the earlier handler.
func WithStrictRoutes() Option {
	return func(r *Router) { r.strict = true }
}

// Router owns the route table. It is filled before serving starts and only
// read afterwards, so lookups need no locking.
type Router struct {
	routes map[string]map[string]http.HandlerFunc // path -> method -> handler
	strict bool
	log    *logging.Logger
}

// New creates an empty router. A nil logger discards resolution logs.
func New(log *logging.Logger, opts ...Option) *Router {
	if log == nil {
		log = logging.Nop()
	}
	r := &Router{
		routes: make(map[string]map[string]http.HandlerFunc),
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register maps method and path prefix to h. A later registration of the
// same key replaces the earlier one, unless the router is strict.
func (r *Router) Register(method, path string, h http.HandlerFunc) {
	if h == nil {
		panic("router: nil handler for " + method + " " + path)
	}
	path = normalize(path)
	if path == "" {
		panic("router: path must begin with '/'")
	}

	methods, ok := r.routes[path]
	if !ok {
		methods = make(map[string]http.HandlerFunc)
		r.routes[path] = methods
	}
	if _, dup := methods[method]; dup {
		if r.strict {
			panic(fmt.Errorf("router: %w: %s %s", ErrDuplicateRoute, method, path))
		}
		r.log.Warn().Str("method", method).Str("path", path).Msg("route replaced by later registration")
	}
	methods[method] = h
}

// Resolve walks from the full path towards the root, trimming one segment at
// a time, and returns the first handler registered for method. The bare "/"
// route is tried last. Paths not starting with '/' never match.
func (r *Router) Resolve(method, path string) (http.HandlerFunc, bool) {
	h, _, ok := r.Match(method, path)
	return h, ok
}

// Match is Resolve that also reports the registered prefix that matched.
func (r *Router) Match(method, path string) (http.HandlerFunc, string, bool) {
	h, prefix, ok := r.lookup(method, path)
	if ok {
		r.log.Debug().Str("method", method).Str("path", path).Str("route", prefix).Msg("route resolved")
	} else {
		r.log.Debug().Str("method", method).Str("path", path).Msg("no route")
	}
	return h, prefix, ok
}

func (r *Router) lookup(method, path string) (http.HandlerFunc, string, bool) {
	p := normalize(path)
	if p == "" {
		return nil, "", false
	}

	for p != "/" {
		if h, ok := r.routes[p][method]; ok {
			return h, p, true
		}
		i := strings.LastIndexByte(p, '/')
		if i <= 0 {
			break
		}
		p = p[:i]
	}

	if h, ok := r.routes["/"][method]; ok {
		return h, "/", true
	}
	return nil, "", false
}

// Route is one registered key.
type Route struct {
	Method string
	Path   string
}

// Routes lists the table sorted by path then method.
func (r *Router) Routes() []Route {
	var out []Route
	for path, methods := range r.routes {
		for method := range methods {
			out = append(out, Route{Method: method, Path: path})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// normalize drops trailing slashes (keeping the root) and rejects paths that
// are empty or relative.
func normalize(path string) string {
	if path == "" || path[0] != '/' {
		return ""
	}
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
