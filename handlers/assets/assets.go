// Package assets serves static files below a base directory.
package assets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/searchktools/diary-server/core/http"
)

// Prefix is the URL subtree owned by Handler.
const Prefix = "/assets/"

var mimeTypes = map[string]string{
	".html": http.MIMETextHTML,
	".htm":  http.MIMETextHTML,
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".txt":  http.MIMETextPlain,
}

// ContentType guesses the media type from the file extension.
func ContentType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return http.MIMEOctetStream
}

// Handler serves /assets/<rel> from dir. Anything resolving outside dir, or
// not to a regular file, is forbidden.
func Handler(dir string) http.HandlerFunc {
	return func(req *http.Request) (*http.Response, error) {
		if !strings.HasPrefix(req.Path, Prefix) {
			return http.Error(http.StatusNotFound), nil
		}

		base, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		if resolved, err := filepath.EvalSymlinks(base); err == nil {
			base = resolved
		}

		name, ok := resolve(base, strings.TrimPrefix(req.Path, Prefix))
		if !ok {
			return http.Error(http.StatusForbidden), nil
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return http.Error(http.StatusForbidden), nil
		}
		return http.Data(http.StatusOK, ContentType(name), data), nil
	}
}

// resolve maps rel onto a regular file inside base.
func resolve(base, rel string) (string, bool) {
	name := filepath.Join(base, filepath.FromSlash(rel))
	name, err := filepath.EvalSymlinks(name)
	if err != nil {
		return "", false
	}
	if name != base && !strings.HasPrefix(name, base+string(filepath.Separator)) {
		return "", false
	}
	fi, err := os.Stat(name)
	if err != nil || !fi.Mode().IsRegular() {
		return "", false
	}
	return name, true
}

// File serves a single file. A file that cannot be read yields 404.
func File(path, contentType string) http.HandlerFunc {
	if contentType == "" {
		contentType = ContentType(path)
	}
	return func(*http.Request) (*http.Response, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return http.Error(http.StatusNotFound), nil
		}
		return http.Data(http.StatusOK, contentType, data), nil
	}
}
