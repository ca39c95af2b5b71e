// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/duma799/portfolio/internal/fsutil"
	"github.com/duma799/portfolio/internal/log"
)

// staticFileServer serves files from the configured static directory.
// Directory listings, traversal attempts and symlink escapes are refused.
func (s *Server) staticFileServer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "static")
		deny := func(status int, reason string) {
			logger.Warn().Str(log.FieldEvent, "static.denied").Str(log.FieldPath, r.URL.Path).Str("reason", reason).Msg("static request denied")
			recordStaticDenied(reason)
			http.Error(w, http.StatusText(status), status)
		}

		rel := strings.TrimPrefix(r.URL.Path, "/")
		if isPathTraversal(rel) {
			deny(http.StatusForbidden, "path_escape")
			return
		}
		if rel == "" || strings.HasSuffix(rel, "/") {
			deny(http.StatusForbidden, "directory_listing")
			return
		}

		realPath, err := fsutil.ConfineRelPath(s.settings().StaticDir, rel)
		switch {
		case errors.Is(err, fsutil.ErrPathEscape):
			deny(http.StatusForbidden, "path_escape")
			return
		case err != nil:
			deny(http.StatusNotFound, "not_found")
			return
		}
		if err := fsutil.IsRegularFile(realPath); err != nil {
			if errors.Is(err, fsutil.ErrNotRegular) {
				deny(http.StatusForbidden, "directory_listing")
			} else {
				deny(http.StatusNotFound, "not_found")
			}
			return
		}

		// #nosec G304 -- realPath is confined to the static directory
		f, err := os.Open(realPath)
		if err != nil {
			deny(http.StatusNotFound, "not_found")
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			logger.Error().Err(err).Str(log.FieldPath, realPath).Msg("could not stat opened file")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			recordStaticServed(true)
			w.WriteHeader(http.StatusNotModified)
			return
		}

		recordStaticServed(false)
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// isPathTraversal decodes p repeatedly, NFC-normalizes it and looks for
// parent references, NUL bytes and overlong dot encodings.
func isPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		}
		if decoded == prev {
			break
		}
	}

	if strings.IndexByte(decoded, 0) >= 0 {
		return true
	}
	for _, form := range []string{strings.ToLower(p), strings.ToLower(decoded)} {
		for _, pat := range []string{"%00", "%c0%ae", "%e0%80%ae", "\\"} {
			if strings.Contains(form, pat) {
				return true
			}
		}
	}

	normalized := norm.NFC.String(decoded)
	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
