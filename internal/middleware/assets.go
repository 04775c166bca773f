package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	assetsMaxAge       = "public, max-age=604800, stale-while-revalidate=86400"
	assetsVersioned    = "public, max-age=31536000, immutable"
	assetsNoCache      = "no-cache"
	assetsETagHashSize = 16
)

// assetIndex maps request paths under the prefix to content ETags.
type assetIndex map[string]string

func indexAssets(dir string) assetIndex {
	idx := assetIndex{}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		if tag, err := contentETag(path); err == nil {
			idx["/"+filepath.ToSlash(rel)] = tag
		}
		return nil
	})
	return idx
}

// AssetsWithCache serves dir under prefix. Outside dev mode responses carry a
// content ETag and a week of caching; a ?v= query marks the URL as
// fingerprinted and cacheable forever. Dev mode revalidates every time.
func AssetsWithCache(dir, prefix string, dev bool) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	if dev {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", assetsNoCache)
			files.ServeHTTP(w, r)
		})
	}

	idx := indexAssets(dir)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Vary", "Accept-Encoding")
		if r.URL.Query().Get("v") != "" {
			h.Set("Cache-Control", assetsVersioned)
		} else {
			h.Set("Cache-Control", assetsMaxAge)
		}
		tag, ok := idx[strings.TrimPrefix(r.URL.Path, prefix)]
		if ok {
			h.Set("ETag", tag)
			if etagMatches(r.Header.Get("If-None-Match"), tag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

// etagMatches implements the weak comparison used for If-None-Match.
func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

func contentETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", err
	}
	// compression middleware may re-encode the body, so the tag stays weak
	return `W/"` + hex.EncodeToString(sum.Sum(nil)[:assetsETagHashSize]) + `"`, nil
}
