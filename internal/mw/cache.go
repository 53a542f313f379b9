package mw

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader tells clients whether a response came from the cache.
const CacheHeader = "X-Cache"

// maxCachedBody bounds what a single entry may hold. Larger bodies are served
// but never stored.
const maxCachedBody = 1 << 20

type cacheEntry struct {
	status      int
	contentType string
	body        []byte
	storedAt    time.Time
}

// teeWriter copies the response body into buf until it outgrows maxCachedBody.
type teeWriter struct {
	gin.ResponseWriter
	buf      *bytes.Buffer
	overflow bool
}

func (w *teeWriter) keep(n int) bool {
	if w.overflow || w.buf.Len()+n > maxCachedBody {
		w.overflow = true
		w.buf.Reset()
		return false
	}
	return true
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if w.keep(len(b)) {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	if w.keep(len(s)) {
		w.buf.WriteString(s)
	}
	return w.ResponseWriter.WriteString(s)
}

func (w *teeWriter) cacheable() bool {
	status := w.Status()
	if status < 200 || status >= 300 || w.overflow {
		return false
	}
	return !strings.Contains(w.Header().Get("Cache-Control"), "no-store")
}

// cacheKey ignores the order of query parameters.
func cacheKey(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}

// Cache keeps successful GET responses in memory for ttl. Requests sent with
// "Cache-Control: no-cache" skip the lookup and refresh the entry; responses
// marked no-store are passed through untouched. Hits carry an Age header.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		if c.GetHeader("Cache-Control") != "no-cache" {
			if hit, found := store.Get(key); found {
				e := hit.(cacheEntry)
				c.Header(CacheHeader, "HIT")
				c.Header("Age", strconv.Itoa(int(time.Since(e.storedAt).Seconds())))
				c.Data(e.status, e.contentType, e.body)
				c.Abort()
				return
			}
		}

		tee := &teeWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = tee
		c.Header(CacheHeader, "MISS")

		c.Next()

		if tee.cacheable() {
			store.Set(key, cacheEntry{
				status:      tee.Status(),
				contentType: tee.Header().Get("Content-Type"),
				body:        bytes.Clone(tee.buf.Bytes()),
				storedAt:    time.Now(),
			}, ttl)
		}
	}
}
