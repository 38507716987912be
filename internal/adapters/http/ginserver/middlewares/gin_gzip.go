package middlewares

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestBody caps a metric request body after decompression.
const MaxRequestBody int64 = 1 << 20

type gzipReadCloser struct {
	gz  *gzip.Reader
	raw io.Closer
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	if g.raw != nil {
		if err := g.raw.Close(); err != nil {
			return err
		}
	}
	return gzErr
}

// GzipRequest inflates gzip-encoded request bodies and limits every body to MaxRequestBody bytes.
func GzipRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		body := c.Request.Body
		if strings.Contains(strings.ToLower(c.GetHeader("Content-Encoding")), "gzip") {
			gr, err := gzip.NewReader(body)
			if err != nil {
				c.String(http.StatusBadRequest, "bad gzip body")
				c.Abort()
				return
			}
			body = &gzipReadCloser{gz: gr, raw: body}
			c.Request.Header.Del("Content-Encoding")
			c.Request.Header.Del("Content-Length")
			c.Request.ContentLength = -1
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, body, MaxRequestBody)
		c.Next()
	}
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzw      *gzip.Writer
	compress bool
	decided  bool
}

// decide runs on the first write: only JSON and the HTML index are compressed.
func (w *gzipResponseWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true

	h := w.Header()
	if h.Get("Content-Encoding") != "" {
		return
	}
	ct := h.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "text/html") {
		return
	}
	if status := w.Status(); status == http.StatusNoContent || status < http.StatusOK {
		return
	}

	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	w.gzw = gzip.NewWriter(w.ResponseWriter)
	w.compress = true
}

func (w *gzipResponseWriter) Write(p []byte) (int, error) {
	w.decide()
	if w.compress {
		return w.gzw.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipResponseWriter) Close() error {
	if w.gzw != nil {
		return w.gzw.Close()
	}
	return nil
}

// GzipResponse compresses JSON and HTML responses for clients that accept gzip.
func GzipResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Vary", "Accept-Encoding")
		if !strings.Contains(strings.ToLower(c.GetHeader("Accept-Encoding")), "gzip") {
			c.Next()
			return
		}
		grw := &gzipResponseWriter{ResponseWriter: c.Writer}
		c.Writer = grw
		c.Next()
		if err := grw.Close(); err != nil {
			_ = c.Error(err)
		}
	}
}
