package middlewares

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vshulcz/fitmetrics/internal/services/audit"
)

func newEngine(mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mws...)
	return r
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = audit.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		echo   bool
	}{
		{"echo", "abc-123", true},
		{"generated", "", false},
		{"too_long_replaced", strings.Repeat("x", 200), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header=%q context=%q", got, seen)
			}
			if tt.echo && got != tt.header {
				t.Fatalf("header=%q want echo %q", got, tt.header)
			}
			if !tt.echo && got == tt.header {
				t.Fatalf("expected a generated id, got %q", got)
			}
		})
	}
}

func TestGzipRoundTrip(t *testing.T) {
	r := newEngine(GzipRequest(), GzipResponse())
	r.POST("/echo", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Data(http.StatusOK, "application/json", b)
	})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"date":"2024-03-01"}`))
	_ = zw.Close()

	req := httptest.NewRequest(http.MethodPost, "/echo", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("status=%d encoding=%q", w.Code, w.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("response not gzipped: %v", err)
	}
	got, _ := io.ReadAll(zr)
	if string(got) != `{"date":"2024-03-01"}` {
		t.Fatalf("echo=%q", got)
	}
}

func TestGzipResponse_SkipsPlainText(t *testing.T) {
	r := newEngine(GzipResponse())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("plain text must not be compressed: %q %q", w.Header().Get("Content-Encoding"), w.Body.String())
	}
}

func gzipped(t *testing.T, b []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return &buf
}

func TestGzipRequest_Limits(t *testing.T) {
	r := newEngine(GzipRequest())
	r.POST("/echo", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.Data(http.StatusOK, "application/json", b)
	})

	tests := []struct {
		name     string
		body     io.Reader
		encoding string
		want     int
	}{
		{name: "plain small", body: strings.NewReader(`{}`), want: http.StatusOK},
		{name: "plain oversized", body: bytes.NewReader(make([]byte, MaxRequestBody+1)), want: http.StatusRequestEntityTooLarge},
		{name: "gzip bomb", body: gzipped(t, make([]byte, 2*MaxRequestBody)), encoding: "gzip", want: http.StatusRequestEntityTooLarge},
		{name: "broken gzip", body: strings.NewReader("not gzip"), encoding: "gzip", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/echo", tt.body)
			if tt.encoding != "" {
				req.Header.Set("Content-Encoding", tt.encoding)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status=%d want %d", w.Code, tt.want)
			}
		})
	}
}

func TestZapLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(RequestID(), ZapLogger(zap.New(core)))
	r.GET("/users/:userID/metrics/:metricID", func(c *gin.Context) {
		switch c.Param("metricID") {
		case "1":
			c.Status(http.StatusOK)
		case "2":
			c.Status(http.StatusNotFound)
		default:
			c.Status(http.StatusInternalServerError)
		}
	})

	ids := []string{"1", "2", "3"}
	for _, id := range ids {
		req := httptest.NewRequest(http.MethodGet, "/users/u1/metrics/"+id, nil)
		req.Header.Set("X-Request-ID", "req-"+id)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("got %d entries want 3", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level=%v want %v", i, e.Level, wantLevels[i])
		}
		fields := e.ContextMap()
		if fields["route"] != "/users/:userID/metrics/:metricID" {
			t.Errorf("entry %d route=%v", i, fields["route"])
		}
		if fields["request_id"] != "req-"+ids[i] {
			t.Errorf("entry %d request_id=%v", i, fields["request_id"])
		}
	}
}

func TestGzipResponse_VaryHeader(t *testing.T) {
	r := newEngine(GzipResponse())
	r.GET("/x", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get("Vary") != "Accept-Encoding" || w.Header().Get("Content-Encoding") != "" {
		t.Fatalf("headers=%v", w.Header())
	}
}
