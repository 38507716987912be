package a

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

func bad() {
	_, _ = http.NewRequest(http.MethodGet, "http://localhost/users/u1/metrics", nil) // want `http.NewRequest builds a request without a context`
	_, _ = http.Get("http://localhost/ping")                                          // want `http.Get builds a request without a context`
	_, _ = http.Post("http://localhost/users/u1/metrics", "application/json", strings.NewReader("{}")) // want `http.Post builds a request without a context`
	_, _ = http.PostForm("http://localhost/", url.Values{})                           // want `http.PostForm builds a request without a context`
}

func good(ctx context.Context, c *http.Client) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost/ping", nil)
	_, _ = c.Do(req)
	_, _ = c.Get("http://localhost/ping")
}
