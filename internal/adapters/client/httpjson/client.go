// Package httpjson implements the metrics resource client over HTTP/JSON.
package httpjson

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vshulcz/fitmetrics/internal/config"
	"github.com/vshulcz/fitmetrics/internal/domain"
	"github.com/vshulcz/fitmetrics/internal/misc"
	"github.com/vshulcz/fitmetrics/internal/ports"
	"github.com/vshulcz/fitmetrics/internal/services/audit"
)

// RequestIDHeader carries the id shared by all attempts of one call.
const RequestIDHeader = "X-Request-ID"

const (
	defaultRequestTimeout = 10 * time.Second
	defaultAttemptTimeout = 5 * time.Second
	defaultMaxRetries     = 3
	defaultRetryDelay     = 1 * time.Second
	defaultWorkers        = 4
	maxPooledBuffer       = 64 << 10
)

// Client talks to the metrics resource of a user. Every operation comes in a blocking
// form returning (value, error) and an Async form returning a Future.
type Client struct {
	base    *url.URL
	hc      *http.Client
	logger  *zap.Logger
	events  audit.Publisher
	limiter *rate.Limiter
	disp    *Dispatcher
	bufs    *misc.Pool[*bytes.Buffer]
	routes  routes
	delays  []time.Duration

	requestTimeout time.Duration
	attemptTimeout time.Duration
	workers        int
}

var _ ports.MetricsAPI = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPublisher receives one audit.Event per call that reached the network.
func WithPublisher(p audit.Publisher) Option {
	return func(c *Client) { c.events = p }
}

func WithPaths(p config.Paths) Option {
	return func(c *Client) { c.routes = routes{p: p} }
}

// WithRetry sets the fixed policy: up to maxRetries extra attempts, delay apart, no jitter.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) { c.delays = misc.FixedBackoff(maxRetries, delay) }
}

// WithTimeouts bounds a whole call (queueing and retries included) and each single attempt.
func WithTimeouts(request, attempt time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.requestTimeout = request
		}
		if attempt > 0 {
			c.attemptTimeout = attempt
		}
	}
}

// WithRateLimit caps outgoing attempts per second; zero disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func WithWorkers(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New normalizes the base address, applies options and starts the dispatcher.
// Call Close to stop it.
func New(serverAddr string, opts ...Option) (*Client, error) {
	u, err := url.Parse(normalizeBase(serverAddr))
	if err != nil {
		return nil, err
	}
	c := &Client{
		base:           u,
		hc:             &http.Client{Timeout: defaultRequestTimeout},
		logger:         zap.NewNop(),
		routes:         routes{p: config.DefaultPaths()},
		delays:         misc.FixedBackoff(defaultMaxRetries, defaultRetryDelay),
		requestTimeout: defaultRequestTimeout,
		attemptTimeout: defaultAttemptTimeout,
		workers:        defaultWorkers,
		bufs: misc.NewPool(func() *bytes.Buffer {
			return new(bytes.Buffer)
		}).WithKeep(func(b *bytes.Buffer) bool {
			return b.Cap() <= maxPooledBuffer
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.disp = NewDispatcher(c.workers, c.logger)
	c.disp.Start()
	return c, nil
}

// NewFromConfig builds a Client from the resolved CLI/ENV configuration.
func NewFromConfig(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithPaths(cfg.Paths),
		WithRetry(cfg.MaxRetries, cfg.RetryDelay),
		WithTimeouts(cfg.RequestTimeout, cfg.AttemptTimeout),
		WithRateLimit(cfg.RateLimit),
		WithWorkers(cfg.Workers),
	}
	return New(cfg.Address, append(base, opts...)...)
}

// Close waits for queued calls to finish. Calls made afterwards fail with a network error.
func (c *Client) Close() {
	c.disp.Stop()
}

func normalizeBase(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	return "http://" + strings.TrimRight(s, "/")
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	esc := make([]string, len(segments))
	for i, s := range segments {
		esc[i] = url.PathEscape(s)
	}
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.Join(esc, "/")
	if p, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = p
	}
	return u.String()
}

const (
	opCreateMetric        = "createMetric"
	opListMetrics         = "listMetrics"
	opGetMetric           = "getMetric"
	opGetCurrentMetric    = "getCurrentMetric"
	opDeleteMetric        = "deleteMetric"
	opUpdateMetric        = "updateMetric"
	opAddExerciseCalories = "addExerciseCalories"
	opSetExerciseCalories = "setExerciseCalories"
)

// CreateMetric adds a metric to the user's collection and returns it with its server id.
func (c *Client) CreateMetric(ctx context.Context, userID string, m domain.Metric) (domain.Metric, error) {
	return c.CreateMetricAsync(ctx, userID, m, nil).Wait(ctx)
}

func (c *Client) CreateMetricAsync(ctx context.Context, userID string, m domain.Metric, cb Callback[domain.Metric]) *Future[domain.Metric] {
	return submit(ctx, c, metricCall(opCreateMetric, http.MethodPost, c.routes.collection(userID), newMetricBody(m), checkUser(userID), checkMetric(m)), cb)
}

// ListMetrics returns all metrics of the user in server order; never nil on success.
func (c *Client) ListMetrics(ctx context.Context, userID string) ([]domain.Metric, error) {
	return c.ListMetricsAsync(ctx, userID, nil).Wait(ctx)
}

func (c *Client) ListMetricsAsync(ctx context.Context, userID string, cb Callback[[]domain.Metric]) *Future[[]domain.Metric] {
	return submit(ctx, c, call[[]domain.Metric]{
		op:      opListMetrics,
		method:  http.MethodGet,
		path:    c.routes.collection(userID),
		decode:  decodeMetrics,
		invalid: firstInvalid(opListMetrics, checkUser(userID)),
	}, cb)
}

func (c *Client) GetMetric(ctx context.Context, userID string, metricID int64) (domain.Metric, error) {
	return c.GetMetricAsync(ctx, userID, metricID, nil).Wait(ctx)
}

func (c *Client) GetMetricAsync(ctx context.Context, userID string, metricID int64, cb Callback[domain.Metric]) *Future[domain.Metric] {
	return submit(ctx, c, metricCall(opGetMetric, http.MethodGet, c.routes.metric(userID, metricID), nil, checkUser(userID), checkMetricID(metricID)), cb)
}

// GetCurrentMetric returns the metric the server designates as today's.
func (c *Client) GetCurrentMetric(ctx context.Context, userID string) (domain.Metric, error) {
	return c.GetCurrentMetricAsync(ctx, userID, nil).Wait(ctx)
}

func (c *Client) GetCurrentMetricAsync(ctx context.Context, userID string, cb Callback[domain.Metric]) *Future[domain.Metric] {
	return submit(ctx, c, metricCall(opGetCurrentMetric, http.MethodGet, c.routes.current(userID), nil, checkUser(userID)), cb)
}

// DeleteMetric removes a metric and returns the deleted record as echoed by the server.
func (c *Client) DeleteMetric(ctx context.Context, userID string, metricID int64) (domain.Metric, error) {
	return c.DeleteMetricAsync(ctx, userID, metricID, nil).Wait(ctx)
}

func (c *Client) DeleteMetricAsync(ctx context.Context, userID string, metricID int64, cb Callback[domain.Metric]) *Future[domain.Metric] {
	return submit(ctx, c, metricCall(opDeleteMetric, http.MethodDelete, c.routes.metric(userID, metricID), nil, checkUser(userID), checkMetricID(metricID)), cb)
}

// UpdateMetric replaces date and exercise spending of the metric with the given id.
func (c *Client) UpdateMetric(ctx context.Context, metricID int64, m domain.Metric) (domain.Metric, error) {
	return c.UpdateMetricAsync(ctx, metricID, m, nil).Wait(ctx)
}

func (c *Client) UpdateMetricAsync(ctx context.Context, metricID int64, m domain.Metric, cb Callback[domain.Metric]) *Future[domain.Metric] {
	return submit(ctx, c, metricCall(opUpdateMetric, http.MethodPut, c.routes.update(metricID), newMetricBody(m), checkMetricID(metricID), checkMetric(m)), cb)
}

// AddExerciseCalories adds calories to the current metric's exercise counter.
func (c *Client) AddExerciseCalories(ctx context.Context, userID string, calories int) (domain.Metric, error) {
	return c.AddExerciseCaloriesAsync(ctx, userID, calories, nil).Wait(ctx)
}

func (c *Client) AddExerciseCaloriesAsync(ctx context.Context, userID string, calories int, cb Callback[domain.Metric]) *Future[domain.Metric] {
	return submit(ctx, c, metricCall(opAddExerciseCalories, http.MethodPost, c.routes.addExercise(userID, calories), nil, checkUser(userID), checkCalories(calories)), cb)
}

// SetExerciseCalories overwrites the current metric's exercise counter.
func (c *Client) SetExerciseCalories(ctx context.Context, userID string, calories int) (domain.Metric, error) {
	return c.SetExerciseCaloriesAsync(ctx, userID, calories, nil).Wait(ctx)
}

func (c *Client) SetExerciseCaloriesAsync(ctx context.Context, userID string, calories int, cb Callback[domain.Metric]) *Future[domain.Metric] {
	return submit(ctx, c, metricCall(opSetExerciseCalories, http.MethodPost, c.routes.setExercise(userID, calories), nil, checkUser(userID), checkCalories(calories)), cb)
}

// call describes one remote operation.
type call[T any] struct {
	invalid error
	body    any
	decode  func([]byte) (T, error)
	op      string
	method  string
	path    []string
}

func metricCall(op, method string, path []string, body any, checks ...error) call[domain.Metric] {
	return call[domain.Metric]{
		op:      op,
		method:  method,
		path:    path,
		body:    body,
		decode:  decodeMetric,
		invalid: firstInvalid(op, checks...),
	}
}

// submit validates, enqueues and resolves a call. Invalid calls never reach the network:
// their future is already resolved and cb runs on the calling goroutine.
func submit[T any](ctx context.Context, c *Client, r call[T], cb Callback[T]) *Future[T] {
	var zero T
	if r.invalid != nil {
		if cb != nil {
			cb(zero, r.invalid)
		}
		return resolved(r.op, zero, r.invalid)
	}

	f := newFuture[T](r.op)
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	job := func() {
		defer cancel()
		v, err := execute(ctx, c, r)
		f.resolve(v, err)
		if cb != nil {
			cb(v, err)
		}
	}
	if err := c.disp.Submit(ctx, job); err != nil {
		cancel()
		err = classify(r.op, err)
		f.resolve(zero, err)
		if cb != nil {
			cb(zero, err)
		}
	}
	return f
}

type response struct {
	body     []byte
	status   int
	attempts int
}

func execute[T any](ctx context.Context, c *Client, r call[T]) (T, error) {
	var zero T
	reqID := audit.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	endpoint := c.endpoint(r.path...)
	start := time.Now()

	payload, err := c.encode(r.body)
	if err != nil {
		err = classify(r.op, err)
		c.report(ctx, r.op, r.method, endpoint, reqID, response{}, time.Since(start), err)
		return zero, err
	}

	res, err := c.roundTrip(ctx, r.method, endpoint, reqID, payload)
	var v T
	if err == nil {
		v, err = r.decode(res.body)
	}
	err = classify(r.op, err)
	c.report(ctx, r.op, r.method, endpoint, reqID, res, time.Since(start), err)
	if err != nil {
		return zero, err
	}
	return v, nil
}

// encode returns a private copy of the body: the transport may still read the
// request body after Do returns, so pooled bytes never leave this function.
func (c *Client) encode(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	buf := c.bufs.Get()
	defer c.bufs.Put(buf)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, &decodeError{err: fmt.Errorf("marshal: %w", err)}
	}
	return bytes.Clone(buf.Bytes()), nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, reqID string, payload []byte) (response, error) {
	var res response
	op := func() error {
		res.attempts++
		if err := c.wait(ctx); err != nil {
			return err
		}
		actx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()

		req, err := newJSONRequest(actx, method, endpoint, payload, reqID)
		if err != nil {
			return err
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		res.status = resp.StatusCode
		body, err := readBody(resp)
		if err != nil {
			return err
		}
		if err := checkHTTPStatus(resp); err != nil {
			return err
		}
		res.body = body
		return nil
	}
	if err := misc.Retry(ctx, c.delays, isRetryableHTTP, op); err != nil {
		return res, fmt.Errorf("http %s: %w", method, err)
	}
	return res, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limit: %w", context.DeadlineExceeded)
	}
	return nil
}

func (c *Client) report(ctx context.Context, op, method, endpoint, reqID string, res response, took time.Duration, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.String("request_id", reqID),
		zap.Int("status", res.status),
		zap.Int("attempts", res.attempts),
		zap.Duration("duration", took),
	}
	evt := audit.Event{
		Operation:  op,
		Method:     method,
		URL:        endpoint,
		RequestID:  reqID,
		Timestamp:  time.Now().Unix(),
		DurationMs: took.Milliseconds(),
		Status:     res.status,
		Attempts:   res.attempts,
	}
	if err != nil {
		c.logger.Warn("metrics call failed", append(fields, zap.Stringer("kind", KindOf(err)), zap.Error(err))...)
		evt.Kind = KindOf(err).String()
		evt.Error = err.Error()
	} else {
		c.logger.Debug("metrics call", fields...)
	}
	if c.events != nil {
		c.events.Publish(ctx, evt)
	}
}

func newJSONRequest(ctx context.Context, method, endpoint string, body []byte, reqID string) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set(RequestIDHeader, reqID)
	return req, nil
}

func readBody(resp *http.Response) (_ []byte, retErr error) {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &decodeError{err: fmt.Errorf("bad gzip: %w", err)}
		}
		defer func() {
			_ = gr.Close()
		}()
		r = gr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{code: resp.StatusCode, msg: fmt.Sprintf("server status: %s", resp.Status)}
	}
	return nil
}

func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	var se *httpStatusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusBadGateway, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("userID is required")
	}
	return nil
}

func checkMetricID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("metricID must be positive, got %d", id)
	}
	return nil
}

func checkMetric(m domain.Metric) error {
	if strings.TrimSpace(m.Date) == "" {
		return errors.New("metric date is required")
	}
	if m.ExerciseSpending < 0 {
		return fmt.Errorf("exerciseSpending must be >= 0, got %d", m.ExerciseSpending)
	}
	return nil
}

func checkCalories(cal int) error {
	if cal < 0 {
		return fmt.Errorf("calories must be >= 0, got %d", cal)
	}
	return nil
}

func firstInvalid(op string, checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return &Error{Op: op, Kind: KindInvalidArgument, Err: err}
		}
	}
	return nil
}
