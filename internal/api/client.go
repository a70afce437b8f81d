package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"animehub-client/internal/observability"
)

// CookieKey is the state key the session cookies are persisted under.
const CookieKey = "session.cookies"

// StateStore persists small client-side values between runs. Get returns a
// nil value when the key is absent.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Client talks to the AnimeHub REST backend with a cookie session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	store   StateStore
	logger  *zap.Logger
	tracer  trace.Tracer

	jar *sessionJar
}

// sessionJar is a cookie jar that can be emptied on logout.
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() *sessionJar {
	jar, _ := cookiejar.New(nil)
	return &sessionJar{jar: jar}
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

func (j *sessionJar) reset() {
	jar, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStateStore enables cookie persistence across process runs.
func WithStateStore(store StateStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// New builds a client for baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}

	jar := newSessionJar()
	c := &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
		tracer:  observability.Tracer("api"),
		jar:     jar,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Origin returns the API origin used to resolve relative media paths.
func (c *Client) Origin() string {
	return c.baseURL.String()
}

// SessionHeader returns the Cookie header the push transports present when
// dialing, so the server sees the same session as the REST calls.
func (c *Client) SessionHeader() http.Header {
	header := http.Header{}
	cookies := c.jar.Cookies(c.baseURL)
	if len(cookies) == 0 {
		return header
	}
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	header.Set("Cookie", strings.Join(parts, "; "))
	return header
}

type persistedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RestoreSession loads persisted cookies into the jar. A missing or corrupt
// entry leaves the client logged out.
func (c *Client) RestoreSession(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	raw, err := c.store.Get(ctx, CookieKey)
	if err != nil {
		return fmt.Errorf("load session cookies: %w", err)
	}
	if raw == nil {
		return nil
	}

	var stored []persistedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.logger.Debug("discarding malformed session cookies", zap.Error(err))
		return c.store.Delete(ctx, CookieKey)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)
	return nil
}

func (c *Client) saveSession(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	cookies := c.jar.Cookies(c.baseURL)

	stored := make([]persistedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, persistedCookie{Name: ck.Name, Value: ck.Value})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, CookieKey, raw); err != nil {
		return fmt.Errorf("save session cookies: %w", err)
	}
	return nil
}

func (c *Client) dropSession(ctx context.Context) error {
	c.jar.reset()

	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, CookieKey); err != nil {
		return fmt.Errorf("clear session cookies: %w", err)
	}
	return nil
}

type request struct {
	method      string
	route       string // metrics and span label, e.g. /api/messages/chat/:chatId
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(method, route, path string, payload any) (request, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return request{}, err
	}
	return request{method: method, route: route, path: path, body: bytes.NewReader(raw), contentType: "application/json"}, nil
}

// do performs the call and decodes a 2xx body into out. A nil out discards
// the body, which is plain text on several auth routes.
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, span := c.tracer.Start(ctx, r.method+" "+r.route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.method", r.method), attribute.String("http.route", r.route))

	err := c.roundTrip(ctx, span, r, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, r request, out any) error {
	u := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.route, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	requestID := observability.NewRequestID()
	traceID := ""
	if sc := span.SpanContext(); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	observability.ApplyHeaders(req, observability.BuildHeaders(requestID, traceID))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveAPIRequest(r.method, r.route, 0, time.Since(start))
		c.logger.Warn("request failed", zap.String("route", r.route), zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("%s %s: %w", r.method, r.route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	observability.ObserveAPIRequest(r.method, r.route, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("request done",
		zap.String("route", r.route),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
	)
	if err != nil {
		return fmt.Errorf("read %s response: %w", r.route, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	if out == nil {
		return nil
	}
	return decodeBody(r.route, body, out)
}
