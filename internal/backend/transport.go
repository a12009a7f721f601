package backend

import (
	"context"
	"net"
	"net/http"
	"time"

	"agni/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransportFunc decorates a RoundTripper.
type TransportFunc func(http.RoundTripper) http.RoundTripper

type httpConfig struct {
	requestTimeout        time.Duration
	dialTimeout           time.Duration
	keepAlive             time.Duration
	responseHeaderTimeout time.Duration
	idleConnTimeout       time.Duration
	maxIdleConns          int
	transports            []TransportFunc
}

func defaultHTTPConfig() *httpConfig {
	return &httpConfig{
		dialTimeout:     30 * time.Second,
		keepAlive:       90 * time.Second,
		idleConnTimeout: 90 * time.Second,
		maxIdleConns:    10,
	}
}

func newHTTPClient(cfg *httpConfig) *http.Client {
	dialer := net.Dialer{
		Timeout:   cfg.dialTimeout,
		KeepAlive: cfg.keepAlive,
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.maxIdleConns,
		MaxIdleConnsPerHost:   cfg.maxIdleConns,
		ResponseHeaderTimeout: cfg.responseHeaderTimeout,
		IdleConnTimeout:       cfg.idleConnTimeout,
	}

	for _, wrap := range cfg.transports {
		rt = wrap(rt)
	}

	return &http.Client{
		Timeout:   cfg.requestTimeout,
		Transport: rt,
	}
}

type requestIDKey struct{}

// WithRequestID returns a context whose outbound requests carry id as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return ""
}

// headerTransport stamps every request with identification headers.
type headerTransport struct {
	userAgent string
	token     string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())

	if reqCopy.Header.Get("Accept") == "" {
		reqCopy.Header.Set("Accept", "application/json")
	}
	if t.userAgent != "" {
		reqCopy.Header.Set("User-Agent", t.userAgent)
	}
	if t.token != "" {
		reqCopy.Header.Set("Authorization", "Bearer "+t.token)
	}
	if reqCopy.Header.Get("X-Request-ID") == "" {
		id := requestIDFrom(req.Context())
		if id == "" {
			id = uuid.NewString()
		}
		reqCopy.Header.Set("X-Request-ID", id)
	}

	return t.transport.RoundTrip(reqCopy)
}

// logTransport records each outbound request and its outcome at debug level.
type logTransport struct {
	logger    *zap.Logger
	transport http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logging.FromContext(req.Context())
	if !log.Core().Enabled(zap.DebugLevel) {
		log = t.logger
	}

	start := time.Now()
	resp, err := t.transport.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.Int64("content_length", req.ContentLength),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		log.Debug("HTTP outbound request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	log.Debug("HTTP outbound request", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
