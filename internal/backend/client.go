// Package backend is the HTTP client for the external RAG service.
// It covers the three endpoints the console uses: chat, document ingestion
// and the health check. Chat and ingestion are never retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"agni/internal/config"
	"agni/internal/logging"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a non-2xx body is kept on HTTPError.
const maxErrorBody = 4 << 10

// Client talks to the RAG backend.
type Client struct {
	cfg        config.BackendConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	http       *httpConfig
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithHTTPClient replaces the underlying *http.Client. Header and logging
// decorators are still applied on top of its transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger sets the client logger. It also receives request logs when the
// request context carries no debug-enabled logger. Defaults to the api category logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithTransport adds a RoundTripper decorator.
func WithTransport(fn TransportFunc) Option {
	return func(o *clientOptions) { o.http.transports = append(o.http.transports, fn) }
}

// New creates a Client for cfg.
func New(cfg config.BackendConfig, opts ...Option) *Client {
	o := &clientOptions{http: defaultHTTPConfig()}
	o.http.requestTimeout = cfg.Timeout
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Get(logging.CategoryAPI)
	}

	decorators := append([]TransportFunc{}, o.http.transports...)
	decorators = append(decorators,
		func(rt http.RoundTripper) http.RoundTripper { return &logTransport{logger: logger, transport: rt} },
		func(rt http.RoundTripper) http.RoundTripper {
			return &headerTransport{userAgent: o.userAgent, token: cfg.Token, transport: rt}
		},
	)

	var hc *http.Client
	if o.httpClient != nil {
		clone := *o.httpClient
		rt := clone.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		for _, wrap := range decorators {
			rt = wrap(rt)
		}
		clone.Transport = rt
		hc = &clone
	} else {
		o.http.transports = decorators
		hc = newHTTPClient(o.http)
	}

	return &Client{cfg: cfg, httpClient: hc, logger: logger}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Chat sends one message and returns the assistant reply.
// POST {base}/chat with {"message": ...}
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	body, err := json.Marshal(ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL(c.cfg.ChatPath), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var reply chatReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if reply.Response == nil {
		return nil, ErrMissingResponse
	}

	return &ChatResponse{
		Response:      *reply.Response,
		EnhancedQuery: reply.EnhancedQuery,
		Status:        reply.Status,
	}, nil
}

// Ingest uploads files as one multipart request, one part per file under the
// configured field name. The response body is decoded when possible but a
// 2xx status alone means success.
func (c *Client) Ingest(ctx context.Context, files []File) (*IngestResponse, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := writer.CreatePart(filePartHeader(c.cfg.UploadField, f))
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write file content: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL(c.cfg.IngestPath), &buf)
	if err != nil {
		return nil, fmt.Errorf("create ingest request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out IngestResponse
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			c.logger.Debug("ingest response is not JSON, ignoring body", zap.Error(err))
			return &IngestResponse{}, nil
		}
	}
	c.logger.Debug("ingest accepted",
		zap.Int("files", len(files)),
		zap.String("status", out.Status),
		zap.Int("chunks_processed", out.ChunksProcessed),
	)
	return &out, nil
}

// Health calls GET {base}/ and retries transient failures per HealthRetry.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	rc := c.cfg.HealthRetry
	attempts := rc.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var out *HealthResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL(c.cfg.HealthPath), nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create health request: %w", err))
			}
			body, err := c.do(req)
			if err != nil {
				if code := StatusCode(err); code >= 400 && code < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}
			var hr HealthResponse
			if err := json.Unmarshal(body, &hr); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode health response: %w", err))
			}
			out = &hr
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("health check retry", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		herr := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		c.logger.Debug("backend returned error status",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, herr
	}
	return body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(field string, f File) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return h
}

// IsCanceled reports whether err came from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
