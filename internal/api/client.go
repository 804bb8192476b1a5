package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds every request unless overridden at construction.
const DefaultTimeout = 30 * time.Second

// Client talks to the remote TP analysis service. All operations are safe
// for concurrent use. No operation panics; every failure path returns a
// classified *Error.
type Client struct {
	baseURL string
	httpc   *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Useful for tests and
// for callers that need custom transport settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpc = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for validation warnings.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check lints content and returns the resulting diagnostics. The returned
// batch is empty (not an error) when the response payload fails structural
// validation.
func (c *Client) Check(ctx context.Context, content string, opts CheckOptions) (DiagnosticBatch, error) {
	p, err := c.do(ctx, "/check", content, opts.values())
	if err != nil {
		return DiagnosticBatch{}, err
	}
	raw, err := p.structured()
	if err != nil {
		return DiagnosticBatch{}, err
	}
	return ParseDiagnostics(raw, c.log), nil
}

// Format reformats content and returns the formatted text verbatim.
func (c *Client) Format(ctx context.Context, content string) (FormatResult, error) {
	p, err := c.do(ctx, "/format", content, nil)
	if err != nil {
		return FormatResult{}, err
	}
	text, err := p.plain()
	if err != nil {
		return FormatResult{}, err
	}
	return FormatResult{Content: text}, nil
}

// Compliance checks content against the configured rule set and returns the
// resulting diagnostics, validated the same way as Check.
func (c *Client) Compliance(ctx context.Context, content string, opts ComplianceOptions) (DiagnosticBatch, error) {
	p, err := c.do(ctx, "/compliance", content, opts.values())
	if err != nil {
		return DiagnosticBatch{}, err
	}
	raw, err := p.structured()
	if err != nil {
		return DiagnosticBatch{}, err
	}
	return ParseDiagnostics(raw, c.log), nil
}

// payload is the negotiated body of a 2xx response: either structured JSON
// or plain text, never both.
type payload struct {
	json   []byte
	text   string
	isJSON bool
}

func (p *payload) structured() ([]byte, *Error) {
	if !p.isJSON {
		return nil, &Error{Kind: KindInvalidResponse, Message: "expected a JSON payload, got plain text"}
	}
	return p.json, nil
}

func (p *payload) plain() (string, *Error) {
	if p.isJSON {
		return "", &Error{Kind: KindInvalidResponse, Message: "expected a plain text payload, got JSON"}
	}
	return p.text, nil
}

// do executes one call against the service. The caller's context and the
// client's internal timeout are combined so that whichever fires first
// aborts the request; both surface as KindAborted and the timeout's timer
// is released on every return path by the deferred cancel.
func (c *Client) do(ctx context.Context, path, body string, query url.Values) (*payload, *Error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       classifyStatus(resp.StatusCode),
			Message:    fmt.Sprintf("remote returned status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return negotiate(resp.Header.Get("Content-Type"), data)
}

// negotiate interprets a 2xx body according to its declared content type.
func negotiate(contentType string, data []byte) (*payload, *Error) {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}

	switch {
	case strings.HasSuffix(mediaType, "/json") || strings.HasSuffix(mediaType, "+json"):
		if !gjson.ValidBytes(data) {
			return nil, &Error{Kind: KindInvalidResponse, Message: "response body is not valid JSON"}
		}
		return &payload{json: data, isJSON: true}, nil
	case mediaType == "text/plain":
		return &payload{text: string(data)}, nil
	default:
		return nil, &Error{
			Kind:    KindInvalidResponse,
			Message: fmt.Sprintf("unexpected content type %q", contentType),
		}
	}
}
