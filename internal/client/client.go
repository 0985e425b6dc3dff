// Package client is the single point of HTTP egress toward the document service.
// It attaches the stored access token to outgoing calls, normalizes transport
// and server failures into stable errors, and signals forced logout on 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mkraev/docquery/internal/config"
	"github.com/mkraev/docquery/internal/errs"
	"github.com/mkraev/docquery/internal/tokenstore"
)

const maxErrorBody = 64 << 10

// Client wraps the HTTP transport. It holds no business state; the token
// lives in the injected store and all domain state lives upstream.
type Client struct {
	baseURL string
	httpc   *http.Client // plain API calls
	uploadc *http.Client // multipart uploads, longer timeout
	store   tokenstore.Store
	log     *zap.Logger

	// onAuthReject fires after a 401 cleared the stored token. Injected so
	// the transport never reaches into the session or the frontend directly.
	onAuthReject func()
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the structured logger (zap.NewNop by default).
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithAuthRejectHook registers the forced-logout callback.
func WithAuthRejectHook(fn func()) Option {
	return func(c *Client) { c.onAuthReject = fn }
}

// New constructs a Client from configuration and a token store.
func New(cfg config.Config, store tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.RequestTimeout},
		uploadc: &http.Client{Timeout: cfg.UploadTimeout},
		store:   store,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// callOpts marks per-call behavior that deviates from the default.
type callOpts struct {
	upload bool // use the upload client and its longer timeout
	// retried marks a second attempt of the same logical call; such a call
	// never re-fires the forced-logout cascade, so one expired credential
	// cannot loop the session through repeated resets.
	retried bool
}

// do performs one HTTP call and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any, o callOpts) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", errs.ErrUnknown, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok, lerr := c.store.Load(); lerr == nil && tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rid, _ := uuid.NewV4()
	req.Header.Set("X-Request-ID", rid.String())

	hc := c.httpc
	if o.upload {
		hc = c.uploadc
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Warn("transport failure",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", rid.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: the server could not be reached", errs.ErrNetwork)
	}
	defer resp.Body.Close()

	c.log.Debug("http",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
		zap.String("request_id", rid.String()),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		if !o.retried {
			c.forceLogout()
		}
		return fmt.Errorf("%w: session expired, sign in again", errs.ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.serverError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: malformed server response", errs.ErrUnknown)
		}
	}
	return nil
}

// doJSON marshals in (if non-nil) as the JSON request body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, o callOpts) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", errs.ErrUnknown, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out, o)
}

// forceLogout clears the stored credential and notifies the subscriber.
// The session decides what a reset actually means; the transport only signals.
func (c *Client) forceLogout() {
	if err := c.store.Clear(); err != nil {
		c.log.Warn("clear token after 401", zap.Error(err))
	}
	if c.onAuthReject != nil {
		c.onAuthReject()
	}
}

// serverError turns a non-2xx response into a normalized error. A JSON body
// with a "detail" field wins; otherwise a generic message keyed by status.
func (c *Client) serverError(resp *http.Response) error {
	sentinel := errs.ErrServer
	if resp.StatusCode == http.StatusNotFound {
		sentinel = errs.ErrNotFound
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(b, &eb) == nil && eb.Detail != "" {
		return fmt.Errorf("%w: %s", sentinel, eb.Detail)
	}
	return fmt.Errorf("%w: %s", sentinel, statusMessage(resp.StatusCode))
}

func statusMessage(code int) string {
	switch {
	case code == http.StatusBadRequest:
		return "the request was rejected"
	case code == http.StatusForbidden:
		return "access denied"
	case code == http.StatusNotFound:
		return "resource not found"
	case code >= 500:
		return "the service is unavailable, try again later"
	default:
		return fmt.Sprintf("request failed (HTTP %d)", code)
	}
}
