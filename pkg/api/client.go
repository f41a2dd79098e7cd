package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/notisync/pkg/channel"
	"github.com/dmitrymomot/notisync/pkg/logger"
)

// Endpoint paths relative to the base URL.
const (
	pendingPath     = "/api/notifications/pending"
	unreadCountPath = "/api/notifications/unread-count"
	markReadPathFmt = "/api/notifications/%s/read"
)

const userAgent = "notisync/1.0"

// Config describes the notification API connection. Fields are populated
// from environment variables via github.com/caarlos0/env.
type Config struct {
	BaseURL string        `env:"NOTISYNC_API_URL,required"`              // Base URL of the notification API, e.g. "https://app.example.com".
	Timeout time.Duration `env:"NOTISYNC_API_TIMEOUT" envDefault:"15s"` // Per-request timeout.
}

// Client talks to the server-side notification endpoints: pending
// notifications for the polling channel, the mark-read mutation and the
// authoritative unread count used for resynchronization.
//
// Authentication is the caller's concern; inject a custom *http.Client
// carrying cookies or auth transport via WithHTTPClient.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default pooled HTTP client. Nil clients are
// ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger for the Client.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithTimeout overrides the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// New creates an API client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewFromConfig creates an API client from an env-loaded configuration.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	return New(cfg.BaseURL, append([]Option{WithTimeout(cfg.Timeout)}, opts...)...)
}

// Pending returns notifications created since the previous call. The server
// marks returned items as delivered, so no item is ever returned twice. A 401
// response maps to channel.ErrUnauthorized, the terminal signal that the
// session ended.
func (c *Client) Pending(ctx context.Context, userID int64) ([]channel.Event, error) {
	body, err := c.get(ctx, pendingPath, userID)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding pending response: %w", ErrRequestFailed, err)
	}

	events := make([]channel.Event, 0, len(raw))
	for _, item := range raw {
		ev, err := channel.DecodeEvent(item)
		if err != nil {
			// One bad item must not discard the rest of the batch.
			c.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping malformed pending notification",
				logger.UserID(userID),
				logger.Error(err),
			)
			continue
		}
		events = append(events, ev)
	}

	return events, nil
}

// MarkRead issues the mark-read mutation for one notification. Success and
// failure are binary: any non-success status is an error and the caller must
// not decrement the unread counter.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyNotificationID
	}

	u := c.baseURL.JoinPath(fmt.Sprintf(markReadPathFmt, url.PathEscape(id)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return channel.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: mark-read returned status %d", ErrRequestFailed, resp.StatusCode)
	}

	return nil
}

// UnreadCount fetches the server-authoritative unread count. The endpoint
// returns a bare integer body.
func (c *Client) UnreadCount(ctx context.Context, userID int64) (int, error) {
	body, err := c.get(ctx, unreadCountPath, userID)
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("%w: unread count is not an integer: %w", ErrRequestFailed, err)
	}

	return count, nil
}

// get performs a GET for the given path scoped to the user and returns the
// response body of a successful request.
func (c *Client) get(ctx context.Context, path string, userID int64) ([]byte, error) {
	u := c.baseURL.JoinPath(path)
	q := u.Query()
	q.Set("user_id", strconv.FormatInt(userID, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, channel.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRequestFailed, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	return body, nil
}

// drain consumes the remaining body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
