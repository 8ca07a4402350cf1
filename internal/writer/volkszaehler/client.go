// internal/writer/volkszaehler/client.go
package volkszaehler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NullChannel is the channel id that disables a post.
const NullChannel = "null"

// NoSendStatus is returned for NullChannel posts. No request is made.
const NoSendStatus = -99

// Volkszaehler middleware client (stateless, 1 post = 1 request)
type Client struct {
	url  string
	http *http.Client
}

type Config struct {
	Server     string // host[:port]
	Middleware string // e.g. middleware.php
	Timeout    time.Duration

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Server == "" {
		return nil, errors.New("volkszaehler: server required")
	}
	if cfg.Middleware == "" {
		cfg.Middleware = "middleware.php"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	u := url.URL{
		Scheme: "http",
		Host:   cfg.Server,
		Path:   "/" + strings.Trim(cfg.Middleware, "/") + "/data.json",
	}

	return &Client{
		url:  u.String(),
		http: &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
	}, nil
}

// URL is the data endpoint posts go to.
func (c *Client) URL() string { return c.url }

// Post adds one tuple to a channel and returns the HTTP status.
// at is truncated to seconds; the middleware expects milliseconds.
func (c *Client) Post(ctx context.Context, channel string, at time.Time, value float64) (int, error) {
	if channel == NullChannel || channel == "" {
		return NoSendStatus, nil
	}

	body := EncodeBody(channel, at, value)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("volkszaehler: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("volkszaehler: post %s: %w", channel, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

//
// ---- body encoding (LOCKED) ----
//
// uuid=<channel>&ts=<epoch seconds>000&value=<value, 2 decimals>
//

func EncodeBody(channel string, at time.Time, value float64) string {
	var b strings.Builder
	b.WriteString("uuid=")
	b.WriteString(url.QueryEscape(channel))
	b.WriteString("&ts=")
	b.WriteString(strconv.FormatInt(at.Unix(), 10))
	b.WriteString("000")
	b.WriteString("&value=")
	b.WriteString(strconv.FormatFloat(value, 'f', 2, 64))
	return b.String()
}
