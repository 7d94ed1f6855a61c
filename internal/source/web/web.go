package web

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scadenze/internal/core"
	"scadenze/internal/source"
)

// maxBodyBytes bounds a data set response.
const maxBodyBytes = 4 << 20

// Source fetches <baseURL>/<name>.json over HTTP.
type Source struct {
	baseURL *url.URL
	client  *http.Client
}

var _ source.Fetcher = (*Source)(nil)

type Option func(*Source)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// New builds a web source. timeout bounds a whole request; zero means the
// request runs until the server answers or the transport gives up.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Source, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url scheme %q: must be http or https", u.Scheme)
	}
	s := &Source{baseURL: u, client: newHTTPClientWithPooling(timeout)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) Fetch(ctx context.Context, name core.DataSetName) ([]byte, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	target := s.baseURL.JoinPath(name.String() + ".json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &source.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response for %s exceeds %d bytes", name, maxBodyBytes)
	}
	return body, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// transport-level timeouts and keep-alive.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
