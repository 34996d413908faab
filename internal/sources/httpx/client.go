// Package httpx builds the HTTP client shared by the upstream sources and
// classifies transport and status failures into the sources taxonomy.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"timetable/internal/config"
	"timetable/internal/sources"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Options tunes the transport.
type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	UserAgent      string
}

// OptionsFromConfig derives transport options from the [http] section.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		ConnectTimeout: cfg.ConnectTimeout(),
		ReadTimeout:    cfg.ReadTimeout(),
		RequestTimeout: cfg.RequestTimeout(),
		UserAgent:      cfg.HTTP.UserAgent,
	}
}

// NewClient returns an http.Client whose dial, header, and total timeouts
// follow opts. Zero durations leave the corresponding limit unset.
func NewClient(opts Options) *http.Client {
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: opts.ReadTimeout,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: opts.RequestTimeout}
}

// Request describes one GET against an upstream.
type Request struct {
	Source    string
	Operation string
	URL       string
	Accept    string
	UserAgent string
	Headers   map[string]string
}

// Get performs req and returns the response body. Network errors, timeouts,
// and non-2xx statuses are tagged with sources.ErrSourceUnavailable; a 404
// and an empty 2xx body are tagged with sources.ErrSourceEmpty.
func Get(ctx context.Context, client *http.Client, req Request) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, sources.Wrap(sources.ErrSourceUnavailable, req.Source, req.Operation, "build request", err)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, sources.Wrap(sources.ErrSourceUnavailable, req.Source, req.Operation, describeTransportError(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, sources.Wrap(sources.ErrSourceEmpty, req.Source, req.Operation, "status 404", nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, sources.Wrap(sources.ErrSourceUnavailable, req.Source, req.Operation,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, sources.Wrap(sources.ErrSourceUnavailable, req.Source, req.Operation, "read body", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, sources.Wrap(sources.ErrSourceEmpty, req.Source, req.Operation, "empty body", nil)
	}
	return body, nil
}

func describeTransportError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "request failed"
	}
}
