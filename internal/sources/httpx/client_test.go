package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timetable/internal/sources"
	"timetable/internal/sources/httpx"
	"timetable/internal/testsupport"
)

func TestGetSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "timetable/test" {
			t.Errorf("unexpected user agent %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	body, err := httpx.Get(context.Background(), server.Client(), httpx.Request{
		Source:    "primary",
		Operation: "faculties",
		URL:       server.URL,
		UserAgent: "timetable/test",
		Headers:   map[string]string{"Authorization": "Bearer secret"},
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "[]" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestGetClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		marker error
	}{
		{"not found", http.StatusNotFound, "missing", sources.ErrSourceEmpty},
		{"server error", http.StatusBadGateway, "upstream down", sources.ErrSourceUnavailable},
		{"unauthorized", http.StatusUnauthorized, "", sources.ErrSourceUnavailable},
		{"empty body", http.StatusOK, "  \n", sources.ErrSourceEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			_, err := httpx.Get(context.Background(), server.Client(), httpx.Request{Source: "primary", URL: server.URL})
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestGetTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := httpx.NewClient(httpx.Options{RequestTimeout: 50 * time.Millisecond})
	_, err := httpx.Get(context.Background(), client, httpx.Request{Source: "primary", Operation: "faculties", URL: server.URL})
	if !errors.Is(err, sources.ErrSourceUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if sources.Code(err) != sources.CodeSourceUnavailable {
		t.Fatalf("unexpected code %q", sources.Code(err))
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := httpx.OptionsFromConfig(cfg)
	if opts.ConnectTimeout != cfg.ConnectTimeout() || opts.RequestTimeout != cfg.RequestTimeout() {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.UserAgent != cfg.HTTP.UserAgent {
		t.Fatalf("unexpected user agent %q", opts.UserAgent)
	}
	if httpx.NewClient(opts).Timeout != cfg.RequestTimeout() {
		t.Fatal("expected client timeout to follow request timeout")
	}
}
