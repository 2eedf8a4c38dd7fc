package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/dealprep/pkg/buildinfo"
	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/observability"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	p, err := env.Resolve("development")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	opts.HTTPClient = srv.Client()
	return NewClient(p.WithBaseURL(srv.URL), opts)
}

func TestRequestResolvesEndpoint(t *testing.T) {
	var gotPath, gotQuery, gotKey, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Headers: map[string]string{"X-API-Key": "default"}})
	resp, err := c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{
		Query:   url.Values{"q": {"Acme Corporation"}},
		Headers: map[string]string{"X-API-Key": "override"},
	})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if gotPath != "/api/news" {
		t.Errorf("path = %q, want /api/news", gotPath)
	}
	if gotQuery != "Acme Corporation" {
		t.Errorf("q = %q", gotQuery)
	}
	if gotKey != "override" {
		t.Errorf("per-request header should win, got %q", gotKey)
	}
	if gotUA != buildinfo.UserAgent() {
		t.Errorf("User-Agent = %q", gotUA)
	}

	var body struct{ OK bool }
	if err := resp.DecodeJSON(&body); err != nil || !body.OK {
		t.Errorf("DecodeJSON = %+v, %v", body, err)
	}
}

func TestRequestFillsPlaceholders(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, err := c.Request(context.Background(), http.MethodGet, env.EndpointBuiltWith, Params{
		Path: map[string]string{"domain": "acme.com"},
	})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if gotPath != "/api/builtwith/acme.com" {
		t.Errorf("path = %q", gotPath)
	}

	_, err = c.Request(context.Background(), http.MethodGet, env.EndpointBuiltWith, Params{})
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("missing placeholder: got %v, want INVALID_INPUT", err)
	}
}

func TestRequestPostsJSONBody(t *testing.T) {
	var got map[string]string
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, err := c.Request(context.Background(), http.MethodPost, env.EndpointScrape, Params{
		Body: map[string]string{"url": "https://acme.com"},
	})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if got["url"] != "https://acme.com" {
		t.Errorf("body = %v", got)
	}
}

func TestRequestUnknownEndpoint(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, err := c.Request(context.Background(), http.MethodGet, "weather", Params{})
	if !errs.Is(err, errs.ErrCodeUnknownEndpoint) {
		t.Fatalf("got %v, want UNKNOWN_ENDPOINT", err)
	}
	if calls.Load() != 0 {
		t.Error("unknown endpoint must not reach the network")
	}
}

func TestRequestStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   errs.Code
	}{
		{"not found", http.StatusNotFound, errs.ErrCodeTransport},
		{"server error", http.StatusBadGateway, errs.ErrCodeTransport},
		{"rate limited", http.StatusTooManyRequests, errs.ErrCodeRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newTestClient(t, srv, Options{})
			_, err := c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{})
			if !errs.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
			if !errs.Is(err, errs.ErrCodeTransport) {
				t.Errorf("every status failure should be a TRANSPORT_ERROR, got %v", err)
			}
		})
	}
}

func TestRequestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv, Options{})
	srv.Close()

	_, err := c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{})
	if !errs.Is(err, errs.ErrCodeTransport) {
		t.Errorf("got %v, want TRANSPORT_ERROR", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Timeout: 20 * time.Millisecond})
	_, err := c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{})
	if !errs.Is(err, errs.ErrCodeTransport) {
		t.Errorf("got %v, want TRANSPORT_ERROR", err)
	}
}

func TestRequestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Attempts: 3, RetryDelay: time.Millisecond})
	if _, err := c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{}); err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRequestSingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, _ = c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{})
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Attempts: 3, RetryDelay: time.Millisecond})
	_, _ = c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{})
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRequestClientHooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/news" {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	mine := observability.NewCounters()
	global := observability.NewCounters()
	observability.SetHTTPHooks(global)
	defer observability.Reset()

	c := newTestClient(t, srv, Options{HTTPHooks: mine})
	_, _ = c.Request(context.Background(), http.MethodGet, env.EndpointNews, Params{})
	_, _ = c.Request(context.Background(), http.MethodGet, env.EndpointScrape, Params{Query: url.Values{"url": {"https://acme.com"}}})

	snap := mine.Snapshot()
	if snap.Requests != 2 || snap.StatusCodes[200] != 1 || snap.StatusCodes[404] != 1 {
		t.Errorf("client hooks = %+v", snap)
	}
	if global.Snapshot().Requests != 0 {
		t.Error("process-wide hooks should not see requests of a client with its own hooks")
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	r := &Response{StatusCode: 200, Body: []byte("<html>")}
	var v map[string]any
	if err := r.DecodeJSON(&v); !errs.Is(err, errs.ErrCodeMalformedResponse) {
		t.Errorf("got %v, want MALFORMED_RESPONSE", err)
	}
}

func TestURL(t *testing.T) {
	p, _ := env.Resolve("production")
	c := NewClient(p, Options{})

	u, err := c.URL(env.EndpointBuiltWith, Params{Path: map[string]string{"domain": "a b.com"}})
	if err != nil {
		t.Fatalf("URL error: %v", err)
	}
	if got := u.String(); got != "https://api.dealprep.io/api/builtwith/a%20b.com" {
		t.Errorf("URL = %s", got)
	}
}
