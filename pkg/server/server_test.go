package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dealprep/pkg/cache"
	"github.com/matzehuels/dealprep/pkg/observability"
	"github.com/matzehuels/dealprep/pkg/service"
)

// observer avoids handing service.New a non-nil interface holding a nil pointer.
func observer(c *observability.Counters) observability.Observer {
	if c == nil {
		return nil
	}
	return c
}

func newTestServer(t *testing.T, counters *observability.Counters) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/api/news":
			w.Write([]byte(`{"status":"ok","articles":[{"title":"Acme wins","url":"https://n.test/1"}]}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	t.Cleanup(up.Close)

	logger := log.New(io.Discard)
	svc, err := service.New(service.Options{
		Environment: "development",
		BaseURL:     up.URL,
		HTTPClient:  up.Client(),
		Cache:       cache.NewMemoryCache(),
		Credentials: map[string]string{"news": "n", "openai": "o", "builtwith": "b"},
		Logger:      logger,
		Observer:    observer(counters),
	})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	srv := httptest.NewServer(New(svc, Options{Counters: counters, Logger: logger}).Handler())
	t.Cleanup(srv.Close)
	return srv, &calls
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	var body map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "up" {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("response should carry a request ID")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "7f1e6a3c-1111-4e4e-9a9a-0123456789ab")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "7f1e6a3c-1111-4e4e-9a9a-0123456789ab" {
		t.Errorf("request ID = %q", got)
	}
}

func TestProviderLive(t *testing.T) {
	srv, calls := newTestServer(t, nil)
	var body struct {
		Kind    string `json:"kind"`
		Payload []struct {
			Title string `json:"title"`
		} `json:"payload"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/news?q=Acme", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.Kind != "live" || len(body.Payload) != 1 || body.Payload[0].Title != "Acme wins" {
		t.Errorf("body = %+v", body)
	}

	getJSON(t, srv.URL+"/api/v1/news?q=Acme", nil)
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", calls.Load())
	}
}

func TestProviderFallback(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	var body struct {
		Kind    string         `json:"kind"`
		Payload map[string]any `json:"payload"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/openai?q=Acme", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fallback must still be 200, got %d", resp.StatusCode)
	}
	if body.Kind != "fallback" || body.Payload["summary"] == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestProviderErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/weather?q=Acme", http.StatusNotFound, "UNKNOWN_PROVIDER"},
		{"/api/v1/news", http.StatusBadRequest, "INVALID_QUERY"},
		{"/api/v1/brief?company=", http.StatusBadRequest, "INVALID_QUERY"},
		{"/api/v1/stats?q=x", http.StatusNotFound, "UNKNOWN_PROVIDER"},
	}
	for _, tt := range tests {
		var body map[string]string
		resp := getJSON(t, srv.URL+tt.path, &body)
		if resp.StatusCode != tt.status || body["code"] != tt.code {
			t.Errorf("GET %s = %d %v, want %d %s", tt.path, resp.StatusCode, body, tt.status, tt.code)
		}
	}
}

func TestBrief(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	var body struct {
		ID      string `json:"id"`
		Company string `json:"company"`
		Insight struct {
			Kind string `json:"kind"`
		} `json:"insight"`
		News struct {
			Kind string `json:"kind"`
		} `json:"news"`
		Stack *struct {
			Kind string `json:"kind"`
		} `json:"stack"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/brief?company=Acme&domain=acme.com", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.ID == "" || body.Company != "Acme" {
		t.Errorf("brief header = %+v", body)
	}
	if body.News.Kind != "live" || body.Insight.Kind != "fallback" {
		t.Errorf("kinds: news=%s insight=%s", body.News.Kind, body.Insight.Kind)
	}
	if body.Stack == nil || body.Stack.Kind != "fallback" {
		t.Errorf("stack = %+v", body.Stack)
	}
}

func TestEnvironment(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	var profile struct {
		Name      string            `json:"name"`
		Endpoints map[string]string `json:"endpoints"`
	}
	getJSON(t, srv.URL+"/api/v1/environment", &profile)
	if profile.Name != "development" || len(profile.Endpoints) != 4 {
		t.Errorf("profile = %+v", profile)
	}

	put := func(body string) *http.Response {
		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/environment", strings.NewReader(body))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp
	}
	if resp := put(`{"name":"staging"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("switch to staging status = %d", resp.StatusCode)
	}
	if resp := put(`{"name":"production"}`); resp.StatusCode != http.StatusOK {
		t.Errorf("switch to production status = %d", resp.StatusCode)
	}
	getJSON(t, srv.URL+"/api/v1/environment", &profile)
	if profile.Name != "production" {
		t.Errorf("Name = %s after switch", profile.Name)
	}
}

func TestStats(t *testing.T) {
	counters := observability.NewCounters()
	srv, _ := newTestServer(t, counters)
	getJSON(t, srv.URL+"/api/v1/news?q=Acme", nil)
	getJSON(t, srv.URL+"/api/v1/news?q=Acme", nil)

	var snap observability.Snapshot
	getJSON(t, srv.URL+"/api/v1/stats", &snap)
	news := snap.Providers["news"]
	if news.Live != 2 || news.CacheHits != 1 {
		t.Errorf("news stats = %+v", news)
	}
	if snap.Requests != 1 {
		t.Errorf("upstream requests = %d, want 1", snap.Requests)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	svc, err := service.New(service.Options{Environment: "development", Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	s := New(svc, Options{Logger: log.New(io.Discard)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe after cancel = %v", err)
	}
}
