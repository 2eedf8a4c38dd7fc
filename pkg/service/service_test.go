package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/dealprep/pkg/cache"
	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/integrations"
	"github.com/matzehuels/dealprep/pkg/integrations/builtwith"
	"github.com/matzehuels/dealprep/pkg/integrations/news"
	"github.com/matzehuels/dealprep/pkg/integrations/openai"
	"github.com/matzehuels/dealprep/pkg/integrations/scrape"
	"github.com/matzehuels/dealprep/pkg/observability"
)

var allKeys = map[string]string{"openai": "o", "builtwith": "b", "news": "n"}

// upstream is a fake proxy backend serving all four endpoints.
func upstream(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/openai", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		content := `{"summary":"Acme makes things.","executives":[{"name":"Ada","title":"CEO"}]}`
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	})
	mux.HandleFunc("/api/builtwith/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"Results":[{"Result":{"Paths":[{"Technologies":[{"Name":"Go","Tag":"framework"}]}]}}]}`))
	})
	mux.HandleFunc("/api/news", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"status":"ok","articles":[{"title":"Acme wins","url":"https://n.test/1","publishedAt":"2025-01-01T00:00:00Z"}]}`))
	})
	mux.HandleFunc("/api/scrape", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"url":"https://acme.com","html":"<title>Acme</title><p>Hello</p>"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, srv *httptest.Server, store cache.Cache) *Service {
	t.Helper()
	svc, err := New(Options{
		Environment: "development",
		BaseURL:     srv.URL,
		Cache:       store,
		HTTPClient:  srv.Client(),
		Credentials: allKeys,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestNewUnknownEnvironment(t *testing.T) {
	svc, err := New(Options{Environment: "staging"})
	if !errs.Is(err, errs.ErrCodeConfiguration) {
		t.Fatalf("err = %v, want CONFIGURATION_ERROR", err)
	}
	if svc != nil {
		t.Error("no service should be returned on error")
	}
}

func TestNewInvalidBaseURL(t *testing.T) {
	_, err := New(Options{Environment: "development", BaseURL: "localhost:3001"})
	if !errs.Is(err, errs.ErrCodeConfiguration) {
		t.Errorf("err = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestProviders(t *testing.T) {
	want := []string{"builtwith", "news", "openai", "scrape"}
	got := Providers()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Providers() = %v, want %v", got, want)
	}
}

func TestTypedFetches(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, upstream(t, &calls), cache.NewMemoryCache())
	ctx := context.Background()

	in, err := svc.Insight(ctx, "Acme")
	if err != nil || in.Kind != integrations.KindLive || in.Payload.Summary != "Acme makes things." {
		t.Errorf("Insight = %+v, %v", in, err)
	}
	st, err := svc.TechStack(ctx, "acme.com")
	if err != nil || st.Kind != integrations.KindLive || len(st.Payload.Technologies) != 1 {
		t.Errorf("TechStack = %+v, %v", st, err)
	}
	nw, err := svc.News(ctx, "Acme")
	if err != nil || nw.Kind != integrations.KindLive || len(nw.Payload) != 1 {
		t.Errorf("News = %+v, %v", nw, err)
	}
	sc, err := svc.Scrape(ctx, "https://acme.com")
	if err != nil || sc.Kind != integrations.KindLive || sc.Payload.Title != "Acme" {
		t.Errorf("Scrape = %+v, %v", sc, err)
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d, want 4", calls.Load())
	}
}

func TestFetchDispatch(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, upstream(t, &calls), nil)
	ctx := context.Background()

	res, err := svc.Fetch(ctx, "news", "Acme")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if _, ok := res.Payload.([]news.Item); !ok {
		t.Errorf("news payload type = %T", res.Payload)
	}

	tests := []struct {
		provider, query string
		check           func(any) bool
	}{
		{"openai", "Acme", func(v any) bool { _, ok := v.(openai.Insight); return ok }},
		{"builtwith", "acme.com", func(v any) bool { _, ok := v.(builtwith.Stack); return ok }},
		{"scrape", "https://acme.com", func(v any) bool { _, ok := v.(scrape.Summary); return ok }},
	}
	for _, tt := range tests {
		res, err := svc.Fetch(ctx, tt.provider, tt.query)
		if err != nil {
			t.Errorf("Fetch(%s) error: %v", tt.provider, err)
			continue
		}
		if !tt.check(res.Payload) {
			t.Errorf("Fetch(%s) payload type %T", tt.provider, res.Payload)
		}
	}

	if _, err := svc.Fetch(ctx, "weather", "Acme"); !errs.Is(err, errs.ErrCodeUnknownProvider) {
		t.Errorf("unknown provider err = %v", err)
	}
}

func TestFallbackWithoutCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, &calls)
	svc, err := New(Options{Environment: "development", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := svc.News(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("News error: %v", err)
	}
	if res.Kind != integrations.KindFallback {
		t.Errorf("Kind = %s, want fallback", res.Kind)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestBrief(t *testing.T) {
	var calls atomic.Int32
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	srv := upstream(t, &calls)
	svc, err := New(Options{
		Environment: "development",
		BaseURL:     srv.URL,
		HTTPClient:  srv.Client(),
		Credentials: allKeys,
		Now:         func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b, err := svc.Brief(context.Background(), "Acme", "acme.com")
	if err != nil {
		t.Fatalf("Brief error: %v", err)
	}
	if b.ID.String() == "" || b.Company != "Acme" || b.Environment != "development" {
		t.Errorf("Brief header = %+v", b)
	}
	if b.Stack == nil || !b.Stack.Live() {
		t.Errorf("Stack = %+v", b.Stack)
	}
	if b.Degraded() {
		t.Error("all parts were live")
	}
	if !b.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v", b.GeneratedAt)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	other, _ := svc.Brief(context.Background(), "Acme", "")
	if other.Stack != nil {
		t.Error("no domain means no stack")
	}
	if other.ID == b.ID {
		t.Error("each brief needs its own ID")
	}
}

func TestBriefRejectsBlankCompany(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, upstream(t, &calls), nil)
	if _, err := svc.Brief(context.Background(), " ", ""); !errs.Is(err, errs.ErrCodeInvalidQuery) {
		t.Errorf("err = %v, want INVALID_QUERY", err)
	}
}

// hostRecorder fails every request and remembers which hosts were asked.
type hostRecorder struct {
	mu    sync.Mutex
	hosts []string
}

func (h *hostRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	h.mu.Lock()
	h.hosts = append(h.hosts, r.URL.Host)
	h.mu.Unlock()
	return nil, errors.New("offline")
}

func TestSwitchEnvironment(t *testing.T) {
	rec := &hostRecorder{}
	svc, err := New(Options{
		Environment: "development",
		HTTPClient:  &http.Client{Transport: rec},
		Credentials: allKeys,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := svc.SwitchEnvironment("staging"); !errs.Is(err, errs.ErrCodeConfiguration) {
		t.Fatalf("switch to staging err = %v", err)
	}
	if svc.Profile().Name != env.Development {
		t.Error("failed switch must keep the previous environment")
	}

	_, _ = svc.Scrape(ctx, "https://acme.com")
	if err := svc.SwitchEnvironment("production"); err != nil {
		t.Fatalf("SwitchEnvironment: %v", err)
	}
	p := svc.Profile()
	want, _ := env.Resolve("production")
	if p.BaseURL != want.BaseURL {
		t.Errorf("BaseURL = %s", p.BaseURL)
	}
	_, _ = svc.Scrape(ctx, "https://acme.com")
	_, _ = svc.News(ctx, "Acme")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	wantHosts := []string{"localhost:3001", "api.dealprep.io", "api.dealprep.io"}
	if strings.Join(rec.hosts, ",") != strings.Join(wantHosts, ",") {
		t.Errorf("hosts = %v, want %v", rec.hosts, wantHosts)
	}
}

func TestProfileIsCopy(t *testing.T) {
	svc, err := New(Options{Environment: "production"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := svc.Profile()
	p.Endpoints[env.EndpointNews] = "/hijacked"
	fresh := svc.Profile()
	if path, _ := fresh.Path(env.EndpointNews); path != "/api/news" {
		t.Errorf("mutating a returned profile leaked into the service: %s", path)
	}
}

func TestCacheScopedByEnvironment(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, &calls)
	store := cache.NewMemoryCache()
	svc := newTestService(t, srv, store)
	ctx := context.Background()

	_, _ = svc.News(ctx, "Acme")
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
	data, hit, _ := store.Get(ctx, "env:development:provider:news:Acme")
	if !hit || !strings.Contains(string(data), "Acme wins") {
		t.Errorf("expected development-scoped entry, hit=%v data=%s", hit, data)
	}
	if _, hit, _ := store.Get(ctx, "env:production:provider:news:Acme"); hit {
		t.Error("production key must not be populated by a development fetch")
	}
}

func TestObserverPerService(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, &calls)
	ctx := context.Background()

	counters := [2]*observability.Counters{observability.NewCounters(), observability.NewCounters()}
	var svcs [2]*Service
	for i := range svcs {
		svc, err := New(Options{
			Environment: "development",
			BaseURL:     srv.URL,
			Cache:       cache.NewMemoryCache(),
			HTTPClient:  srv.Client(),
			Credentials: allKeys,
			Observer:    counters[i],
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		svcs[i] = svc
	}

	_, _ = svcs[0].News(ctx, "Acme")
	_, _ = svcs[0].News(ctx, "Acme")
	_, _ = svcs[1].TechStack(ctx, "acme.com")

	first, second := counters[0].Snapshot(), counters[1].Snapshot()
	if n := first.Providers["news"]; n.Live != 2 || n.CacheHits != 1 || n.CacheWrites != 1 {
		t.Errorf("first service news stats = %+v", n)
	}
	if first.Requests != 1 || second.Requests != 1 {
		t.Errorf("upstream requests = %d/%d, want 1/1", first.Requests, second.Requests)
	}
	if _, ok := first.Providers["builtwith"]; ok {
		t.Error("first service saw the second service's builtwith fetch")
	}
	if _, ok := second.Providers["news"]; ok {
		t.Error("second service saw the first service's news fetches")
	}
}

func TestClose(t *testing.T) {
	svc, _ := New(Options{Environment: "development"})
	if err := svc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
