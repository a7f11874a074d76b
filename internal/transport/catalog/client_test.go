package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/metrics"
)

const zeldaRecord = `{
	"id": 7346,
	"name": "The Legend of Zelda: Breath of the Wild",
	"summary": "<p>Step into a world of <b>discovery</b>.</p>",
	"first_release_date": 1488499200,
	"cover": {"url": "//images.igdb.com/igdb/image/upload/t_thumb/co3p2d.jpg"},
	"category": 0,
	"involved_companies": [
		{"company": {"name": "Nintendo EPD"}, "developer": true},
		{"company": {"name": "Nintendo"}, "publisher": true}
	],
	"genres": [{"name": "Adventure"}],
	"platforms": [{"name": "Nintendo Switch"}, {"name": "Wii U"}],
	"screenshots": [{"url": "//images.igdb.com/igdb/image/upload/t_thumb/sc1.jpg"}],
	"total_rating": 94.2,
	"total_rating_count": 3120,
	"aggregated_rating": 97.1,
	"follows": 1400,
	"franchises": [{"name": "The Legend of Zelda"}],
	"collections": [{"name": "The Legend of Zelda"}],
	"alternative_names": [{"name": "BOTW"}]
}`

func newTestClient(t *testing.T, url string, mod ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{URL: url, ClientID: "cid", Token: "tok", RatePerSec: 1000, Burst: 100, RetryBase: time.Millisecond}
	for _, fn := range mod {
		fn(&cfg)
	}
	c, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSearch_DecodesAndTransforms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Client-ID") != "cid" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Endpoint != "games" || !strings.Contains(req.Query, `search "zelda"`) {
			t.Errorf("request = %+v", req)
		}
		_, _ = w.Write([]byte(`{"success": true, "games": [` + zeldaRecord + `]}`))
	}))
	defer server.Close()

	games, err := newTestClient(t, server.URL).Search(context.Background(), `search "zelda"; limit 10;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("games = %d, want 1", len(games))
	}
	g := games[0]
	if g.ID != 7346 || g.Title != "The Legend of Zelda: Breath of the Wild" {
		t.Errorf("game = %+v", g)
	}
	if g.CoverURL != "https://images.igdb.com/igdb/image/upload/t_1080p/co3p2d.jpg" {
		t.Errorf("cover = %q", g.CoverURL)
	}
	if len(g.Screenshots) != 1 || !strings.HasPrefix(g.Screenshots[0], "https://") {
		t.Errorf("screenshots = %v", g.Screenshots)
	}
	if g.Summary != "Step into a world of discovery." {
		t.Errorf("summary not sanitized: %q", g.Summary)
	}
	if g.ReleasedAt == nil || g.ReleasedAt.Year() != 2017 {
		t.Errorf("released = %v", g.ReleasedAt)
	}
	if devs := g.Developers(); len(devs) != 1 || devs[0] != "Nintendo EPD" {
		t.Errorf("developers = %v", devs)
	}
	if pubs := g.Publishers(); len(pubs) != 1 || pubs[0] != "Nintendo" {
		t.Errorf("publishers = %v", pubs)
	}
	if g.RatingCount != 3120 || g.AggregatedRating != 97.1 || len(g.AlternativeNames) != 1 {
		t.Errorf("optional fields lost: %+v", g)
	}
}

func TestSearch_DropsInvalidRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "games": [
			{"id": 0, "name": "No id"},
			{"id": 5, "name": "  "},
			{"id": "six", "name": "Bad type"},
			{"id": 7, "name": "Ratchet &amp; Clank <i>Rift Apart</i>"}
		]}`))
	}))
	defer server.Close()

	before := testutil.ToFloat64(metrics.UpstreamInvalidRecordsTotal)
	games, err := newTestClient(t, server.URL).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 || games[0].Title != "Ratchet & Clank Rift Apart" {
		t.Errorf("games = %+v", games)
	}
	if got := testutil.ToFloat64(metrics.UpstreamInvalidRecordsTotal) - before; got != 3 {
		t.Errorf("invalid records counted = %v, want 3", got)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusBadGateway, "bad gateway", domain.ErrUpstreamUnavailable},
		{"client error", http.StatusBadRequest, "syntax error", domain.ErrUpstreamRejected},
		{"success false", http.StatusOK, `{"success": false, "error": "invalid query"}`, domain.ErrUpstreamRejected},
		{"malformed envelope", http.StatusOK, `<html>oops</html>`, domain.ErrUpstreamUnavailable},
		{"missing success", http.StatusOK, `{"games": []}`, domain.ErrUpstreamUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Search(context.Background(), "q")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSearch_RetriesThrottled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "games": []}`))
	}))
	defer server.Close()

	games, err := newTestClient(t, server.URL).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 0 || calls.Load() != 3 {
		t.Errorf("games = %v, calls = %d", games, calls.Load())
	}
}

func TestSearch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.MaxRetries = 2 })
	_, err := c.Search(context.Background(), "q")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 1 + 2 retries", calls.Load())
	}
}

func TestSearch_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).Search(context.Background(), "q")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestSearch_RespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, server.URL).Search(ctx, "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "games": []}`))
	}))
	defer server.Close()

	if err := newTestClient(t, server.URL).HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}, zap.NewNop()); err == nil {
		t.Error("expected error without url")
	}
}

func TestRetryAfter(t *testing.T) {
	if retryAfter("2") != 2*time.Second || retryAfter("") != 0 || retryAfter("soon") != 0 {
		t.Error("unexpected Retry-After parsing")
	}
}
