package footballdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/arkadyv/solkoff-board/internal/infrastructure/repository/memory"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
	"github.com/arkadyv/solkoff-board/internal/usecase"
)

const matchesBody = `{
	"matches": [
		{
			"id": 101,
			"utcDate": "2026-01-20T20:00:00Z",
			"status": "FINISHED",
			"stage": "LEAGUE_STAGE",
			"matchday": 7,
			"homeTeam": {"id": 1, "name": "Alpha FC", "tla": "ALP", "crest": "https://crests.test/1.png"},
			"awayTeam": {"id": 2, "name": "Beta FC", "tla": "BET", "crest": "https://crests.test/2.png"},
			"score": {"winner": "HOME_TEAM", "fullTime": {"home": 2, "away": 1}}
		}
	]
}`

func newTestClient(t *testing.T, serverURL string, mutate func(*ClientConfig)) *Client {
	t.Helper()

	cfg := ClientConfig{
		BaseURL: serverURL,
		APIKey:  "test-token",
		Cache:   memory.NewAPICacheStore(nil),
		Logger:  logging.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg)
}

func TestClient_FetchMatches_CacheHitSkipsProvider(t *testing.T) {
	t.Parallel()

	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		if got := r.Header.Get("X-Auth-Token"); got != "test-token" {
			t.Errorf("expected auth token header, got=%q", got)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	first, err := client.FetchMatches(context.Background(), "CL")
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := client.FetchMatches(context.Background(), "CL")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	mu.Lock()
	got := hits
	mu.Unlock()
	if got != 1 {
		t.Fatalf("expected a single upstream request, got=%d", got)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one match from both calls, got=%d/%d", len(first), len(second))
	}
	if first[0].ID != second[0].ID || first[0].Status != second[0].Status {
		t.Fatalf("cached payload diverged: first=%+v second=%+v", first[0], second[0])
	}
	if first[0].ID != 101 || first[0].Home.ID != 1 || first[0].Away.Code != "BET" {
		t.Fatalf("unexpected mapped match: %+v", first[0])
	}
	if first[0].HomeScore == nil || *first[0].HomeScore != 2 {
		t.Fatalf("expected home score 2, got=%v", first[0].HomeScore)
	}
	if second[0].AwayScore == nil || *second[0].AwayScore != 1 {
		t.Fatalf("expected cached away score 1, got=%v", second[0].AwayScore)
	}
}

func TestClient_FetchMatches_RetriesRateLimitThenSucceeds(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()

	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		attempt := hits
		mu.Unlock()
		if attempt <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"rate limit"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *ClientConfig) {
		cfg.Clock = clock
	})

	type result struct {
		matches []usecase.ExternalMatch
		err     error
	}
	done := make(chan result, 1)
	go func() {
		matches, err := client.FetchMatches(context.Background(), "CL")
		done <- result{matches: matches, err: err}
	}()

	// The client sleeps 1s, 2s, 4s between the four attempts. Walk the
	// fake clock through each backoff.
	for _, backoff := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		if err := clock.BlockUntilContext(context.Background(), 1); err != nil {
			t.Fatalf("waiting for backoff sleeper: %v", err)
		}
		clock.Advance(backoff)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("expected success after retries, got=%v", res.err)
		}
		if len(res.matches) != 1 {
			t.Fatalf("expected one match, got=%d", len(res.matches))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not finish after backoffs elapsed")
	}

	mu.Lock()
	got := hits
	mu.Unlock()
	if got != 4 {
		t.Fatalf("expected exactly 4 attempts for 429x3 then 200, got=%d", got)
	}
}

func TestClient_FetchMatches_RateLimitExhaustsRetries(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()

	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *ClientConfig) {
		cfg.Clock = clock
	})

	done := make(chan error, 1)
	go func() {
		_, err := client.FetchMatches(context.Background(), "CL")
		done <- err
	}()

	for range 3 {
		if err := clock.BlockUntilContext(context.Background(), 1); err != nil {
			t.Fatalf("waiting for backoff sleeper: %v", err)
		}
		clock.Advance(4 * time.Second)
	}

	select {
	case err := <-done:
		if !errors.Is(err, usecase.ErrRateLimited) {
			t.Fatalf("expected rate limit sentinel, got=%v", err)
		}
		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			t.Fatalf("expected RateLimitError, got=%v", err)
		}
		if rateErr.Attempts != 4 {
			t.Fatalf("expected 4 attempts recorded, got=%d", rateErr.Attempts)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not fail after retries were exhausted")
	}

	mu.Lock()
	got := hits
	mu.Unlock()
	if got != 4 {
		t.Fatalf("expected 4 attempts before giving up, got=%d", got)
	}
}

func TestClient_FetchMatches_ForbiddenFailsWithoutRetry(t *testing.T) {
	t.Parallel()

	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"restricted resource"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.FetchMatches(context.Background(), "CL")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized sentinel, got=%v", err)
	}

	mu.Lock()
	got := hits
	mu.Unlock()
	if got != 1 {
		t.Fatalf("expected a single attempt on 403, got=%d", got)
	}
}

func TestClient_RequestsRespectMinInterval(t *testing.T) {
	t.Parallel()

	const interval = 40 * time.Millisecond

	var mu sync.Mutex
	var stamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		if r.URL.Path == "/competitions/CL/standings" {
			_, _ = w.Write([]byte(`{"standings":[]}`))
			return
		}
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *ClientConfig) {
		cfg.MinRequestInterval = interval
	})

	if _, err := client.FetchMatches(context.Background(), "CL"); err != nil {
		t.Fatalf("fetch matches failed: %v", err)
	}
	if _, err := client.FetchStandings(context.Background(), "CL"); err != nil {
		t.Fatalf("fetch standings failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stamps) != 2 {
		t.Fatalf("expected two upstream requests, got=%d", len(stamps))
	}
	// Allow a small scheduling tolerance; the gate guarantees the wait
	// before the request is issued, not the server-observed gap.
	if gap := stamps[1].Sub(stamps[0]); gap < interval-5*time.Millisecond {
		t.Fatalf("requests spaced %v apart, want at least %v", gap, interval)
	}
}

func TestClient_FetchStandings_KeepsOnlyTotalTables(t *testing.T) {
	t.Parallel()

	body := `{
		"standings": [
			{"stage": "LEAGUE_STAGE", "type": "TOTAL", "table": [
				{"position": 1, "team": {"id": 1, "name": "Alpha FC", "tla": "ALP"}, "playedGames": 8, "won": 7, "draw": 1, "lost": 0, "points": 22, "goalsFor": 19, "goalsAgainst": 5, "goalDifference": 14}
			]},
			{"stage": "LEAGUE_STAGE", "type": "HOME", "table": [
				{"position": 1, "team": {"id": 1, "name": "Alpha FC", "tla": "ALP"}, "playedGames": 4, "won": 4, "draw": 0, "lost": 0, "points": 12}
			]}
		]
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	rows, err := client.FetchStandings(context.Background(), "CL")
	if err != nil {
		t.Fatalf("fetch standings failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the HOME table to be dropped, got=%d rows", len(rows))
	}
	row := rows[0]
	if row.Team.ID != 1 || row.Played != 8 || row.Points != 22 || row.GoalDifference != 14 {
		t.Fatalf("unexpected standings row: %+v", row)
	}
}

func TestClient_ClearCacheForcesRefetch(t *testing.T) {
	t.Parallel()

	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	if _, err := client.FetchMatches(ctx, "CL"); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if err := client.ClearCache(ctx); err != nil {
		t.Fatalf("clear cache failed: %v", err)
	}
	if _, err := client.FetchMatches(ctx, "CL"); err != nil {
		t.Fatalf("fetch after clear failed: %v", err)
	}

	mu.Lock()
	got := hits
	mu.Unlock()
	if got != 2 {
		t.Fatalf("expected refetch after cache clear, got=%d upstream requests", got)
	}
}

func TestClient_TransportFailureMapsToDependencyUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.FetchMatches(context.Background(), "CL")
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got=%v", err)
	}
}

func TestClient_ExpiredCacheEntryRefetchesAndSweeps(t *testing.T) {
	t.Parallel()

	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	clock := clockwork.NewFakeClock()
	store := memory.NewAPICacheStore(clock)
	client := newTestClient(t, server.URL, func(cfg *ClientConfig) {
		cfg.Clock = clock
		cfg.Cache = store
		cfg.CacheTTL = time.Hour
	})
	ctx := context.Background()

	if _, err := client.FetchMatches(ctx, "CL"); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	clock.Advance(time.Hour + time.Minute)

	if _, err := client.FetchMatches(ctx, "CL"); err != nil {
		t.Fatalf("fetch after expiry failed: %v", err)
	}

	mu.Lock()
	got := hits
	mu.Unlock()
	if got != 2 {
		t.Fatalf("expected expired entry to force a refetch, got=%d upstream requests", got)
	}
}
