package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// fallbackTable covers enough staples to keep the pipeline usable when the
// reference source is unreachable. Values are per 100 g.
var fallbackTable = Table{
	"apple":          {Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2},
	"banana":         {Calories: 89, Protein: 1.1, Carbs: 23, Fat: 0.3},
	"bread":          {Calories: 265, Protein: 9, Carbs: 49, Fat: 3.2},
	"chicken breast": {Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6},
	"rice":           {Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3},
}

// StoreConfig configures the reference Store.
type StoreConfig struct {
	// URL of the reference JSON document (food name -> per-100g macros).
	// Empty means no source is configured and the fallback table is used.
	URL string

	// Timeout bounds the fetch. Default: 10s.
	Timeout time.Duration

	// UserAgent sent with the fetch request.
	UserAgent string

	// MaxBytes caps the response body size. Default: 5MB.
	MaxBytes int64

	// Client overrides the HTTP client (tests). Default: &http.Client{}.
	Client *http.Client
}

func (c *StoreConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "platewise/1.0"
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 * 1024 * 1024
	}
	if c.Client == nil {
		c.Client = &http.Client{}
	}
}

// Store is the lazily-loaded, process-lifetime cache of the reference table.
//
// The first Load triggers the fetch; concurrent callers that arrive before it
// completes share the same in-flight load, so exactly one fetch hits the
// source. Construct a fresh Store per test for isolation.
type Store struct {
	cfg    StoreConfig
	logger *slog.Logger

	mu      sync.Mutex
	loading chan struct{} // closed once table is set
	table   Table
}

// NewStore creates a reference Store. Nothing is fetched until Load.
func NewStore(cfg StoreConfig, logger *slog.Logger) *Store {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Load returns the cached reference table, fetching it on first use.
// Fetch failures are not surfaced: the embedded fallback table is installed
// instead, and that result is cached like any other. The context only bounds
// how long this caller waits — a caller that gives up does not cancel the
// underlying load.
func (s *Store) Load(ctx context.Context) (Table, error) {
	s.mu.Lock()
	if s.loading == nil {
		s.loading = make(chan struct{})
		go s.loadOnce()
	}
	done := s.loading
	s.mu.Unlock()

	select {
	case <-done:
		return s.table, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) loadOnce() {
	table, err := s.fetch()
	if err != nil {
		s.logger.Warn("reference table unavailable, using fallback",
			"url", s.cfg.URL, "error", err, "fallback_foods", len(fallbackTable))
		table = fallbackTable
	} else {
		s.logger.Info("reference table loaded", "url", s.cfg.URL, "foods", len(table))
	}
	s.mu.Lock()
	s.table = table
	close(s.loading)
	s.mu.Unlock()
}

// fetch is deliberately detached from caller contexts: the load outcome is
// shared by every caller, so one impatient caller must not poison the cache.
func (s *Store) fetch() (Table, error) {
	if s.cfg.URL == "" {
		return nil, fmt.Errorf("no reference URL configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var raw map[string]Data
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty reference table")
	}

	// Keys are lower-cased on ingest so lookups stay case-insensitive even
	// if the source document slips in mixed-case names.
	table := make(Table, len(raw))
	for name, d := range raw {
		table[normalizeKey(name)] = d
	}
	return table, nil
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
