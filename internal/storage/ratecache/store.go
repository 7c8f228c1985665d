// Package ratecache implements file-based caching for historical
// exchange rates so reruns resolve offline and quota-free.
package ratecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

// entry is one cached lookup. Unavailable lookups are cached too, but
// only trusted within common.FreshnessRateMiss: a rate queried before
// the provider published that day can fill in on a later run. Confirmed
// rates are kept forever. Transport failures are never written.
type entry struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Date      string    `json:"date"`
	Rate      float64   `json:"rate"`
	Available bool      `json:"available"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store decorates a RateProvider with a two-level cache: a session map
// and JSON files under dir. A nil provider gives cache-only mode.
type Store struct {
	dir      string
	provider interfaces.RateProvider
	logger   *common.Logger

	mu  sync.RWMutex
	mem map[string]entry
}

// NewStore creates the cache directory and opens the store.
func NewStore(dir string, provider interfaces.RateProvider, logger *common.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rate cache path %s: %w", dir, err)
	}

	logger.Debug().Str("path", dir).Msg("Rate cache opened")
	return &Store{
		dir:      dir,
		provider: provider,
		logger:   logger,
		mem:      make(map[string]entry),
	}, nil
}

// GetRate implements interfaces.RateProvider.
func (s *Store) GetRate(ctx context.Context, from, to string, date time.Time) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return 1, nil
	}

	key := cacheKey(from, to, date)

	if e, ok := s.lookup(key); ok {
		if e.Available {
			return e.Rate, nil
		}
		// Stale misses are retried when a provider is attached.
		if s.provider == nil || common.IsFresh(e.FetchedAt, common.FreshnessRateMiss) {
			return 0, models.ErrRateUnavailable
		}
	}

	if s.provider == nil {
		return 0, models.ErrRateUnavailable
	}

	rate, err := s.provider.GetRate(ctx, from, to, date)
	if err != nil {
		if errors.Is(err, models.ErrRateUnavailable) {
			s.save(key, entry{
				From:      from,
				To:        to,
				Date:      date.Format("2006-01-02"),
				Available: false,
				FetchedAt: time.Now(),
			})
			return 0, models.ErrRateUnavailable
		}
		return 0, err
	}

	s.save(key, entry{
		From:      from,
		To:        to,
		Date:      date.Format("2006-01-02"),
		Rate:      rate,
		Available: true,
		FetchedAt: time.Now(),
	})
	return rate, nil
}

// Purge removes all cached rate files and returns the count.
func (s *Store) Purge() int {
	s.mu.Lock()
	s.mem = make(map[string]entry)
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if os.Remove(filepath.Join(s.dir, name)) == nil {
			count++
		}
	}
	return count
}

// lookup checks the session map, then disk. Disk hits are promoted
// into the session map.
func (s *Store) lookup(key string) (entry, bool) {
	s.mu.RLock()
	e, ok := s.mem[key]
	s.mu.RUnlock()
	if ok {
		return e, true
	}

	if err := s.readJSON(key, &e); err != nil {
		return entry{}, false
	}

	s.mu.Lock()
	s.mem[key] = e
	s.mu.Unlock()
	return e, true
}

// save writes to both cache levels. A failed disk write degrades the
// cache to session-only for that key.
func (s *Store) save(key string, e entry) {
	s.mu.Lock()
	s.mem[key] = e
	s.mu.Unlock()

	if err := s.writeJSON(key, e); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Rate cache write failed")
	}
}

// --- helpers ---

func cacheKey(from, to string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", from, to, date.Format("2006-01-02"))
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

func (s *Store) readJSON(key string, dest interface{}) error {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("'%s' is empty", key)
	}
	return json.Unmarshal(data, dest)
}

func (s *Store) writeJSON(key string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Ensure Store implements RateProvider
var _ interfaces.RateProvider = (*Store)(nil)
