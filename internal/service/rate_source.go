package service

import (
	"os"
	"sync"
	"time"

	"maliyet-backend/internal/storage"
	"maliyet-backend/pkg/cargo"
)

// RateSource supplies the current cargo rate table.
type RateSource interface {
	Load() (*cargo.RateTable, error)
}

// fileRateSource reads the rate CSV from KARGO_RATES_PATH, which may be a
// local path or an http(s) URL. Remote files go through the on-disk cache.
// Parsed tables are reused for the refresh interval to keep the executor off
// the filesystem on every run.
type fileRateSource struct {
	mu       sync.Mutex
	path     string
	refresh  time.Duration
	table    *cargo.RateTable
	loadedAt time.Time
}

func NewFileRateSource() RateSource {
	return &fileRateSource{
		path:    os.Getenv("KARGO_RATES_PATH"),
		refresh: 5 * time.Minute,
	}
}

func (s *fileRateSource) Load() (*cargo.RateTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil && time.Since(s.loadedAt) < s.refresh {
		return s.table, nil
	}

	if s.path == "" {
		// No rate file configured: resolution still runs, dimensions stay
		// unset and desi falls back to the weight alone.
		s.table = cargo.NewRateTable(nil)
		s.loadedAt = time.Now()
		return s.table, nil
	}

	localPath := s.path
	if storage.IsHTTPURL(s.path) {
		cached, err := storage.CacheRemoteFile(s.path, "kargo_rates.csv", s.refresh)
		if err != nil {
			if s.table != nil {
				return s.table, nil
			}
			return nil, err
		}
		localPath = cached
	}

	table, err := cargo.LoadRates(localPath)
	if err != nil {
		if s.table != nil {
			return s.table, nil
		}
		return nil, err
	}
	s.table = table
	s.loadedAt = time.Now()
	return table, nil
}

// StaticRateSource wraps a fixed table, used by tests and offline tooling.
type StaticRateSource struct {
	Table *cargo.RateTable
}

func (s StaticRateSource) Load() (*cargo.RateTable, error) {
	return s.Table, nil
}
