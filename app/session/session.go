// Package session ties the pipeline together. One upload creates one
// session owning one immutable table; filter submissions and exports run
// against that session until it is closed. Sessions live in memory only.
package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"

	"dataexplorer/app/cache"
	"dataexplorer/app/classify"
	"dataexplorer/app/dataset"
	"dataexplorer/app/export"
	"dataexplorer/app/fileloader"
	"dataexplorer/app/query"
	"dataexplorer/app/settings"
	"dataexplorer/app/timestamps"
)

// datasetHashKey keys the HighwayHash of upload content so equal uploads
// always hash equally across sessions.
var datasetHashKey = []byte("dataexplorer/session/datasethash")

// ErrNoFilterApplied reports an export attempt before any valid filter
// submission. Export always runs over a filtered table.
var ErrNoFilterApplied = errors.New("no filter applied yet, submit a valid filter before exporting")

// ErrSessionNotFound reports an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// Session is the state of one uploaded dataset.
type Session struct {
	ID       string
	Name     string
	Hash     string
	FileType fileloader.FileType
	Table    *dataset.Table
	Schema   classify.Schema

	mu       sync.Mutex
	spec     *query.Spec
	filtered *dataset.Table
}

// Filtered returns the result of the last valid filter application, or
// ok=false when no filter has been applied yet.
func (s *Session) Filtered() (*dataset.Table, *query.Spec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filtered == nil {
		return nil, nil, false
	}
	return s.filtered, s.spec, true
}

// Manager owns all live sessions and the shared result cache.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	settings settings.Settings
	cache    *cache.Cache
	loc      *time.Location
	logger   *slog.Logger
}

// NewManager creates a session manager from the effective settings.
func NewManager(cfg settings.Settings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	var c *cache.Cache
	if cfg.EnableResultCache {
		c = cache.New(int64(cfg.CacheSizeLimitMB)*1024*1024, slogCacheLogger{logger})
	}
	return &Manager{
		sessions: make(map[string]*Session),
		settings: cfg,
		cache:    c,
		loc:      timestamps.ResolveLocation(cfg.DefaultIngestTimezone),
		logger:   logger,
	}
}

// Open loads an upload, classifies its columns and registers a new
// session for it. The raw bytes are hashed for cache keying and then
// discarded; only the parsed table is retained.
func (m *Manager) Open(ctx context.Context, name string, data []byte) (*Session, error) {
	result, err := fileloader.Load(ctx, name, data)
	if err != nil {
		return nil, err
	}

	table, schema := classify.Classify(result.Table, classify.Options{
		CoercionThreshold: m.settings.CoercionThreshold,
		CategoricalLimit:  m.settings.CategoricalLimit,
		Location:          m.loc,
	})

	hash, err := hashDataset(data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash upload: %w", err)
	}

	s := &Session{
		ID:       uuid.NewString(),
		Name:     name,
		Hash:     hash,
		FileType: result.FileType,
		Table:    table,
		Schema:   schema,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session opened",
		"session_id", s.ID,
		"file", name,
		"type", result.FileType.String(),
		"rows", table.NumRows(),
		"columns", table.NumCols(),
	)
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close discards a session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// ApplyFilter validates the controls, applies the resulting specification
// and records the filtered table on the session. Validation failures leave
// the session's previous filter state untouched.
func (m *Manager) ApplyFilter(s *Session, controls query.Controls) (*dataset.Table, error) {
	spec, err := query.Build(s.Table, s.Schema, controls)
	if err != nil {
		return nil, err
	}

	cacheKey := s.Hash + "|" + spec.CacheKey()
	var filtered *dataset.Table
	if m.cache != nil {
		if hit, ok := m.cache.Get(cacheKey); ok {
			filtered = hit
		}
	}
	if filtered == nil {
		filtered, err = query.Apply(s.Table, spec)
		if err != nil {
			return nil, err
		}
		if m.cache != nil {
			m.cache.Store(cacheKey, filtered)
		}
	}

	s.mu.Lock()
	s.spec = spec
	s.filtered = filtered
	s.mu.Unlock()

	m.logger.Info("filter applied",
		"session_id", s.ID,
		"spec", spec.Describe(),
		"rows", filtered.NumRows(),
		"columns", filtered.NumCols(),
	)
	return filtered, nil
}

// Export serializes the session's current filtered table. It fails with
// ErrNoFilterApplied when no valid filter has run yet; a backend failure
// surfaces as export.ErrCapabilityUnavailable without touching the
// session state.
func (m *Manager) Export(s *Session, format export.Format) (*export.Artifact, error) {
	filtered, _, ok := s.Filtered()
	if !ok {
		return nil, ErrNoFilterApplied
	}
	artifact, err := export.Export(filtered, format, m.settings.ChunkRowLimit)
	if err != nil {
		return nil, err
	}
	m.logger.Info("export produced",
		"session_id", s.ID,
		"format", format.String(),
		"artifact", artifact.Name,
		"bytes", len(artifact.Data),
	)
	return artifact, nil
}

func hashDataset(data []byte) (string, error) {
	h, err := highwayhash.New(datasetHashKey)
	if err != nil {
		return "", err
	}
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// slogCacheLogger adapts slog to the cache's Logger interface.
type slogCacheLogger struct {
	logger *slog.Logger
}

func (l slogCacheLogger) Log(level, message string) {
	switch level {
	case "debug":
		l.logger.Debug(message)
	case "warn":
		l.logger.Warn(message)
	case "error":
		l.logger.Error(message)
	default:
		l.logger.Info(message)
	}
}
