package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyBM25Weight     = "search.bm25_weight"
	keyCosineWeight   = "search.cosine_weight"
	keyDefaultLimit   = "search.default_limit"
	keyBuildOnStart   = "search.build_on_start"
	keyChunkSize      = "chunking.chunk_size"
	keyChunkOverlap   = "chunking.overlap"
	keyBoundaryWindow = "chunking.boundary_window"
	keyEmbedModel     = "embedding.model"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedBatchSize = "embedding.batch_size"
	keyEmbedRPS       = "embedding.requests_per_second"
	keyEmbedTimeout   = "embedding.timeout_seconds"
	keyServerAddress  = "server.address"
	keyStorageDataDir = "storage.data_dir"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKinds maps every supported key to the type SetValue parses into.
var settingKinds = map[string]valueKind{
	keyBM25Weight:     kindFloat,
	keyCosineWeight:   kindFloat,
	keyDefaultLimit:   kindInt,
	keyBuildOnStart:   kindBool,
	keyChunkSize:      kindInt,
	keyChunkOverlap:   kindInt,
	keyBoundaryWindow: kindInt,
	keyEmbedModel:     kindString,
	keyEmbedDims:      kindInt,
	keyEmbedBaseURL:   kindString,
	keyEmbedAPIKey:    kindString,
	keyEmbedBatchSize: kindInt,
	keyEmbedRPS:       kindFloat,
	keyEmbedTimeout:   kindInt,
	keyServerAddress:  kindString,
	keyStorageDataDir: kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, filling unset keys with defaults.
// When the model changes and no dimension is stored, the known size of the
// model is used.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	model := s.getString(keyEmbedModel, defaults.Embedding.Model)
	dims := defaults.Embedding.Dimensions
	if known, ok := domain.EmbeddingDimensions()[model]; ok {
		dims = known
	}

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			Weights: domain.Weights{
				BM25:   s.getFloat(keyBM25Weight, defaults.Search.Weights.BM25),
				Cosine: s.getFloat(keyCosineWeight, defaults.Search.Weights.Cosine),
			},
			DefaultLimit: s.getInt(keyDefaultLimit, defaults.Search.DefaultLimit),
			BuildOnStart: s.getBool(keyBuildOnStart, defaults.Search.BuildOnStart),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize:      s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:        s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
			BoundaryWindow: s.getInt(keyBoundaryWindow, defaults.Chunking.BoundaryWindow),
		},
		Embedding: domain.EmbeddingSettings{
			Model:             model,
			Dimensions:        s.getInt(keyEmbedDims, dims),
			BaseURL:           s.getString(keyEmbedBaseURL, defaults.Embedding.BaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:         s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
			Timeout: time.Duration(s.getInt(keyEmbedTimeout,
				int(defaults.Embedding.Timeout/time.Second))) * time.Second,
		},
		Server: domain.ServerSettings{
			Address: s.getString(keyServerAddress, defaults.Server.Address),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyStorageDataDir),
		},
	}

	// Overlap 0 is legitimate but indistinguishable from unset through GetInt.
	if _, ok := s.configStore.Get(keyChunkOverlap); ok {
		settings.Chunking.Overlap = s.configStore.GetInt(keyChunkOverlap)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are required", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if !finite(settings.Search.Weights.BM25) || !finite(settings.Search.Weights.Cosine) {
		return fmt.Errorf("%w: weights must be finite", domain.ErrInvalidInput)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyBM25Weight, settings.Search.Weights.BM25},
		{keyCosineWeight, settings.Search.Weights.Cosine},
		{keyDefaultLimit, settings.Search.DefaultLimit},
		{keyBuildOnStart, settings.Search.BuildOnStart},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyBoundaryWindow, settings.Chunking.BoundaryWindow},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedTimeout, int(settings.Embedding.Timeout / time.Second)},
		{keyServerAddress, settings.Server.Address},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets and paths are only written when set.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.Storage.DataDir != "" {
		if err := s.configStore.Set(keyStorageDataDir, settings.Storage.DataDir); err != nil {
			return fmt.Errorf("save %s: %w", keyStorageDataDir, err)
		}
	}
	return nil
}

// SetValue parses a raw string for a known key and stores it.
// The resulting settings must still validate; otherwise nothing is written.
func (s *SettingsService) SetValue(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseValue(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if _, err := s.Get(); err != nil {
		if existed {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Set(key, defaultValue(key))
		}
		return err
	}
	return nil
}

// Keys lists every supported settings key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func parseValue(kind valueKind, raw string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		if !finite(f) {
			return nil, fmt.Errorf("value must be finite")
		}
		return f, nil
	case kindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// defaultValue returns the stored form of a key's default, used to undo a
// rejected SetValue on a key that had no previous value.
func defaultValue(key string) any {
	d := domain.DefaultAppSettings()
	switch key {
	case keyBM25Weight:
		return d.Search.Weights.BM25
	case keyCosineWeight:
		return d.Search.Weights.Cosine
	case keyDefaultLimit:
		return d.Search.DefaultLimit
	case keyBuildOnStart:
		return d.Search.BuildOnStart
	case keyChunkSize:
		return d.Chunking.ChunkSize
	case keyChunkOverlap:
		return d.Chunking.Overlap
	case keyBoundaryWindow:
		return d.Chunking.BoundaryWindow
	case keyEmbedDims:
		return d.Embedding.Dimensions
	case keyEmbedBatchSize:
		return d.Embedding.BatchSize
	case keyEmbedRPS:
		return d.Embedding.RequestsPerSecond
	case keyEmbedTimeout:
		return int(d.Embedding.Timeout / time.Second)
	default:
		return ""
	}
}
