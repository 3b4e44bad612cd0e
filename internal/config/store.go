package config

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// Store holds the live configuration. Readers take an immutable resolved
// snapshot once per frame; writers replace the whole config atomically, so a
// change is visible on the very next tick without any reset step.
type Store struct {
	mu       sync.Mutex // serialises writers
	raw      *SmoothnessConfig
	resolved atomic.Pointer[Smoothness]
	version  atomic.Uint64
}

// NewStore creates a store seeded with cfg (nil means built-in defaults).
func NewStore(cfg *SmoothnessConfig) (*Store, error) {
	if cfg == nil {
		cfg = DefaultSmoothnessConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &Store{}
	s.install(cfg.Clone())
	return s, nil
}

func (s *Store) install(cfg *SmoothnessConfig) {
	r := cfg.Resolve()
	s.raw = cfg
	s.resolved.Store(&r)
	s.version.Add(1)
}

// Snapshot returns the current resolved configuration.
func (s *Store) Snapshot() Smoothness {
	return *s.resolved.Load()
}

// Version increments every time the configuration is replaced.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Config returns a deep copy of the current raw configuration.
func (s *Store) Config() *SmoothnessConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw.Clone()
}

// Replace validates and installs cfg.
func (s *Store) Replace(cfg *SmoothnessConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.install(cfg.Clone())
	return nil
}

// Apply merges a partial JSON document into the current configuration.
// On error the current configuration is left untouched.
func (s *Store) Apply(partial []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.raw.Merge(partial)
	if err != nil {
		return err
	}
	s.install(next)
	return nil
}

// Values returns the resolved configuration as a flat map keyed by the JSON
// field names, the shape the control panel edits.
func (s *Store) Values() (map[string]interface{}, error) {
	full := s.Config()
	resolved := DefaultSmoothnessConfig()
	// Overlay set fields on the defaults so every key is present.
	data, err := json.Marshal(full)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := json.Unmarshal(data, resolved); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	data, err = json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return out, nil
}
