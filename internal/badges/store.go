// Package badges persists the set of achievement badges the user has earned.
package badges

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/model"
)

// FileName is the durable record holding the badge set.
const FileName = "badges"

// Store is the persisted badge set. Insertion is idempotent and there is no
// removal. Writes rewrite the backing file synchronously under a mutex.
type Store struct {
	mu     sync.Mutex
	path   string
	badges []string
}

// Open loads the badge set from dir, starting empty when the file does not
// exist yet.
func Open(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, FileName)}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badges: read store: %w", err)
	}
	var set model.BadgeSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("badges: decode store: %w", err)
	}
	s.badges = set.Badges
	return s, nil
}

// Add inserts id into the set and persists it. Adding a badge that is already
// present is a no-op and touches nothing on disk.
func (s *Store) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.badges, id) {
		return nil
	}
	s.badges = append(s.badges, id)
	return s.flush()
}

// Has reports whether id has been earned.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.badges, id)
}

// List returns the earned badges in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.badges)
}

func (s *Store) flush() error {
	raw, err := json.Marshal(model.BadgeSet{Badges: s.badges})
	if err != nil {
		return fmt.Errorf("badges: encode store: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("badges: write store: %w", err)
	}
	return nil
}
