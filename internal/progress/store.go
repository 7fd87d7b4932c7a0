// Package progress persists the resume cursor of a translation run next to
// its input file.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

// State is the persisted resume cursor. Line is the 1-based line of the
// first entry not yet translated.
type State struct {
	Line      int    `json:"line"`
	InputFile string `json:"inputFile"`
}

// Store reads and writes the progress file of one input.
type Store struct {
	path string

	mu sync.Mutex
}

// PathFor returns the progress file used for inputFile:
// ".<basename>.progress" in the same directory.
func PathFor(inputFile string) string {
	return filepath.Join(filepath.Dir(inputFile), "."+filepath.Base(inputFile)+".progress")
}

// NewStore creates the store for inputFile.
func NewStore(inputFile string) *Store {
	return &Store{path: PathFor(inputFile)}
}

// Path returns the progress file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved state, or nil when there is none. A corrupt file
// is treated as absent.
func (s *Store) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Warn("ignoring corrupt progress file %s: %v", s.path, err)
		return nil, nil
	}
	if state.Line < 1 {
		return nil, nil
	}
	return &state, nil
}

// Save replaces the progress file atomically. InputFile is stored as an
// absolute path so the record matches from any working directory.
func (s *Store) Save(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state.InputFile != "" {
		if abs, err := filepath.Abs(state.InputFile); err == nil {
			state.InputFile = abs
		}
	}

	content, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}

// Clear removes the progress file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove progress file: %w", err)
	}
	return nil
}

// ResumeLine returns the line a run should start from. Saved state applies
// only when it belongs to inputFile and no explicit start line (> 1) was
// requested.
func ResumeLine(state *State, inputFile string, explicitStart int) int {
	if explicitStart > 1 {
		return explicitStart
	}
	if state == nil || !SameFile(state.InputFile, inputFile) {
		return 1
	}
	return state.Line
}

// SameFile compares two paths after making them absolute.
func SameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
