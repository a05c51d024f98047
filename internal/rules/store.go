// Package rules persists the user-editable rule list for rules-augmented
// chats. Rules live in a flat text file, one rule per line, addressed by
// their 1-based position in the current list.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store reads and writes the rules file. All mutations hold one mutex so
// whole-file rewrites never interleave.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the rules file location.
func (s *Store) Path() string {
	return s.path
}

// Read returns the full rules content, trimmed. A missing file reads as
// empty.
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read rules file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// List returns the non-empty trimmed lines in file order. Blank lines are
// dropped and do not count toward positions.
func (s *Store) List() ([]string, error) {
	content, err := s.Read()
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

// Add appends a rule as the new final line. Empty text is a no-op.
func (s *Store) Add(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create rules dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text + "\n"); err != nil {
		return fmt.Errorf("append rule: %w", err)
	}
	return nil
}

// RemoveAt deletes the rule at 1-based position n, shifting later rules up.
// Returns false (and changes nothing) when n is out of range.
func (s *Store) RemoveAt(n int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.List()
	if err != nil {
		return false, err
	}
	if n < 1 || n > len(lines) {
		return false, nil
	}
	lines = append(lines[:n-1], lines[n:]...)
	if err := s.writeAll(lines); err != nil {
		return false, err
	}
	return true, nil
}

// EditAt replaces the rule text at 1-based position n in place. Returns
// false when n is out of range or the new text trims to empty.
func (s *Store) EditAt(n int, newText string) (bool, error) {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.List()
	if err != nil {
		return false, err
	}
	if n < 1 || n > len(lines) {
		return false, nil
	}
	lines[n-1] = newText
	if err := s.writeAll(lines); err != nil {
		return false, err
	}
	return true, nil
}

// writeAll rewrites the whole file through a temp file and rename, so an
// interrupted write never leaves a half-written rules file.
func (s *Store) writeAll(lines []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}

	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}

	tmp, err := os.CreateTemp(dir, ".rules-*")
	if err != nil {
		return fmt.Errorf("create temp rules file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write rules file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close rules file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace rules file: %w", err)
	}
	return nil
}
