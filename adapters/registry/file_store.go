// Package registry persists generation outcomes so interrupted runs resume
// where they stopped. Two implementations: a tab-separated append-only file
// for single-machine runs, and PostgreSQL for shared deployments.
package registry

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"takforge/domain/core"
	"takforge/ports"
)

// FileStore is the append-only file registry. Each line holds one outcome:
// tak_id, filename, status, run_id and timestamp, tab-separated.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[core.TakID]ports.RegistryEntry
	order   []core.TakID
}

// NewFileStore opens (or creates) a file registry at the given path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: make(map[core.TakID]ports.RegistryEntry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads every recorded line; a missing file is an empty registry.
func (s *FileStore) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open registry file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			return fmt.Errorf("corrupt registry line %q: %w", line, err)
		}
		if _, ok := s.entries[entry.TakID]; ok {
			continue
		}
		s.entries[entry.TakID] = entry
		s.order = append(s.order, entry.TakID)
	}
	return scanner.Err()
}

func parseLine(line string) (ports.RegistryEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		return ports.RegistryEntry{}, fmt.Errorf("want 5 fields, got %d", len(fields))
	}
	recorded, err := time.Parse(time.RFC3339, fields[4])
	if err != nil {
		return ports.RegistryEntry{}, fmt.Errorf("bad timestamp: %w", err)
	}
	return ports.RegistryEntry{
		TakID:      core.TakID(fields[0]),
		Filename:   fields[1],
		Status:     core.ArtifactStatus(fields[2]),
		RunID:      core.RunID(fields[3]),
		RecordedAt: core.Timestamp(recorded),
	}, nil
}

// Contains reports whether the row already has a recorded outcome.
func (s *FileStore) Contains(ctx context.Context, id core.TakID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok, nil
}

// Record appends one outcome. An already-present ID is left untouched so the
// registry stays append-only under re-runs.
func (s *FileStore) Record(ctx context.Context, entry ports.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.TakID]; ok {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open registry file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n",
		entry.TakID, entry.Filename, entry.Status, entry.RunID,
		entry.RecordedAt.Time().Format(time.RFC3339))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append registry line: %w", err)
	}

	s.entries[entry.TakID] = entry
	s.order = append(s.order, entry.TakID)
	return nil
}

// Get returns the recorded outcome, core.ErrNotFound when absent.
func (s *FileStore) Get(ctx context.Context, id core.TakID) (*ports.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: registry entry '%s'", core.ErrNotFound, id)
	}
	return &entry, nil
}

// All returns every recorded outcome in recording order.
func (s *FileStore) All(ctx context.Context) ([]ports.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.RegistryEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out, nil
}
