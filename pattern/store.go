package pattern

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store persists pattern banks as timestamped JSON files in a directory
type Store struct {
	Dir string
}

// SaveInfo describes one saved bank file, for listing
type SaveInfo struct {
	Filename  string
	Timestamp time.Time
}

type bankFile struct {
	Patterns [NumPatterns]Pattern `json:"patterns"`
	Current  int                  `json:"current"`
}

// DefaultDir returns ~/.config/go-beatclock/patterns
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-beatclock", "patterns"), nil
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes the bank to a new timestamped file and returns its name
func (s *Store) Save(b *Bank) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}

	b.mu.RLock()
	bf := bankFile{Patterns: b.patterns, Current: b.current}
	b.mu.RUnlock()

	data, err := json.MarshalIndent(&bf, "", "  ")
	if err != nil {
		return "", err
	}

	name := time.Now().Format("2006-01-02_15-04-05") + ".json"
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0644); err != nil {
		return "", err
	}
	return name, nil
}

// List returns saved banks, newest first
func (s *Store) List() ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".json")
		ts, err := time.Parse("2006-01-02_15-04-05", base)
		if err != nil {
			continue // not a timestamped file
		}
		saves = append(saves, SaveInfo{Filename: entry.Name(), Timestamp: ts})
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// Load reads a saved bank into b. An empty filename loads the newest save.
func (s *Store) Load(b *Bank, filename string) error {
	if filename == "" {
		saves, err := s.List()
		if err != nil {
			return err
		}
		if len(saves) == 0 {
			return fmt.Errorf("no saved banks in %s", s.Dir)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(s.Dir, filename))
	if err != nil {
		return err
	}

	var bf bankFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return err
	}
	if bf.Current < 0 || bf.Current >= NumPatterns {
		bf.Current = 0
	}

	b.mu.Lock()
	b.patterns = bf.Patterns
	b.current = bf.Current
	b.next = -1
	b.mu.Unlock()
	return nil
}

// Delete removes a saved bank file
func (s *Store) Delete(filename string) error {
	return os.Remove(filepath.Join(s.Dir, filename))
}
