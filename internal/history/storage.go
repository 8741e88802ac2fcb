package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// AmbiguousIDError is returned when multiple records match a prefix
type AmbiguousIDError struct {
	Prefix  string
	Matches []Record
}

func (e *AmbiguousIDError) Error() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Ambiguous record ID %q. Multiple matches found:", e.Prefix))
	for _, match := range e.Matches {
		lines = append(lines, fmt.Sprintf("- %s (%s, %s, %s)",
			match.GetShortID(),
			match.Report.Outcome,
			match.ChatflowID,
			match.CreatedAt.Format("2006-01-02 15:04:05")))
	}
	lines = append(lines, "")
	lines = append(lines, "Please use a longer prefix or run 'flowprobe history list'.")
	return strings.Join(lines, "\n")
}

// Store keeps records as <dir>/<id>.json
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory where records are stored
func (s *Store) Dir() string {
	return s.dir
}

// Save writes a record to disk
func (s *Store) Save(record *Record) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	recordFile := filepath.Join(s.dir, record.ID+".json")
	if err := os.WriteFile(recordFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	return nil
}

// Load reads a record from disk by full ID
func (s *Store) Load(id string) (*Record, error) {
	recordFile := filepath.Join(s.dir, id+".json")
	data, err := os.ReadFile(recordFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("record not found: %s\n\nRun 'flowprobe history list' to see saved probes.", id)
		}
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record file: %w\n\nThe record file may be corrupted.", err)
	}

	return &record, nil
}

// Delete removes a record from disk by full ID
func (s *Store) Delete(id string) error {
	recordFile := filepath.Join(s.dir, id+".json")
	if err := os.Remove(recordFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("record not found: %s", id)
		}
		return fmt.Errorf("failed to delete record file: %w", err)
	}

	return nil
}

// List returns all records sorted by CreatedAt (newest first)
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		record, err := s.Load(id)
		if err != nil {
			// Skip corrupted record files
			continue
		}
		records = append(records, *record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

// FindByPrefix finds a record by short ID prefix (minimum 4 characters)
// Returns AmbiguousIDError if multiple records match.
// Special case: "latest" returns the most recent record
func (s *Store) FindByPrefix(prefix string) (*Record, error) {
	if prefix == "latest" {
		return s.Latest()
	}

	if len(prefix) < 4 {
		return nil, fmt.Errorf("record ID prefix must be at least 4 characters (got %d)", len(prefix))
	}

	// Full UUID (36 characters with 4 dashes)
	if len(prefix) == 36 && strings.Count(prefix, "-") == 4 {
		return s.Load(prefix)
	}

	records, err := s.List()
	if err != nil {
		return nil, err
	}

	var matches []Record
	for _, record := range records {
		if strings.HasPrefix(record.ID, prefix) {
			matches = append(matches, record)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("record not found: %s\n\nRun 'flowprobe history list' to see saved probes.", prefix)
	}

	if len(matches) > 1 {
		return nil, &AmbiguousIDError{
			Prefix:  prefix,
			Matches: matches,
		}
	}

	return &matches[0], nil
}

// Latest returns the most recently created record
func (s *Store) Latest() (*Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no saved probes found\n\nSave one with: flowprobe probe --save")
	}

	return &records[0], nil
}

// CreatedBefore returns the records created before t
func CreatedBefore(records []Record, t time.Time) []Record {
	var out []Record
	for _, record := range records {
		if record.CreatedAt.Before(t) {
			out = append(out, record)
		}
	}
	return out
}
