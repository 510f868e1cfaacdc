package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"db_schema_syncer/internal/db"
	"db_schema_syncer/internal/emit"
	"db_schema_syncer/internal/migrate"
)

var ErrScriptExists = errors.New("script already exists")

// ScriptRecord describes a generated script stored on disk.
type ScriptRecord struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Target      string    `json:"target"`
	ScriptFile  string    `json:"script_file"`
	Statements  int       `json:"statements"`
	CreatedAt   time.Time `json:"created_at"`
	Checksum    string    `json:"checksum"`
}

// Store keeps scripts under <base>/scripts/<name>/.
type Store struct {
	fs   afero.Fs
	base string
	now  func() time.Time
}

func New(fs afero.Fs, base string) *Store {
	return &Store{fs: fs, base: base, now: time.Now}
}

// EnsureBase makes sure the storage root exists.
func (s *Store) EnsureBase() error {
	return s.fs.MkdirAll(filepath.Join(s.base, "scripts"), 0o755)
}

// Save writes statements and a manifest. Existing scripts are never
// overwritten.
func (s *Store) Save(name, description, source, target string, statements []string) (ScriptRecord, error) {
	if safeName(name) == "" {
		return ScriptRecord{}, fmt.Errorf("script name is required")
	}
	dir := s.dir(name)
	manifestPath := filepath.Join(dir, "manifest.json")
	if _, err := s.fs.Stat(manifestPath); err == nil {
		return ScriptRecord{}, fmt.Errorf("%w: %s", ErrScriptExists, name)
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return ScriptRecord{}, err
	}

	scriptPath := filepath.Join(dir, "script.sql")
	if err := afero.WriteFile(s.fs, scriptPath, []byte(emit.Script(statements)), 0o644); err != nil {
		return ScriptRecord{}, fmt.Errorf("write script: %w", err)
	}

	record := ScriptRecord{
		Name:        name,
		Description: description,
		Source:      source,
		Target:      target,
		ScriptFile:  scriptPath,
		Statements:  len(statements),
		CreatedAt:   s.now().UTC(),
		Checksum:    migrate.Checksum(statements...),
	}
	if err := s.writeJSON(manifestPath, record); err != nil {
		return ScriptRecord{}, err
	}
	return record, nil
}

// Load reads a stored script and splits it back into statements.
func (s *Store) Load(name string) (ScriptRecord, []string, error) {
	record, err := s.LoadManifest(name)
	if err != nil {
		return record, nil, err
	}
	body, err := afero.ReadFile(s.fs, record.ScriptFile)
	if err != nil {
		return record, nil, fmt.Errorf("read script: %w", err)
	}
	statements := db.SplitStatements(string(body))
	for i := range statements {
		statements[i] += ";"
	}
	if sum := migrate.Checksum(statements...); sum != record.Checksum {
		return record, nil, fmt.Errorf("script %s: checksum mismatch", name)
	}
	return record, statements, nil
}

// LoadManifest reads metadata without loading the script body.
func (s *Store) LoadManifest(name string) (ScriptRecord, error) {
	var record ScriptRecord
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir(name), "manifest.json"))
	if err != nil {
		return record, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("parse manifest: %w", err)
	}
	return record, nil
}

// List returns manifests for all stored scripts, newest first.
func (s *Store) List() ([]ScriptRecord, error) {
	entries, err := afero.ReadDir(s.fs, filepath.Join(s.base, "scripts"))
	if err != nil {
		if os.IsNotExist(err) {
			return []ScriptRecord{}, nil
		}
		return nil, err
	}
	records := make([]ScriptRecord, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rec, err := s.LoadManifest(e.Name())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *Store) dir(name string) string {
	return filepath.Join(s.base, "scripts", safeName(name))
}

func safeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	return name
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, path, data, 0o644)
}
