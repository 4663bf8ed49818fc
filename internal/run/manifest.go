// Package run records what one vidstats invocation read and wrote.
package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/vidstats-cli/internal/utils"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

// FileName is the manifest written next to the artifacts.
const FileName = "manifest.json"

// Manifest describes one run persisted on disk.
type Manifest struct {
	ID        string     `json:"id"`
	Command   string     `json:"command"`
	Input     string     `json:"input"`
	CreatedAt time.Time  `json:"created_at"`
	Rows      Rows       `json:"rows"`
	ZeroViews string     `json:"zero_views"`
	Artifacts []Artifact `json:"artifacts"`

	// Not serialized: directory the manifest lives in
	dir string
}

// Rows counts records through the stages.
type Rows struct {
	Loaded   int `json:"loaded"`
	Kept     int `json:"kept"`
	Dropped  int `json:"dropped"`
	Excluded int `json:"excluded"`
	// ZeroViews is the number of derived rows with undefined ratios.
	ZeroViews int `json:"zero_views"`
}

// Artifact is one file the run produced.
type Artifact struct {
	Path  string    `json:"path"`
	Kind  string    `json:"kind"`
	Bytes int64     `json:"bytes"`
	At    time.Time `json:"written_at"`
}

// New constructs an in-memory manifest for dir. Call Save to persist.
func New(command, input, dir string) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Command:   command,
		Input:     input,
		CreatedAt: time.Now().UTC(),
		dir:       dir,
	}
}

// Load reads manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = dir
	return &m, nil
}

// Dir returns the on-disk manifest directory.
func (m *Manifest) Dir() string { return m.dir }

// Record copies stage counts from a cleaned and a derived table.
func (m *Manifest) Record(cs videos.CleanStats, derived *videos.Table, policy videos.ZeroViewsPolicy) {
	m.Rows = Rows{
		Loaded:   cs.Input,
		Kept:     cs.Kept,
		Dropped:  cs.Dropped,
		Excluded: cs.Kept - derived.Len(),
	}
	if derived != nil {
		for _, r := range derived.Records {
			if r.Views.N == 0 {
				m.Rows.ZeroViews++
			}
		}
	}
	m.ZeroViews = string(policy)
}

// AddArtifact stats path and records it relative to the manifest directory.
func (m *Manifest) AddArtifact(path, kind string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	rel := path
	if m.dir != "" {
		if r, err := filepath.Rel(m.dir, path); err == nil {
			rel = r
		}
	}
	m.Artifacts = append(m.Artifacts, Artifact{Path: filepath.ToSlash(rel), Kind: kind, Bytes: info.Size(), At: info.ModTime().UTC()})
	sort.SliceStable(m.Artifacts, func(i, j int) bool { return m.Artifacts[i].Path < m.Artifacts[j].Path })
	return nil
}

// Save writes manifest.json using atomic write.
func (m *Manifest) Save() error {
	if m.dir == "" {
		return errors.New("manifest directory not set")
	}
	if err := utils.EnsureDir(m.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.dir, FileName), data)
}
