// Package manifest records what a build consumed and produced.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// BuildManifest represents a complete record of a build's inputs and outputs.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
	Error     string    `json:"error,omitempty"`
}

// Inputs captures the options the build ran with.
type Inputs struct {
	Source    string `json:"source"`
	Dest      string `json:"dest"`
	BaseURL   string `json:"base_url"`
	Split     int    `json:"split,omitempty"`
	Partition int    `json:"partition,omitempty"`
}

// Outputs captures every destination file of the build.
type Outputs struct {
	Files []FileEntry `json:"files"`
}

// FileEntry is one destination file with its content hash.
type FileEntry struct {
	Path     string `json:"path"`
	SHA256   string `json:"sha256"`
	Category string `json:"category"`
}

// NewFileEntry hashes the file at path. Path is stored relative to root when possible.
func NewFileEntry(root, path, category string) (FileEntry, error) {
	sum, err := HashFile(path)
	if err != nil {
		return FileEntry{}, err
	}
	rel := path
	if r, err := filepath.Rel(root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	return FileEntry{Path: rel, SHA256: sum, Category: category}, nil
}

// HashFile returns the hex SHA-256 of the file contents.
func HashFile(path string) (string, error) {
	// #nosec G304 -- path is a destination file written by this build
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ToJSON serializes the manifest to indented JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// WriteFile writes the manifest to path, creating parent directories.
func (m *BuildManifest) WriteFile(path string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Hash computes a deterministic hash over the inputs and the output file hashes.
// Two builds producing identical trees from identical inputs share a hash.
func (m *BuildManifest) Hash() (string, error) {
	files := make([]FileEntry, len(m.Outputs.Files))
	copy(files, m.Outputs.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	hashInput := struct {
		Inputs Inputs      `json:"inputs"`
		Files  []FileEntry `json:"files"`
	}{
		Inputs: m.Inputs,
		Files:  files,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
