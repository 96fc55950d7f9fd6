// Package assets stores downloaded model payloads on local disk.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
)

// ModelSuffix is appended to every stored model name.
const ModelSuffix = "_model.glb"

// maxNameRunes keeps file names well under common filesystem limits.
const maxNameRunes = 120

// ErrEmptyPayload is returned when Write is given no data.
var ErrEmptyPayload = errors.New("assets: empty payload")

// Store writes model files into one directory.
// Writes are serialized; a later write to the same name replaces the file.
type Store struct {
	dir string
	mu  sync.Mutex
	log *zap.Logger
}

// NewStore creates a store rooted at dir. A leading "~" is expanded.
// The directory is created on first write.
func NewStore(dir string) (*Store, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", dir, err)
	}
	return &Store{dir: expanded, log: logger.Named("assets")}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the stored file name for a prompt: spaces become
// underscores, other unsafe characters are replaced, and ModelSuffix is
// appended.
func FileName(prompt string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(prompt) {
		if n == maxNameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		n++
	}
	if b.Len() == 0 {
		b.WriteString("unnamed")
	}
	return b.String() + ModelSuffix
}

// Path returns where the model for prompt is stored.
func (s *Store) Path(prompt string) string {
	return filepath.Join(s.dir, FileName(prompt))
}

// Write stores data under the name derived from prompt and returns the
// full path. The file is written to a temporary name and renamed into
// place so readers never see a partial model.
func (s *Store) Write(data []byte, prompt string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", s.dir, err)
	}
	path := s.Path(prompt)
	tmp, err := os.CreateTemp(s.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("renaming into %s: %w", path, err)
	}

	s.log.Info("stored model", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// Exists reports whether a model for prompt is stored.
func (s *Store) Exists(prompt string) bool {
	info, err := os.Stat(s.Path(prompt))
	return err == nil && info.Mode().IsRegular()
}

// List returns the stored model file names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ModelSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
