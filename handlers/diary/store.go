package diary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Entry names are the date prefix followed by at most titleRunes of the title.
const (
	titleRunes = 10
	dateLayout = "(2006-01-02)"
)

var (
	ErrNotFound    = errors.New("diary not found")
	ErrInvalidName = errors.New("invalid diary name")
)

// Entry is one stored diary.
type Entry struct {
	Name    string
	Title   string
	Content string
	ModTime time.Time
}

// Store keeps one file per diary in a directory. The first line of a file is
// the title and the rest is the content.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore opens dir, creating it when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create diary directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// List returns the stored diaries sorted by name, without their content.
func (s *Store) List() ([]Entry, error) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if !de.Type().IsRegular() {
			continue
		}
		e := Entry{Name: de.Name()}
		if fi, err := de.Info(); err == nil {
			e.ModTime = fi.ModTime()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Create stores a diary and returns its name. A diary created on the same day
// under the same truncated title replaces the earlier one.
func (s *Store) Create(title, content string) (string, error) {
	name := FileName(s.now(), title)
	var b strings.Builder
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(content)
	b.WriteByte('\n')
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// Read loads the diary called name.
func (s *Store) Read(name string) (*Entry, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	title, content, _ := strings.Cut(string(data), "\n")
	return &Entry{
		Name:    name,
		Title:   strings.TrimSuffix(title, "\r"),
		Content: strings.TrimSuffix(content, "\n"),
		ModTime: fi.ModTime(),
	}, nil
}

// Delete removes the diary called name. Deleting a missing diary is not an error.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// FileName builds the storage name of a diary written at t.
func FileName(t time.Time, title string) string {
	short := truncate(title, titleRunes)
	if len(short) < len(title) {
		short += "..."
	}
	short = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, short)
	return t.Format(dateLayout) + short
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	i := 0
	for c := 0; i < len(s) && c < n; c++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
