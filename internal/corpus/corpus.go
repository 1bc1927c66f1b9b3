// Package corpus discovers the documents of a categorised dataset and opens
// them for tokenisation. A dataset root holds one subdirectory per category;
// every regular file below a category directory is a document.
package corpus

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

// Document is one discovered text source.
type Document struct {
	Category     int
	CategoryName string
	Name         string
	Path         string
}

// Source enumerates documents in discovery order, with each category's
// documents contiguous, and opens them.
type Source interface {
	Documents(ctx context.Context) ([]Document, error)
	Open(doc Document) (io.ReadCloser, error)
}

// DirSource reads a dataset laid out as root/<category>/<document>.
type DirSource struct {
	root       string
	categories int
	extensions map[string]struct{}
	logger     *slog.Logger
}

// NewDirSource creates a DirSource expecting exactly categories category
// directories. An empty extensions list accepts every file.
func NewDirSource(root string, categories int, extensions []string) *DirSource {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &DirSource{
		root:       root,
		categories: categories,
		extensions: exts,
		logger:     slog.Default().With("component", "corpus", "root", root),
	}
}

// Documents lists category directories and their files, both sorted by name.
func (s *DirSource) Documents(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"reading dataset root %s: %v", s.root, err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	if len(dirs) != s.categories {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"dataset root %s has %d category directories, want %d", s.root, len(dirs), s.categories)
	}

	var docs []Document
	for category, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		catPath := filepath.Join(s.root, dir)
		var found []Document
		err := filepath.WalkDir(catPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != catPath && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() || !s.accepts(d.Name()) {
				return nil
			}
			rel, err := filepath.Rel(catPath, path)
			if err != nil {
				rel = d.Name()
			}
			found = append(found, Document{
				Category:     category,
				CategoryName: dir,
				Name:         filepath.ToSlash(rel),
				Path:         path,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking category %s: %w", dir, err)
		}
		sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
		s.logger.Debug("category discovered", "category", dir, "index", category, "documents", len(found))
		docs = append(docs, found...)
	}
	return docs, nil
}

func (s *DirSource) accepts(name string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (s *DirSource) Open(doc Document) (io.ReadCloser, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("opening document %s: %w", doc.Path, err)
	}
	return f, nil
}

// Memory is an in-process Source, handy for tests and embedding callers.
type Memory struct {
	docs  []Document
	texts map[string]string
}

func NewMemory() *Memory {
	return &Memory{texts: make(map[string]string)}
}

// Add appends a document. Documents of one category must be added together.
func (m *Memory) Add(category int, name, text string) *Memory {
	path := fmt.Sprintf("mem://%d/%s", category, name)
	m.docs = append(m.docs, Document{
		Category:     category,
		CategoryName: fmt.Sprintf("category-%d", category),
		Name:         name,
		Path:         path,
	})
	m.texts[path] = text
	return m
}

func (m *Memory) Documents(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Document, len(m.docs))
	copy(out, m.docs)
	return out, nil
}

func (m *Memory) Open(doc Document) (io.ReadCloser, error) {
	text, ok := m.texts[doc.Path]
	if !ok {
		return nil, fmt.Errorf("opening document %s: %w", doc.Path, fs.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(text)), nil
}
