package vocab

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smith3v/ancestral-lingo/pkg/logger"
)

//go:embed data/*.csv
var tableFiles embed.FS

// Store is an immutable language → category → items table.
type Store struct {
	tables map[Language]map[CategoryID][]Item
}

var ErrUnknownLanguage = errors.New("unknown language")

// Default returns the built-in Kichwa and Shuar tables.
func Default() *Store {
	store, err := Load(tableFiles, "data")
	if err != nil {
		// The embedded tables are part of the binary; failing here is a build defect.
		panic(fmt.Sprintf("vocab: embedded tables are invalid: %v", err))
	}
	return store
}

// LoadDir reads <language>.csv files from dir on top of the built-in tables.
// A language file present in dir replaces that language's tables entirely.
func LoadDir(dir string) (*Store, error) {
	base := Default()
	if dir == "" {
		return base, nil
	}
	override, err := Load(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	for lang, categories := range override.tables {
		base.tables[lang] = categories
	}
	return base, nil
}

// Load reads one <language>.csv per supported language found under root.
func Load(fsys fs.FS, root string) (*Store, error) {
	store := &Store{tables: make(map[Language]map[CategoryID][]Item)}
	for _, lang := range Languages {
		path := filepath.ToSlash(filepath.Join(root, string(lang)+".csv"))
		data, err := fs.ReadFile(fsys, path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows, skipped, err := ParseTableCSV(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if skipped > 0 {
			logger.Info("skipped vocabulary rows", "language", lang, "skipped", skipped)
		}
		categories := make(map[CategoryID][]Item)
		for _, row := range rows {
			categories[row.Category] = append(categories[row.Category], row.Item)
		}
		store.tables[lang] = categories
	}
	return store, nil
}

// Items returns a copy of the category's items; unknown pairs yield nil.
func (s *Store) Items(lang Language, category CategoryID) []Item {
	if s == nil {
		return nil
	}
	items := s.tables[lang][category]
	if len(items) == 0 {
		return nil
	}
	return append([]Item(nil), items...)
}

func (s *Store) Count(lang Language, category CategoryID) int {
	if s == nil {
		return 0
	}
	return len(s.tables[lang][category])
}

func (s *Store) HasLanguage(lang Language) bool {
	if s == nil {
		return false
	}
	_, ok := s.tables[lang]
	return ok
}
