package boundary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Index maps a normalized place name to the path of the boundary file that
// contains it, relative to the data root with forward slashes. Keys are the
// NormalizeName form (trimmed, diacritics folded, lowercased, whitespace
// collapsed), so "Peñablanca" is stored as "penablanca". The persisted form
// is a flat JSON object other tools consume, so the key normalization and
// path representation are a compatibility contract.
type Index map[string]string

// IndexOptions configures index construction.
type IndexOptions struct {
	Roots       []string // scanned in order, non-recursive; later files win collisions
	DataRoot    string   // stored paths are relative to this directory
	Path        string   // persisted index document
	Extensions  []string // recognized boundary file extensions
	LevelFields []string // admin-level name fields, checked independently
}

// BuildIndex scans the configured root folders and builds the name index.
// Files that fail to load are skipped; a corrupt source must not abort the
// batch. The index is persisted to opts.Path, but persistence failure only
// logs a warning — the in-memory index is returned regardless.
func BuildIndex(opts IndexOptions) (Index, error) {
	log := zap.L().With(zap.String("component", "boundary.index"))

	idx := make(Index)
	for _, root := range opts.Roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: read root %s", root)
		}

		for _, entry := range entries {
			if entry.IsDir() || !recognizedExt(entry.Name(), opts.Extensions) {
				continue
			}

			path := filepath.Join(root, entry.Name())
			names, err := SourceNames(path, opts.LevelFields)
			if err != nil {
				log.Debug("skipping unreadable boundary file",
					zap.String("path", path),
					zap.Error(err),
				)
				continue
			}

			rel, err := filepath.Rel(opts.DataRoot, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			for _, name := range names {
				key := NormalizeName(name)
				if key == "" {
					continue
				}
				idx[key] = rel
			}
		}
	}

	if err := persistIndex(idx, opts.Path); err != nil {
		log.Warn("boundary index not persisted", zap.String("path", opts.Path), zap.Error(err))
	} else {
		log.Info("boundary index built",
			zap.Int("entries", len(idx)),
			zap.String("path", opts.Path),
		)
	}

	return idx, nil
}

// LoadIndex returns the persisted index if one exists at opts.Path, otherwise
// builds a fresh one. A persisted index is trusted until the operator deletes
// it; checkFreshness additionally rebuilds when any root directory was
// modified after the index document.
func LoadIndex(opts IndexOptions, checkFreshness bool) (Index, error) {
	info, err := os.Stat(opts.Path)
	if err != nil {
		return BuildIndex(opts)
	}

	if checkFreshness && rootsModifiedSince(opts.Roots, info.ModTime()) {
		zap.L().Info("boundary index stale, rebuilding", zap.String("path", opts.Path))
		return BuildIndex(opts)
	}

	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: read index %s", opts.Path)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, eris.Wrapf(err, "boundary: parse index %s", opts.Path)
	}
	return idx, nil
}

// Keys returns the index keys in sorted order for deterministic iteration.
func (x Index) Keys() []string {
	keys := make([]string, 0, len(x))
	for k := range x {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func persistIndex(idx Index, path string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return eris.Wrap(err, "boundary: marshal index")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "boundary: write index")
	}
	return nil
}

func recognizedExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func rootsModifiedSince(roots []string, t time.Time) bool {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		if info.ModTime().After(t) {
			return true
		}
	}
	return false
}
