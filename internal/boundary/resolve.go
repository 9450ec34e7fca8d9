package boundary

import (
	"github.com/agext/levenshtein"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a query has no acceptable index match.
var ErrNotFound = eris.New("boundary: place not found")

// Match is a resolved lookup. Key differs from the normalized query when the
// match was fuzzy.
type Match struct {
	Query string
	Key   string
	Path  string
	Score float64
}

// Resolver answers place-name lookups against an immutable index.
type Resolver struct {
	index     Index
	threshold float64
}

// NewResolver wraps an index with a similarity acceptance threshold.
// The threshold is the single policy knob separating tolerated misspellings
// from unrelated names.
func NewResolver(index Index, threshold float64) *Resolver {
	return &Resolver{index: index, threshold: threshold}
}

// Resolve normalizes the query, tries an exact key lookup, and falls back to
// the best approximate match at or above the threshold. Keys are scanned in
// sorted order and only a strictly greater score displaces the current best,
// so equal top scores resolve to the lexicographically smallest key.
func (r *Resolver) Resolve(query string) (*Match, error) {
	key := NormalizeName(query)
	if key == "" {
		return nil, ErrNotFound
	}

	if path, ok := r.index[key]; ok {
		return &Match{Query: query, Key: key, Path: path, Score: 1}, nil
	}

	var (
		bestKey   string
		bestScore float64
	)
	for _, candidate := range r.index.Keys() {
		score := levenshtein.Similarity(key, candidate, levenshtein.NewParams())
		if score > bestScore {
			bestKey, bestScore = candidate, score
		}
	}

	if bestScore < r.threshold {
		return nil, ErrNotFound
	}

	zap.L().Debug("fuzzy boundary match",
		zap.String("query", query),
		zap.String("matched", bestKey),
		zap.Float64("score", bestScore),
	)

	return &Match{Query: query, Key: bestKey, Path: r.index[bestKey], Score: bestScore}, nil
}
