// Package batch runs the place-name pipeline: resolve or fetch a boundary,
// clean its geometry, emit GeoJSON features, write one file per place. Items
// are independent; any failure is logged and the batch continues.
package batch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/verdevoid/geo-boundary-automation/internal/feature"
	"github.com/verdevoid/geo-boundary-automation/internal/geometry"
	"github.com/verdevoid/geo-boundary-automation/internal/store"
)

// Outcome classifies one place's result.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeLoadFailed     Outcome = "load_failed"
	OutcomeGeometryFailed Outcome = "geometry_failed"
	OutcomeWriteFailed    Outcome = "write_failed"
)

// ItemResult is the typed per-place outcome, replacing silent exception
// suppression with a result the caller logs and records.
type ItemResult struct {
	Place   string
	Outcome Outcome
	Output  string
	Err     error
}

// Failed reports whether the item did not produce an output file.
func (r ItemResult) Failed() bool { return r.Outcome != OutcomeOK }

// Summary aggregates a completed run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Items     []ItemResult
}

// NotFoundError marks a place with no acceptable boundary. Sources wrap
// their miss conditions in it so the driver can classify without knowing the
// source kind.
type NotFoundError struct {
	Place string
	Err   error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "boundary not found: " + e.Place
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Source produces a boundary geometry for a place name.
type Source interface {
	Fetch(ctx context.Context, place string) (geom.T, error)
}

// Driver runs the full pipeline over a configured place list, strictly
// sequentially.
type Driver struct {
	Source   Source
	Geometry geometry.Options
	Variant  string // recorded in the run log: "convert" or "fetch"
	OutDir   string
	Pretty   bool
	Store    *store.Store // nil disables run logging
	Now      func() time.Time
}

// Run processes every place and always runs to completion; neither per-item
// failures nor run-log bookkeeping abort the batch.
func (d *Driver) Run(ctx context.Context, places []string) (*Summary, error) {
	log := zap.L().With(zap.String("component", "batch"))
	now := d.Now
	if now == nil {
		now = time.Now
	}

	summary := &Summary{
		RunID: uuid.NewString(),
		Total: len(places),
	}

	// The run log is best-effort; a store failure must not block the batch.
	st := d.Store
	if st != nil {
		if err := st.CreateRun(ctx, summary.RunID, d.Variant, len(places)); err != nil {
			log.Warn("run not recorded in store", zap.Error(err))
			st = nil
		}
	}

	for _, place := range places {
		item := d.process(ctx, place, now)
		summary.Items = append(summary.Items, item)

		if item.Failed() {
			summary.Failed++
			log.Warn("place failed",
				zap.String("place", place),
				zap.String("outcome", string(item.Outcome)),
				zap.Error(item.Err),
			)
		} else {
			summary.Succeeded++
			log.Info("place exported",
				zap.String("place", place),
				zap.String("output", item.Output),
			)
		}

		if st != nil {
			detail := ""
			if item.Err != nil {
				detail = item.Err.Error()
			}
			if err := st.RecordItem(ctx, summary.RunID, place, string(item.Outcome), detail, item.Output); err != nil {
				log.Warn("run item not recorded", zap.Error(err))
			}
		}
	}

	if st != nil {
		if err := st.CompleteRun(ctx, summary.RunID, summary.Succeeded, summary.Failed); err != nil {
			log.Warn("run not completed in store", zap.Error(err))
		}
	}

	log.Info("batch complete",
		zap.String("run_id", summary.RunID),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (d *Driver) process(ctx context.Context, place string, now func() time.Time) ItemResult {
	g, err := d.Source.Fetch(ctx, place)
	if err != nil {
		outcome := OutcomeLoadFailed
		var nf *NotFoundError
		if errors.As(err, &nf) {
			outcome = OutcomeNotFound
		}
		return ItemResult{Place: place, Outcome: outcome, Err: err}
	}

	cleaned, err := geometry.Normalize(g, d.Geometry)
	if err != nil {
		return ItemResult{Place: place, Outcome: OutcomeGeometryFailed, Err: err}
	}

	features, err := feature.Emit(cleaned, displayName(place), now())
	if err != nil {
		return ItemResult{Place: place, Outcome: OutcomeGeometryFailed, Err: err}
	}

	path, err := feature.Write(d.OutDir, place, feature.NewCollection(features), d.Pretty)
	if err != nil {
		return ItemResult{Place: place, Outcome: OutcomeWriteFailed, Err: err}
	}

	return ItemResult{Place: place, Outcome: OutcomeOK, Output: path}
}

// displayName is the feature name: the configured place without a trailing
// country qualifier ("Batanes, Philippines" -> "Batanes").
func displayName(place string) string {
	name, _, _ := strings.Cut(place, ",")
	return strings.TrimSpace(name)
}
