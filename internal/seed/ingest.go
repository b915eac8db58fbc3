package seed

import (
	"context"
	"errors"

	"github.com/albapepper/gemscout-data/internal/provider"
	"github.com/albapepper/gemscout-data/internal/provider/fotmob"
	"github.com/albapepper/gemscout-data/internal/snapshot"
	"github.com/albapepper/gemscout-data/internal/store"
)

// Outcome classes reported by Classify.
const (
	StatusCreated  = "created"
	StatusUpdated  = "updated"
	StatusSkipped  = "skipped"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// IngestSnapshot locates the player in doc, normalizes it and upserts it.
// A page with no player profile returns provider.ErrEntityNotFound and writes
// nothing.
func IngestSnapshot(ctx context.Context, st store.Store, doc *snapshot.Document, containerPath string) (Outcome, error) {
	p, err := fotmob.ExtractPlayer(doc, containerPath)
	if err != nil {
		return Outcome{}, err
	}
	return UpsertPlayer(ctx, st, p)
}

// Classify maps an ingestion result onto one of the Status* values.
func Classify(out Outcome, err error) string {
	var rej *RejectionError
	switch {
	case err == nil && out.Created:
		return StatusCreated
	case err == nil:
		return StatusUpdated
	case errors.Is(err, provider.ErrEntityNotFound):
		return StatusSkipped
	case errors.As(err, &rej):
		return StatusRejected
	default:
		return StatusFailed
	}
}

// Record folds one ingestion result into r.
func (r *SeedResult) Record(label string, out Outcome, err error) {
	switch Classify(out, err) {
	case StatusCreated, StatusUpdated:
		r.AddOutcome(out)
	case StatusSkipped:
		r.Skipped++
	case StatusRejected:
		r.Rejected++
		r.AddErrorf("%s: %v", label, err)
	default:
		r.AddErrorf("%s: %v", label, err)
	}
}
