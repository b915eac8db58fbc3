package seed

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionFailed marks an ingestion aborted before any write
	// because required input or a required foreign row was missing.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrStorage marks a storage failure; the transaction was rolled back and
	// the ingestion can be retried as a whole.
	ErrStorage = errors.New("storage failure")
)

// Names of the preconditions a RejectionError can report.
const (
	PreconditionExternalID  = "external_id"
	PreconditionNationality = "nationality"
	PreconditionBirthDate   = "birth_date"
	PreconditionPlayer      = "player"
	PreconditionTeam        = "team"
	PreconditionOpponent    = "opponent"
	PreconditionCompetition = "competition"
	PreconditionCountry     = "country"
	PreconditionDate        = "date"
	PreconditionSeason      = "season"
)

// RejectionError reports which precondition stopped an ingestion and the
// value that failed it, so the missing row can be seeded and the call retried.
type RejectionError struct {
	ExternalID   int64
	Precondition string
	Value        string
}

func (e *RejectionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("entity %d rejected: missing %s", e.ExternalID, e.Precondition)
	}
	return fmt.Sprintf("entity %d rejected: %s %q not found", e.ExternalID, e.Precondition, e.Value)
}

func (e *RejectionError) Unwrap() error {
	return ErrPreconditionFailed
}

func reject(externalID int64, precondition, value string) error {
	return &RejectionError{ExternalID: externalID, Precondition: precondition, Value: value}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
