package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/albapepper/gemscout-data/internal/api/respond"
	"github.com/albapepper/gemscout-data/internal/provider"
	"github.com/albapepper/gemscout-data/internal/provider/fotmob"
	"github.com/albapepper/gemscout-data/internal/seed"
	"github.com/albapepper/gemscout-data/internal/snapshot"
)

// maxSnapshotBytes caps an uploaded page or __NEXT_DATA__ payload.
const maxSnapshotBytes = 16 << 20

// IngestResponse is returned by a successful ingest.
type IngestResponse struct {
	Status         string `json:"status"`
	FotmobID       int64  `json:"fotmob_id"`
	PlayerID       int64  `json:"player_id"`
	TeamLinked     bool   `json:"team_linked"`
	PositionMapped bool   `json:"position_mapped"`
}

// IngestPlayer upserts the player found in an uploaded snapshot.
// @Summary Ingest a player snapshot
// @Description Accepts a FotMob player page (HTML) or its __NEXT_DATA__ JSON, locates the player profile and upserts it. Requests for the same player are serialized.
// @Tags ingest
// @Accept json
// @Accept html
// @Produce json
// @Param container query string false "gjson path of the entity container"
// @Success 200 {object} IngestResponse "updated"
// @Success 201 {object} IngestResponse "created"
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 413 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /ingest/player [post]
func (h *Handler) IngestPlayer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.WriteError(w, http.StatusRequestEntityTooLarge, respond.CodeInvalidSnapshot, "Snapshot too large")
			return
		}
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidSnapshot, "Failed to read body")
		return
	}

	doc, err := snapshot.Load(body)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeInvalidSnapshot, "Unreadable snapshot", err.Error())
		return
	}

	container := r.URL.Query().Get("container")
	if container == "" {
		container = h.cfg.SnapshotContainerPath
	}
	profile, err := fotmob.ExtractPlayer(doc, container)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	unlock := h.locks.Lock(profile.ExternalID)
	out, err := seed.UpsertPlayer(r.Context(), h.store, profile)
	unlock()
	if err != nil {
		h.logger.Warn("Ingest failed", "fotmob_id", profile.ExternalID, "error", err)
		h.writeIngestError(w, err)
		return
	}

	// Invalidate after the view refresh; a list read during the refresh may
	// have cached the old view.
	if h.afterIngest != nil {
		if err := h.afterIngest(r.Context()); err != nil {
			h.logger.Warn("Post-ingest hook failed", "error", err)
		}
	}
	h.cache.InvalidatePlayer(out.ExternalID)

	status := seed.Classify(out, nil)
	h.logger.Info("Player ingested", "fotmob_id", out.ExternalID, "status", status)

	code := http.StatusOK
	if out.Created {
		code = http.StatusCreated
	}
	respond.WriteJSONObject(w, code, IngestResponse{
		Status:         status,
		FotmobID:       out.ExternalID,
		PlayerID:       out.PlayerID,
		TeamLinked:     out.TeamLinked,
		PositionMapped: out.PositionMapped,
	})
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	var rej *seed.RejectionError
	switch {
	case errors.Is(err, provider.ErrEntityNotFound):
		respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, "No player profile in snapshot")
	case errors.As(err, &rej):
		respond.WriteErrorDetail(w, http.StatusUnprocessableEntity, respond.CodePreconditionFailed,
			err.Error(), rej.Precondition)
	default:
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeStorageFailure, "Ingest failed; retry later")
	}
}
