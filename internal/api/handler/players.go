package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/gemscout-data/internal/api/respond"
	"github.com/albapepper/gemscout-data/internal/cache"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// GetPlayer returns one player dashboard.
// @Summary Get player dashboard
// @Description Returns the dashboard for a player addressed by FotMob id: age, nationality, team, position group, physicals and market value.
// @Tags players
// @Produce json
// @Param id path int true "FotMob player id"
// @Success 200 {object} store.Dashboard
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{id} [get]
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidID, "ID must be a positive integer")
		return
	}
	h.serveCached(w, r, cache.PlayerKey(id), cache.TTLPlayer, "player", func(ctx context.Context) ([]byte, error) {
		return h.reader.PlayerDashboard(ctx, id)
	})
}

// ListPlayers returns a page of dashboards ordered by market value.
// @Summary List players
// @Description Returns player dashboards ordered by current market value, highest first.
// @Tags players
// @Produce json
// @Param limit query int false "Page size (max 200)" default(50)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {array} store.Dashboard
// @Failure 400 {object} respond.ErrorResponse
// @Router /players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultPageSize)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	if limit < 1 || limit > maxPageSize {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidParam,
			fmt.Sprintf("limit must be between 1 and %d", maxPageSize))
		return
	}
	if offset < 0 {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidParam, "offset must not be negative")
		return
	}

	h.serveCached(w, r, cache.PlayersKey(limit, offset), cache.TTLPlayerList, "players", func(ctx context.Context) ([]byte, error) {
		return h.reader.Players(ctx, limit, offset)
	})
}

// GetTeams returns every seeded team.
// @Summary List teams
// @Tags reference
// @Produce json
// @Success 200 {array} map[string]interface{}
// @Router /teams [get]
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "teams", cache.TTLReference, "teams", h.reader.Teams)
}

// GetCountries returns every seeded country.
// @Summary List countries
// @Tags reference
// @Produce json
// @Success 200 {array} map[string]interface{}
// @Router /countries [get]
func (h *Handler) GetCountries(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "countries", cache.TTLReference, "countries", h.reader.Countries)
}

// serveCached answers from cache (honouring If-None-Match) or loads, caches
// and writes fresh JSON. A nil payload is a 404.
func (h *Handler) serveCached(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	ttl time.Duration,
	what string,
	load func(ctx context.Context) ([]byte, error),
) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	raw, err := load(r.Context())
	if err != nil {
		h.logger.Error("Read failed", "resource", what, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Failed to load "+what)
		return
	}
	if raw == nil {
		respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, what+" not found")
		return
	}

	etag := h.cache.Set(key, raw, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, raw, etag, ttl, false)
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidParam, name+" must be an integer")
		return 0, false
	}
	return n, true
}
