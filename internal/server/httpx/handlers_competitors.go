package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/codesleeps/palmers/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const msgCompetitorNotFound = "Competitor not found"

type competitorRequest struct {
	Name       *string  `json:"name"`
	Website    *string  `json:"website"`
	Location   *string  `json:"location"`
	Services   []string `json:"services"`
	PriceRange *string  `json:"priceRange"`
	Rating     *float64 `json:"rating"`
}

func (c competitorRequest) patch() models.CompetitorPatch {
	return models.CompetitorPatch{
		Name:       c.Name,
		Website:    c.Website,
		Location:   c.Location,
		Services:   c.Services,
		PriceRange: c.PriceRange,
		Rating:     c.Rating,
	}
}

type monitoringRequest struct {
	PriceChanges *string  `json:"priceChanges"`
	NewServices  *string  `json:"newServices"`
	Rating       *float64 `json:"rating"`
	Notes        *string  `json:"notes"`
}

func (h *Handler) listCompetitors(w http.ResponseWriter, r *http.Request) {
	list, err := h.competitors.List(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, "list competitors", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"competitors": list})
}

func (h *Handler) createCompetitor(w http.ResponseWriter, r *http.Request) {
	var req competitorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.competitors.Create(r.Context(), req.patch())
	if err != nil {
		h.writeServiceError(r.Context(), w, "create competitor", err)
		return
	}
	writeSuccessMessage(w, http.StatusCreated, "Competitor added successfully", map[string]any{"competitor": c})
}

func (h *Handler) updateCompetitor(w http.ResponseWriter, r *http.Request) {
	var req competitorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.competitors.Update(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		h.writeCompetitorError(w, r, "update competitor", err)
		return
	}
	writeSuccessMessage(w, http.StatusOK, "Competitor updated successfully", map[string]any{"competitor": c})
}

func (h *Handler) addMonitoring(w http.ResponseWriter, r *http.Request) {
	var req monitoringRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.competitors.AddMonitoring(r.Context(), chi.URLParam(r, "id"), services.MonitoringInput{
		PriceChanges: req.PriceChanges,
		NewServices:  req.NewServices,
		Rating:       req.Rating,
		Notes:        req.Notes,
	})
	if err != nil {
		h.writeCompetitorError(w, r, "add monitoring", err)
		return
	}
	writeSuccessMessage(w, http.StatusCreated, "Monitoring data added successfully", map[string]any{"monitoring": m})
}

func (h *Handler) listMonitoring(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultMonitoringLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorDetails(w, http.StatusBadRequest, msgValidation,
				[]services.FieldError{{Field: "limit", Message: "Limit must be a positive integer"}})
			return
		}
		limit = n
	}

	list, err := h.competitors.Monitoring(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.writeServiceError(r.Context(), w, "list monitoring", err)
		return
	}
	if list == nil {
		list = []models.Monitoring{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"monitoring": list})
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.competitors.Analytics(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, "analytics", err)
		return
	}
	writeSuccess(w, http.StatusOK, a)
}

func (h *Handler) writeCompetitorError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		writeError(w, http.StatusNotFound, msgCompetitorNotFound)
		return
	}
	h.writeServiceError(r.Context(), w, operation, err)
}
