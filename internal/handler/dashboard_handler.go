package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/listing"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/service"
	"github.com/parisxmas/formcraft/internal/timefmt"
)

type DashboardHandler struct {
	forms *service.FormService
	log   *zap.Logger
}

func NewDashboardHandler(forms *service.FormService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{forms: forms, log: log}
}

type formSummary struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Status        models.FormStatus `json:"status"`
	ResponseCount int               `json:"responseCount"`
	FieldCount    int               `json:"fieldCount"`
	UpdatedAt     models.Timestamp  `json:"updatedAt"`
	Updated       string            `json:"updated"`
	Created       string            `json:"created"`
}

// Dashboard returns the caller's stats and form cards, filtered by the
// status and search query parameters and ordered by sort.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := uid(r)
	stats, err := h.forms.GetFormStats(r.Context(), user)
	if err != nil {
		fail(w, h.log, err, "Failed to load dashboard")
		return
	}
	forms, err := h.forms.GetUserForms(r.Context(), user)
	if err != nil {
		fail(w, h.log, err, "Failed to load dashboard")
		return
	}

	q := r.URL.Query()
	forms = listing.FilterForms(forms, listing.Filter{Status: q.Get("status"), Search: q.Get("search")})
	listing.SortForms(forms, listing.ParseSortKey(q.Get("sort")))

	cards := make([]formSummary, 0, len(forms))
	for _, f := range forms {
		cards = append(cards, formSummary{
			ID:            f.ID,
			Title:         f.Title,
			Description:   f.Description,
			Status:        f.Status,
			ResponseCount: f.ResponseCount,
			FieldCount:    len(f.InputFields()),
			UpdatedAt:     f.UpdatedAt,
			Updated:       timefmt.FormatRelativeTime(f.UpdatedAt),
			Created:       timefmt.FormatDate(f.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats, "forms": cards})
}
