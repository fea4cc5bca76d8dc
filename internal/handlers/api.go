package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/services"
)

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// stateFromQuery maps query parameters onto raw view state. Repeated
// country/category parameters give the list form, a single parameter stays
// scalar; both normalize identically at the filter-spec boundary.
func stateFromQuery(q url.Values) services.ViewState {
	return services.ViewState{
		Countries:   scalarOrList(q["country"]),
		Categories:  scalarOrList(q["category"]),
		StartDate:   q.Get("start"),
		EndDate:     q.Get("end"),
		PreviewRows: q.Get("rows"),
	}
}

func scalarOrList(values []string) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	}
	return values
}

// HandleViews recomputes the full view bundle for the filter state in the
// query. The bundle is always structurally complete, even for filters that
// match nothing.
func (h *APIHandlers) HandleViews(w http.ResponseWriter, r *http.Request) {
	bundle := h.dashboard.Update(stateFromQuery(r.URL.Query()))
	errors.WriteSuccess(w, bundle)
}

// HandleDefaults returns the reset filter state for presentation to apply
// back to its controls.
func (h *APIHandlers) HandleDefaults(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Defaults())
}

// HandleExport streams the filtered subset as a CSV attachment, bypassing
// aggregation.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.dashboard.ExportFilename()))

	rows, err := h.dashboard.WriteExport(w, stateFromQuery(r.URL.Query()))
	if err != nil {
		// Headers are already on the wire; all we can do is log.
		h.logger.Error("export failed", "error", err, "rows_written", rows)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
