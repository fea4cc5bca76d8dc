package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

var previewTableTemplate = template.Must(template.New("previewTable").Parse(`
<div id="preview-content">
<table class="modern-table">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
</tbody>
</table>
</div>`))

var kpiTemplate = template.Must(template.New("kpiCards").Parse(`
<div id="kpi-content">
<div class="kpi-card"><span class="kpi-number">${{printf "%.0f" .KPIs.TotalRevenue}}</span><span class="kpi-label">Total Revenue</span></div>
<div class="kpi-card"><span class="kpi-number">{{.KPIs.TotalOrders}}</span><span class="kpi-label">Total Orders</span></div>
<div class="kpi-card"><span class="kpi-number">${{printf "%.2f" .KPIs.AvgOrderValue}}</span><span class="kpi-label">Avg Order Value</span></div>
<div class="kpi-card"><span class="kpi-number">{{.KPIs.UniqueProducts}}</span><span class="kpi-label">Unique Products</span></div>
<div class="kpi-card"><span class="kpi-number">{{.Summary.Rows}}</span><span class="kpi-label">Rows</span></div>
<div class="kpi-card"><span class="kpi-number">{{if .Summary.StartDate}}{{.Summary.StartDate}}{{else}}-{{end}}</span><span class="kpi-label">Start Date</span></div>
<div class="kpi-card"><span class="kpi-number">{{if .Summary.EndDate}}{{.Summary.EndDate}}{{else}}-{{end}}</span><span class="kpi-label">End Date</span></div>
<div class="kpi-card"><span class="kpi-number">{{.Summary.Countries}}</span><span class="kpi-label">Countries</span></div>
</div>`))

// filterSignals is the full filter state attached to every datastar event —
// one event per control change, carrying the whole state, never a diff.
type filterSignals struct {
	Countries   []string    `json:"countries"`
	Categories  []string    `json:"categories"`
	StartDate   string      `json:"start"`
	EndDate     string      `json:"end"`
	PreviewRows json.Number `json:"previewRows"`
	ResetFired  bool        `json:"resetFired"`
	ExportFired bool        `json:"exportFired"`
}

func (sig filterSignals) viewState() services.ViewState {
	return services.ViewState{
		Countries:   sig.Countries,
		Categories:  sig.Categories,
		StartDate:   sig.StartDate,
		EndDate:     sig.EndDate,
		PreviewRows: sig.PreviewRows.String(),
	}
}

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// readSignals tolerates missing or malformed signals: a filter state we
// cannot read imposes no constraint.
func (h *SSEHandlers) readSignals(r *http.Request) filterSignals {
	var sigs filterSignals
	if err := datastar.ReadSignals(r, &sigs); err != nil {
		h.logger.Warn("unreadable filter signals, using empty state", "error", err)
		return filterSignals{}
	}
	return sigs
}

// HandleViews is the reactive path: one filter-state change event in, one
// atomic patch out carrying the whole recomputed bundle.
func (h *SSEHandlers) HandleViews(w http.ResponseWriter, r *http.Request) {
	sigs := h.readSignals(r)
	bundle := h.dashboard.Update(sigs.viewState())

	sse := datastar.NewSSE(w, r)

	payload, err := json.Marshal(map[string]any{"views": bundle})
	if err != nil {
		h.logger.Error("marshal view bundle", "error", err)
		return
	}
	sse.PatchSignals(payload)

	previewHTML, err := renderPreviewTable(bundle.Preview)
	if err != nil {
		h.logger.Error("render preview table", "error", err)
		return
	}
	sse.PatchElements(previewHTML)

	kpiHTML, err := renderKPICards(bundle)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(kpiHTML)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleReset pushes the default filter state back to the controls. On the
// initial mount (trigger never fired) there is nothing to apply.
func (h *SSEHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	sigs := h.readSignals(r)
	sse := datastar.NewSSE(w, r)

	if !sigs.ResetFired {
		return
	}

	defaults := h.dashboard.Defaults()
	payload, err := json.Marshal(map[string]any{
		"countries":  defaults.Countries,
		"categories": defaults.Categories,
		"start":      defaults.StartDate,
		"end":        defaults.EndDate,
	})
	if err != nil {
		h.logger.Error("marshal default filters", "error", err)
		return
	}
	sse.PatchSignals(payload)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleExport points the client at the CSV download for the current filter
// state. No-op until the export trigger has actually fired.
func (h *SSEHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	sigs := h.readSignals(r)
	sse := datastar.NewSSE(w, r)

	if !sigs.ExportFired {
		return
	}

	exportURL := url.URL{Path: "/api/export", RawQuery: exportQuery(sigs).Encode()}
	sse.PatchElements(fmt.Sprintf(
		`<div id="export-content"><a href=%q download>Download %s</a></div>`,
		exportURL.String(), template.HTMLEscapeString(h.dashboard.ExportFilename())))

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func exportQuery(sigs filterSignals) url.Values {
	q := url.Values{}
	for _, c := range sigs.Countries {
		q.Add("country", c)
	}
	for _, c := range sigs.Categories {
		q.Add("category", c)
	}
	if sigs.StartDate != "" {
		q.Set("start", sigs.StartDate)
	}
	if sigs.EndDate != "" {
		q.Set("end", sigs.EndDate)
	}
	return q
}

func renderPreviewTable(preview models.Preview) (string, error) {
	rows := make([][]string, len(preview.Rows))
	for i, o := range preview.Rows {
		cells := make([]string, len(preview.Columns))
		for j, col := range preview.Columns {
			cells[j] = services.CellValue(col, o)
		}
		rows[i] = cells
	}

	var buf strings.Builder
	err := previewTableTemplate.Execute(&buf, struct {
		Columns []string
		Rows    [][]string
	}{preview.Columns, rows})
	return buf.String(), err
}

func renderKPICards(bundle models.ViewBundle) (string, error) {
	var buf strings.Builder
	err := kpiTemplate.Execute(&buf, bundle)
	return buf.String(), err
}
