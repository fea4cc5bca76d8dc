package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

// ViewState is the raw filter state attached to one interaction, exactly as
// the boundary received it. Selection values may be a bare string or a list;
// everything is validated here, never at the caller.
type ViewState struct {
	Countries   any
	Categories  any
	StartDate   string
	EndDate     string
	PreviewRows string
}

// DefaultFilters is the reset output presentation applies back to its
// controls.
type DefaultFilters struct {
	Countries  []string `json:"countries"`
	Categories []string `json:"categories"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
}

// Dashboard owns the immutable base table and runs the per-interaction
// pipeline: translate raw state into a spec, filter, aggregate, deliver one
// atomic bundle. It is stateless between interactions, so concurrent
// requests need no coordination.
type Dashboard struct {
	table      *dataset.Table
	cfg        config.DashboardConfig
	logger     *slog.Logger
	countries  []string
	categories []string
}

func NewDashboard(table *dataset.Table, cfg config.DashboardConfig, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		table:      table,
		cfg:        cfg,
		logger:     logger,
		countries:  distinctSorted(table.Orders(), func(o models.Order) string { return o.Country }),
		categories: distinctSorted(table.Orders(), func(o models.Order) string { return o.Category }),
	}
}

// Countries lists the selectable country options, sorted.
func (d *Dashboard) Countries() []string {
	return slices.Clone(d.countries)
}

// Categories lists the selectable category options, sorted.
func (d *Dashboard) Categories() []string {
	return slices.Clone(d.categories)
}

// Update handles one filter-state change: recompute every view from scratch
// and return the full bundle.
func (d *Dashboard) Update(state ViewState) models.ViewBundle {
	spec := NewFilterSpec(state.Countries, state.Categories, state.StartDate, state.EndDate)
	subset := Filter(NewSubset(d.table), spec)
	return Aggregate(subset, d.previewRows(state.PreviewRows))
}

// previewRows parses the raw preview-row input; missing, unparseable or
// out-of-range values fall back to the configured default.
func (d *Dashboard) previewRows(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > d.cfg.PreviewMaxRows {
		return d.cfg.PreviewRows
	}
	return n
}

// Defaults implements the reset rule: all countries when three or fewer are
// present, otherwise only the first by sorted order; no category
// constraint; the full date span of the base table.
func (d *Dashboard) Defaults() DefaultFilters {
	countries := slices.Clone(d.countries)
	if len(countries) > 3 {
		countries = countries[:1]
	}

	defaults := DefaultFilters{
		Countries:  countries,
		Categories: []string{},
	}
	if minDate, maxDate, ok := dateSpan(d.table.Orders()); ok {
		defaults.StartDate = minDate.Format("2006-01-02")
		defaults.EndDate = maxDate.Format("2006-01-02")
	}
	return defaults
}

// WriteExport streams the filtered subset as CSV: a header row with the
// subset's column names in column order, then one row per record with no
// index column. Aggregation is bypassed entirely.
func (d *Dashboard) WriteExport(w io.Writer, state ViewState) (int, error) {
	spec := NewFilterSpec(state.Countries, state.Categories, state.StartDate, state.EndDate)
	subset := Filter(NewSubset(d.table), spec)

	cw := csv.NewWriter(w)
	if err := cw.Write(subset.Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for i, o := range subset.Orders {
		row := make([]string, len(subset.Columns))
		for j, col := range subset.Columns {
			row[j] = CellValue(col, o)
		}
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(subset.Orders), fmt.Errorf("flush export: %w", err)
	}

	d.logger.Info("exported filtered subset", "rows", len(subset.Orders))
	return len(subset.Orders), nil
}

// ExportFilename is the download name for the export artifact.
func (d *Dashboard) ExportFilename() string {
	return d.cfg.ExportFilename
}

// Stats reports base-table facts for the admin endpoint.
func (d *Dashboard) Stats() map[string]any {
	stats := map[string]any{
		"record_count": d.table.Len(),
		"dropped_rows": d.table.DroppedRows(),
		"countries":    len(d.countries),
		"categories":   len(d.categories),
		"products":     distinct(d.table.Orders(), func(o models.Order) string { return o.ProductName }),
	}
	if minDate, maxDate, ok := dateSpan(d.table.Orders()); ok {
		stats["start_date"] = minDate.Format("2006-01-02")
		stats["end_date"] = maxDate.Format("2006-01-02")
	}
	return stats
}

// CellValue renders one column of a record for tabular output (export and
// the preview table).
func CellValue(column string, o models.Order) string {
	switch column {
	case "order_id":
		return o.OrderID
	case "order_date":
		if o.OrderHour == models.UnknownHour {
			return o.OrderDate.Format("2006-01-02")
		}
		return o.OrderDate.Format("2006-01-02 15:04:05")
	case "product_id":
		return o.ProductID
	case "product_name":
		return o.ProductName
	case "category":
		return o.Category
	case "country":
		return o.Country
	case "quantity":
		return strconv.FormatFloat(o.Quantity, 'f', -1, 64)
	case "price":
		return strconv.FormatFloat(o.Price, 'f', -1, 64)
	case "revenue":
		return strconv.FormatFloat(o.Revenue, 'f', -1, 64)
	case "order_hour":
		return strconv.Itoa(o.OrderHour)
	case "order_weekday":
		return o.OrderWeekday
	}
	return ""
}

func distinctSorted(orders []models.Order, key func(models.Order) string) []string {
	seen := make(map[string]bool)
	for _, o := range orders {
		if v := key(o); v != "" {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
