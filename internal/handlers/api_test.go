package handlers

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testOrder(id, country, category, product string, revenue float64, date time.Time) models.Order {
	return models.Order{
		OrderID:      id,
		OrderDate:    date,
		ProductName:  product,
		Category:     category,
		Country:      country,
		Revenue:      revenue,
		OrderHour:    date.Hour(),
		OrderWeekday: date.Weekday().String(),
	}
}

func newTestDashboard(t *testing.T) *services.Dashboard {
	t.Helper()

	columns := []string{
		"order_id", "order_date", "product_name", "category", "country",
		"quantity", "price", "revenue", "order_hour", "order_weekday",
	}
	table := dataset.NewTable([]models.Order{
		testOrder("O1", "US", "Toys", "Blocks", 10, time.Date(2024, 1, 5, 14, 0, 0, 0, time.UTC)),
		testOrder("O2", "US", "Toys", "Blocks", 20, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)),
		testOrder("O3", "FR", "Games", "Chess", 5, time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC)),
	}, columns)

	cfg := config.DashboardConfig{
		PreviewRows:    10,
		PreviewMaxRows: 200,
		ExportFilename: "filtered_sales.csv",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return services.NewDashboard(table, cfg, logger)
}

func newTestAPIHandlers(t *testing.T) *APIHandlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAPIHandlers(newTestDashboard(t), logger)
}

func decodeSuccess(t *testing.T, body io.Reader) map[string]any {
	t.Helper()

	var envelope struct {
		Data    map[string]any `json:"data"`
		Success bool           `json:"success"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected a success envelope")
	}
	return envelope.Data
}

func TestHandleViews(t *testing.T) {
	h := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/views?country=US", nil)
	w := httptest.NewRecorder()
	h.HandleViews(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	data := decodeSuccess(t, w.Body)
	kpis, ok := data["kpis"].(map[string]any)
	if !ok {
		t.Fatalf("bundle missing kpis: %v", data)
	}
	if kpis["total_revenue"] != 30.0 {
		t.Errorf("total_revenue = %v, want 30", kpis["total_revenue"])
	}
	for _, view := range []string{"top_products", "country_revenue", "monthly_revenue", "hour_weekday_revenue", "preview", "summary"} {
		if _, ok := data[view]; !ok {
			t.Errorf("bundle missing view %q", view)
		}
	}
}

func TestHandleViews_RepeatedParams(t *testing.T) {
	h := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/views?country=US&country=FR", nil)
	w := httptest.NewRecorder()
	h.HandleViews(w, req)

	data := decodeSuccess(t, w.Body)
	summary := data["summary"].(map[string]any)
	if summary["rows"] != 3.0 {
		t.Errorf("two-country filter should match all 3 records, got %v", summary["rows"])
	}
}

func TestHandleViews_NoMatches(t *testing.T) {
	h := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/views?country=DE", nil)
	w := httptest.NewRecorder()
	h.HandleViews(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("empty result is not an error, status = %d", w.Code)
	}

	data := decodeSuccess(t, w.Body)
	heatmap := data["hour_weekday_revenue"].(map[string]any)
	if heatmap["no_data"] != true {
		t.Errorf("empty subset heatmap should carry the no-data marker, got %v", heatmap["no_data"])
	}
}

func TestHandleDefaults(t *testing.T) {
	h := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/defaults", nil)
	w := httptest.NewRecorder()
	h.HandleDefaults(w, req)

	data := decodeSuccess(t, w.Body)
	if data["start_date"] != "2024-01-05" || data["end_date"] != "2024-02-10" {
		t.Errorf("default span = %v..%v, want full table span", data["start_date"], data["end_date"])
	}
	countries, ok := data["countries"].([]any)
	if !ok || len(countries) != 2 {
		t.Errorf("with two countries both are selected by default, got %v", data["countries"])
	}
}

func TestHandleExport(t *testing.T) {
	h := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export?country=FR", nil)
	w := httptest.NewRecorder()
	h.HandleExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filtered_sales.csv") {
		t.Errorf("Content-Disposition = %q, want attachment with filename", cd)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("export body is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 FR row, got %d rows", len(records))
	}
	if records[0][0] != "order_id" {
		t.Errorf("first header cell = %q, want order_id", records[0][0])
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	data := decodeSuccess(t, w.Body)
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
}

func TestHandleStats(t *testing.T) {
	h := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	data := decodeSuccess(t, w.Body)
	if data["record_count"] != 3.0 {
		t.Errorf("record_count = %v, want 3", data["record_count"])
	}
}
