package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestSSEHandlers(t *testing.T) *SSEHandlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSSEHandlers(newTestDashboard(t), logger)
}

// sseRequest builds a GET request carrying datastar signals the way the
// browser sends them: JSON in the datastar query parameter.
func sseRequest(t *testing.T, path string, signals any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(signals)
	if err != nil {
		t.Fatal(err)
	}
	q := url.Values{"datastar": []string{string(payload)}}
	return httptest.NewRequest(http.MethodGet, path+"?"+q.Encode(), nil)
}

func TestSSEHandleViews(t *testing.T) {
	h := newTestSSEHandlers(t)

	req := sseRequest(t, "/sse/views", map[string]any{
		"countries":   []string{"US"},
		"previewRows": 10,
	})
	w := httptest.NewRecorder()
	h.HandleViews(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "datastar-patch-signals") {
		t.Error("expected a signal patch carrying the view bundle")
	}
	if !strings.Contains(body, `\"total_revenue\":30`) && !strings.Contains(body, `"total_revenue":30`) {
		t.Errorf("signal patch should carry the recomputed KPIs, body:\n%s", body)
	}
	if !strings.Contains(body, `id="preview-content"`) {
		t.Error("expected an element patch for the preview table")
	}
	if !strings.Contains(body, `id="kpi-content"`) {
		t.Error("expected an element patch for the KPI cards")
	}
}

func TestSSEHandleViews_MissingSignals(t *testing.T) {
	h := newTestSSEHandlers(t)

	// No datastar parameter at all: an unreadable state imposes no filter.
	req := httptest.NewRequest(http.MethodGet, "/sse/views", nil)
	w := httptest.NewRecorder()
	h.HandleViews(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "datastar-patch-signals") {
		t.Error("missing signals should still produce the unfiltered bundle")
	}
	if !strings.Contains(body, `\"rows\":3`) && !strings.Contains(body, `"rows":3`) {
		t.Errorf("unfiltered bundle should cover all 3 records, body:\n%s", body)
	}
}

func TestSSEHandleViews_PreviewRespectsRowLimit(t *testing.T) {
	h := newTestSSEHandlers(t)

	req := sseRequest(t, "/sse/views", map[string]any{"previewRows": 1})
	w := httptest.NewRecorder()
	h.HandleViews(w, req)

	body := w.Body.String()
	if got := strings.Count(body, "<td>O"); got != 1 {
		t.Errorf("preview table should show exactly 1 order row, found %d", got)
	}
}

func TestSSEHandleReset_NoOpBeforeTriggerFires(t *testing.T) {
	h := newTestSSEHandlers(t)

	req := sseRequest(t, "/sse/reset", map[string]any{"resetFired": false})
	w := httptest.NewRecorder()
	h.HandleReset(w, req)

	if body := w.Body.String(); strings.Contains(body, "datastar-patch-signals") {
		t.Errorf("reset must not fire on initial mount, body:\n%s", body)
	}
}

func TestSSEHandleReset_AppliesDefaults(t *testing.T) {
	h := newTestSSEHandlers(t)

	req := sseRequest(t, "/sse/reset", map[string]any{
		"resetFired": true,
		"countries":  []string{"FR"},
	})
	w := httptest.NewRecorder()
	h.HandleReset(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "datastar-patch-signals") {
		t.Fatal("expected a signal patch with the default filter state")
	}
	if !strings.Contains(body, "2024-01-05") || !strings.Contains(body, "2024-02-10") {
		t.Errorf("defaults should span the full base table, body:\n%s", body)
	}
}

func TestSSEHandleExport_NoOpBeforeTriggerFires(t *testing.T) {
	h := newTestSSEHandlers(t)

	req := sseRequest(t, "/sse/export", map[string]any{"exportFired": false})
	w := httptest.NewRecorder()
	h.HandleExport(w, req)

	if body := w.Body.String(); strings.Contains(body, "datastar-patch-elements") {
		t.Errorf("export must not fire on initial mount, body:\n%s", body)
	}
}

func TestSSEHandleExport_LinksFilteredDownload(t *testing.T) {
	h := newTestSSEHandlers(t)

	req := sseRequest(t, "/sse/export", map[string]any{
		"exportFired": true,
		"countries":   []string{"US"},
		"start":       "2024-01-01",
	})
	w := httptest.NewRecorder()
	h.HandleExport(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "/api/export") {
		t.Fatalf("expected a download link to the export endpoint, body:\n%s", body)
	}
	if !strings.Contains(body, "country=US") || !strings.Contains(body, "start=2024-01-01") {
		t.Errorf("download link should carry the current filter state, body:\n%s", body)
	}
	if !strings.Contains(body, "filtered_sales.csv") {
		t.Error("download link should name the export file")
	}
}

func TestExportQuery(t *testing.T) {
	q := exportQuery(filterSignals{
		Countries:  []string{"US", "FR"},
		Categories: []string{"Toys"},
		StartDate:  "2024-01-01",
	})

	if got := q["country"]; len(got) != 2 {
		t.Errorf("country params = %v, want both countries", got)
	}
	if q.Get("category") != "Toys" {
		t.Errorf("category = %q, want Toys", q.Get("category"))
	}
	if q.Get("start") != "2024-01-01" {
		t.Errorf("start = %q", q.Get("start"))
	}
	if _, ok := q["end"]; ok {
		t.Error("empty end date must not appear in the query")
	}
}
