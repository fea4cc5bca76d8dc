package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// Columns the loader understands, in canonical order. Unrecognized source
// columns are skipped.
var knownColumns = []string{
	"order_id", "order_date", "product_id", "product_name",
	"category", "country", "quantity", "price", "revenue",
}

var derivedColumns = []string{"revenue", "order_hour", "order_weekday"}

// Timestamp layouts tried in order. Layouts without a time component yield
// the UnknownHour sentinel.
var dateLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02 15:04:05", true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02", false},
}

// LoadCSV reads and normalizes a sales CSV into an immutable Table.
// Rows with unparseable order dates are dropped and counted. Missing revenue
// is derived from quantity and price; a file offering neither is a fatal
// load error.
func LoadCSV(ctx context.Context, filename string) (*Table, error) {
	logger := slog.Default()
	start := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReaderSize(file, 1024*1024))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	columns := make([]string, 0, len(header)+len(derivedColumns))
	for i, h := range header {
		name := normalizeColumn(h)
		if !slices.Contains(knownColumns, name) {
			logger.Debug("skipping unrecognized column", "column", name)
			continue
		}
		cols[name] = i
		columns = append(columns, name)
	}

	if _, ok := cols["order_date"]; !ok {
		return nil, fmt.Errorf("dataset has no order_date column")
	}
	_, hasRevenue := cols["revenue"]
	_, hasQuantity := cols["quantity"]
	_, hasPrice := cols["price"]
	if !hasRevenue && !(hasQuantity && hasPrice) {
		return nil, fmt.Errorf("dataset has neither a revenue column nor quantity and price to derive it")
	}

	rows, err := readRows(ctx, reader)
	if err != nil {
		return nil, err
	}

	type slot struct {
		order models.Order
		valid bool
	}
	parsed := make([]slot, len(rows))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)
	for lo := 0; lo < len(rows); lo += batchSize {
		hi := min(lo+batchSize, len(rows))
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := lo; i < hi; i++ {
				order, ok := parseOrder(rows[i], cols, hasRevenue)
				parsed[i] = slot{order: order, valid: ok}
			}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	dropped := 0
	for _, s := range parsed {
		if !s.valid {
			dropped++
			continue
		}
		orders = append(orders, s.order)
	}

	if len(orders) == 0 {
		return nil, fmt.Errorf("no valid records found in %s", filename)
	}

	for _, name := range derivedColumns {
		if !slices.Contains(columns, name) {
			columns = append(columns, name)
		}
	}

	logger.Info("dataset loaded",
		"filename", filename,
		"records", len(orders),
		"dropped", dropped,
		"duration", time.Since(start),
	)
	if dropped > 0 {
		logger.Warn("dropped rows with unparseable order dates", "count", dropped)
	}

	return &Table{orders: orders, columns: columns, dropped: dropped}, nil
}

func readRows(ctx context.Context, reader *csv.Reader) ([][]string, error) {
	var rows [][]string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, record)
	}
}

func parseOrder(record []string, cols map[string]int, hasRevenue bool) (models.Order, bool) {
	date, hour, ok := parseOrderDate(field(record, cols, "order_date"))
	if !ok {
		return models.Order{}, false
	}

	quantity := parseNumber(field(record, cols, "quantity"))
	price := parseNumber(field(record, cols, "price"))

	revenue := quantity * price
	if hasRevenue {
		if v, err := strconv.ParseFloat(field(record, cols, "revenue"), 64); err == nil {
			revenue = v
		}
	}

	return models.Order{
		OrderID:      field(record, cols, "order_id"),
		OrderDate:    date,
		ProductID:    field(record, cols, "product_id"),
		ProductName:  field(record, cols, "product_name"),
		Category:     field(record, cols, "category"),
		Country:      field(record, cols, "country"),
		Quantity:     quantity,
		Price:        price,
		Revenue:      revenue,
		OrderHour:    hour,
		OrderWeekday: date.Weekday().String(),
	}, true
}

func parseOrderDate(value string) (time.Time, int, bool) {
	for _, dl := range dateLayouts {
		t, err := time.Parse(dl.layout, value)
		if err != nil {
			continue
		}
		hour := models.UnknownHour
		if dl.hasTime {
			hour = t.Hour()
		}
		return t, hour, true
	}
	return time.Time{}, 0, false
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseNumber(value string) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
