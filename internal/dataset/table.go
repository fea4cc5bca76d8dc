package dataset

import (
	"slices"

	"sales-dashboard/internal/models"
)

// Table is the base dataset: loaded once, read-only afterwards. Columns
// records the effective schema in source order (including derived columns),
// which drives export headers and the KPI fallbacks for optional columns.
type Table struct {
	orders  []models.Order
	columns []string
	dropped int
}

// NewTable builds a table from already-normalized records. Used by tests and
// by callers that source records from somewhere other than a CSV file.
func NewTable(orders []models.Order, columns []string) *Table {
	return &Table{
		orders:  slices.Clone(orders),
		columns: slices.Clone(columns),
	}
}

// Orders exposes the backing records. Callers must treat the slice as
// read-only; filtering always produces a fresh slice.
func (t *Table) Orders() []models.Order {
	return t.orders
}

func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.columns, name)
}

func (t *Table) Len() int {
	return len(t.orders)
}

// DroppedRows reports how many source rows were discarded at load time for
// unparseable timestamps.
func (t *Table) DroppedRows() int {
	return t.dropped
}
