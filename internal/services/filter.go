package services

import (
	"slices"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

// Subset is a filtered view of the base table. It carries the table's
// column list so downstream views and the export path know the source
// schema.
type Subset struct {
	Columns []string
	Orders  []models.Order
}

func (s Subset) HasColumn(name string) bool {
	return slices.Contains(s.Columns, name)
}

// NewSubset wraps the whole base table as an unfiltered subset.
func NewSubset(t *dataset.Table) Subset {
	return Subset{Columns: t.Columns(), Orders: t.Orders()}
}

// FilterSpec is an immutable set of constraints. Empty or zero fields
// impose no restriction; the constraints compose conjunctively.
type FilterSpec struct {
	Countries  []string
	Categories []string
	StartDate  time.Time // compared from start of day
	EndDate    time.Time // inclusive of the whole end day
}

// NewFilterSpec normalizes raw selection inputs once, at the construction
// boundary: a bare string and a one-element list are equivalent, empty
// values mean "no constraint", dates arrive as YYYY-MM-DD strings and an
// unparseable date imposes no bound.
func NewFilterSpec(countries, categories any, startDate, endDate string) FilterSpec {
	return FilterSpec{
		Countries:  toStringList(countries),
		Categories: toStringList(categories),
		StartDate:  parseDay(startDate),
		EndDate:    parseDay(endDate),
	}
}

func toStringList(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []string:
		return compactStrings(val)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return compactStrings(out)
	}
	return nil
}

func compactStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseDay(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Filter applies spec to the subset, producing a fresh subset. Pure: the
// input is never mutated and the result never aliases its record slice.
// An empty result is not an error.
func Filter(s Subset, spec FilterSpec) Subset {
	countries := toSet(spec.Countries)
	categories := toSet(spec.Categories)

	var start, end time.Time
	if !spec.StartDate.IsZero() {
		start = startOfDay(spec.StartDate)
	}
	if !spec.EndDate.IsZero() {
		end = startOfDay(spec.EndDate).AddDate(0, 0, 1)
	}

	out := make([]models.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		if len(countries) > 0 && !countries[o.Country] {
			continue
		}
		if len(categories) > 0 && !categories[o.Category] {
			continue
		}
		if !start.IsZero() && o.OrderDate.Before(start) {
			continue
		}
		if !end.IsZero() && !o.OrderDate.Before(end) {
			continue
		}
		out = append(out, o)
	}

	return Subset{Columns: slices.Clone(s.Columns), Orders: out}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
