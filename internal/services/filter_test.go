package services

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

func testColumns() []string {
	return []string{
		"order_id", "order_date", "product_name", "category", "country",
		"quantity", "price", "revenue", "order_hour", "order_weekday",
	}
}

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

func testTable() *dataset.Table {
	return dataset.NewTable([]models.Order{
		testOrder("O1", "US", "Toys", "Blocks", 10, time.Date(2024, 1, 5, 14, 0, 0, 0, time.UTC)),
		testOrder("O2", "US", "Toys", "Blocks", 20, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)),
		testOrder("O3", "FR", "Games", "Chess", 5, time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC)),
	}, testColumns())
}

func TestFilter_NoConstraints(t *testing.T) {
	subset := Filter(NewSubset(testTable()), FilterSpec{})
	if len(subset.Orders) != 3 {
		t.Errorf("empty spec should keep all records, got %d", len(subset.Orders))
	}
}

func TestFilter_ByCountry(t *testing.T) {
	spec := NewFilterSpec([]string{"US"}, nil, "", "")
	subset := Filter(NewSubset(testTable()), spec)

	if len(subset.Orders) != 2 {
		t.Fatalf("expected 2 US records, got %d", len(subset.Orders))
	}
	for _, o := range subset.Orders {
		if o.Country != "US" {
			t.Errorf("unexpected country %q in filtered subset", o.Country)
		}
	}
}

func TestFilter_ScalarEqualsOneElementList(t *testing.T) {
	base := NewSubset(testTable())

	scalar := Filter(base, NewFilterSpec("FR", "Games", "", ""))
	list := Filter(base, NewFilterSpec([]string{"FR"}, []any{"Games"}, "", ""))

	if diff := cmp.Diff(scalar, list); diff != "" {
		t.Errorf("scalar and one-element list filters disagree (-scalar +list):\n%s", diff)
	}
	if len(scalar.Orders) != 1 {
		t.Errorf("expected 1 record, got %d", len(scalar.Orders))
	}
}

func TestFilter_ConjunctiveComposition(t *testing.T) {
	base := NewSubset(testTable())

	sequential := Filter(Filter(base, NewFilterSpec([]string{"US"}, nil, "", "")),
		NewFilterSpec(nil, []string{"Toys"}, "", ""))
	combined := Filter(base, NewFilterSpec([]string{"US"}, []string{"Toys"}, "", ""))

	if diff := cmp.Diff(combined, sequential); diff != "" {
		t.Errorf("sequential filtering should equal combined filtering (-combined +sequential):\n%s", diff)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	base := NewSubset(testTable())
	spec := NewFilterSpec([]string{"US"}, nil, "2024-01-01", "2024-12-31")

	once := Filter(base, spec)
	twice := Filter(once, spec)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("filtering twice with the same spec changed the result:\n%s", diff)
	}
}

func TestFilter_EndDateInclusiveOfFullDay(t *testing.T) {
	table := dataset.NewTable([]models.Order{
		testOrder("O1", "US", "Toys", "Blocks", 10, time.Date(2024, 3, 31, 18, 45, 0, 0, time.UTC)),
		testOrder("O2", "US", "Toys", "Blocks", 20, time.Date(2024, 4, 1, 0, 30, 0, 0, time.UTC)),
	}, testColumns())

	subset := Filter(NewSubset(table), NewFilterSpec(nil, nil, "", "2024-03-31"))

	if len(subset.Orders) != 1 {
		t.Fatalf("expected only the record on the end date, got %d records", len(subset.Orders))
	}
	if subset.Orders[0].OrderID != "O1" {
		t.Errorf("a record late on the end date must be kept, got %q", subset.Orders[0].OrderID)
	}
}

func TestFilter_StartDateInclusive(t *testing.T) {
	subset := Filter(NewSubset(testTable()), NewFilterSpec(nil, nil, "2024-01-20", ""))

	if len(subset.Orders) != 2 {
		t.Fatalf("expected 2 records on or after 2024-01-20, got %d", len(subset.Orders))
	}
}

func TestFilter_EmptyResult(t *testing.T) {
	subset := Filter(NewSubset(testTable()), NewFilterSpec([]string{"DE"}, nil, "", ""))

	if subset.Orders == nil {
		t.Error("empty result should be an empty slice, not nil")
	}
	if len(subset.Orders) != 0 {
		t.Errorf("expected empty subset, got %d records", len(subset.Orders))
	}
	if len(subset.Columns) == 0 {
		t.Error("empty subset should keep the column list")
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	base := NewSubset(testTable())
	before := len(base.Orders)

	Filter(base, NewFilterSpec([]string{"US"}, nil, "", ""))

	if len(base.Orders) != before {
		t.Error("filtering must not mutate its input")
	}
}

func TestNewFilterSpec_Normalization(t *testing.T) {
	tests := []struct {
		name      string
		countries any
		want      int
	}{
		{"nil input", nil, 0},
		{"empty string", "", 0},
		{"bare string", "US", 1},
		{"string list", []string{"US", "FR"}, 2},
		{"list with empty values", []string{"US", ""}, 1},
		{"any list", []any{"US", "FR"}, 2},
		{"any list with non-strings", []any{"US", 42}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := NewFilterSpec(tt.countries, nil, "", "")
			if len(spec.Countries) != tt.want {
				t.Errorf("NewFilterSpec() countries = %v, want %d entries", spec.Countries, tt.want)
			}
		})
	}
}

func TestNewFilterSpec_UnparseableDateImposesNoBound(t *testing.T) {
	spec := NewFilterSpec(nil, nil, "not-a-date", "also-bad")
	if !spec.StartDate.IsZero() || !spec.EndDate.IsZero() {
		t.Error("unparseable dates should leave the window unbounded")
	}

	subset := Filter(NewSubset(testTable()), spec)
	if len(subset.Orders) != 3 {
		t.Errorf("unbounded spec should keep all records, got %d", len(subset.Orders))
	}
}
