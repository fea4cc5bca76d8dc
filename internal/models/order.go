package models

import "time"

// Weekdays fixes the column order of the hour/weekday matrix. Weekdays
// absent from a subset are omitted from the matrix, not zero-filled.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// UnknownHour marks records whose timestamp carries no time component.
const UnknownHour = -1

type Order struct {
	OrderID      string    `json:"order_id,omitempty"`
	OrderDate    time.Time `json:"order_date"`
	ProductID    string    `json:"product_id,omitempty"`
	ProductName  string    `json:"product_name"`
	Category     string    `json:"category,omitempty"`
	Country      string    `json:"country"`
	Quantity     float64   `json:"quantity"`
	Price        float64   `json:"price"`
	Revenue      float64   `json:"revenue"`
	OrderHour    int       `json:"order_hour"`
	OrderWeekday string    `json:"order_weekday"`
}

type ProductRevenue struct {
	ProductName string  `json:"product_name"`
	Revenue     float64 `json:"revenue"`
}

type CountryRevenue struct {
	Country string  `json:"country"`
	Revenue float64 `json:"revenue"`
}

type MonthlyPoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// TimeSeries distinguishes "no rows matched" (NoData) from "matched rows
// summing to zero revenue" (populated points).
type TimeSeries struct {
	Points []MonthlyPoint `json:"points"`
	NoData bool           `json:"no_data"`
}

// Heatmap is the hour-of-day by weekday revenue matrix.
// Cells[i][j] holds the revenue sum for Hours[i] and Weekdays[j]. An empty
// subset yields a single zero cell with NoData set and empty axes.
type Heatmap struct {
	Hours    []int       `json:"hours"`
	Weekdays []string    `json:"weekdays"`
	Cells    [][]float64 `json:"cells"`
	NoData   bool        `json:"no_data"`
}

type KPIs struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalOrders    int     `json:"total_orders"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	UniqueProducts int     `json:"unique_products"`
}

type Preview struct {
	Columns []string `json:"columns"`
	Rows    []Order  `json:"rows"`
}

// Summary dates are calendar days (YYYY-MM-DD), empty when the subset has
// no rows.
type Summary struct {
	Rows      int    `json:"rows"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Countries int    `json:"countries"`
}

// ViewBundle is the complete set of derived views for one filter state.
// It is always structurally complete: every field is populated even when it
// encodes "no data".
type ViewBundle struct {
	TopProducts    []ProductRevenue `json:"top_products"`
	CountryRevenue []CountryRevenue `json:"country_revenue"`
	Monthly        TimeSeries       `json:"monthly_revenue"`
	Heatmap        Heatmap          `json:"hour_weekday_revenue"`
	KPIs           KPIs             `json:"kpis"`
	Preview        Preview          `json:"preview"`
	Summary        Summary          `json:"summary"`
}
