package services

import (
	"cmp"
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

const (
	topProductLimit    = 10
	defaultPreviewRows = 10
)

// Aggregate derives every view from the subset. Deterministic and total: an
// empty subset produces a structurally complete bundle with zero KPIs and
// no-data markers, never an error.
func Aggregate(s Subset, previewRows int) models.ViewBundle {
	return models.ViewBundle{
		TopProducts:    topProducts(s.Orders),
		CountryRevenue: countryRevenue(s.Orders),
		Monthly:        monthlyRevenue(s.Orders),
		Heatmap:        hourWeekdayRevenue(s.Orders),
		KPIs:           computeKPIs(s),
		Preview:        previewRowsView(s, previewRows),
		Summary:        summarize(s.Orders),
	}
}

// Revenue ties sort by product name so the ranking does not depend on map
// iteration order.
func topProducts(orders []models.Order) []models.ProductRevenue {
	groups := make(map[string]float64)
	for _, o := range orders {
		groups[o.ProductName] += o.Revenue
	}

	result := make([]models.ProductRevenue, 0, len(groups))
	for name, revenue := range groups {
		result = append(result, models.ProductRevenue{ProductName: name, Revenue: revenue})
	}
	slices.SortFunc(result, func(a, b models.ProductRevenue) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductName, b.ProductName)
	})

	if len(result) > topProductLimit {
		result = result[:topProductLimit]
	}
	return result
}

func countryRevenue(orders []models.Order) []models.CountryRevenue {
	groups := make(map[string]float64)
	for _, o := range orders {
		groups[o.Country] += o.Revenue
	}

	result := make([]models.CountryRevenue, 0, len(groups))
	for country, revenue := range groups {
		result = append(result, models.CountryRevenue{Country: country, Revenue: revenue})
	}
	slices.SortFunc(result, func(a, b models.CountryRevenue) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})
	return result
}

// Buckets are labeled by month start (YYYY-MM) and sorted chronologically.
func monthlyRevenue(orders []models.Order) models.TimeSeries {
	groups := make(map[string]float64)
	for _, o := range orders {
		groups[o.OrderDate.Format("2006-01")] += o.Revenue
	}

	points := make([]models.MonthlyPoint, 0, len(groups))
	for month, revenue := range groups {
		points = append(points, models.MonthlyPoint{Month: month, Revenue: revenue})
	}
	slices.SortFunc(points, func(a, b models.MonthlyPoint) int {
		return cmp.Compare(a.Month, b.Month)
	})

	return models.TimeSeries{Points: points, NoData: len(orders) == 0}
}

func hourWeekdayRevenue(orders []models.Order) models.Heatmap {
	if len(orders) == 0 {
		return models.Heatmap{
			Hours:    []int{},
			Weekdays: []string{},
			Cells:    [][]float64{{0}},
			NoData:   true,
		}
	}

	type key struct {
		hour    int
		weekday string
	}
	sums := make(map[key]float64)
	hourSet := make(map[int]bool)
	weekdaySet := make(map[string]bool)
	for _, o := range orders {
		sums[key{o.OrderHour, o.OrderWeekday}] += o.Revenue
		hourSet[o.OrderHour] = true
		weekdaySet[o.OrderWeekday] = true
	}

	hours := make([]int, 0, len(hourSet))
	for h := range hourSet {
		hours = append(hours, h)
	}
	slices.Sort(hours)

	weekdays := make([]string, 0, len(weekdaySet))
	for _, wd := range models.Weekdays {
		if weekdaySet[wd] {
			weekdays = append(weekdays, wd)
		}
	}

	cells := make([][]float64, len(hours))
	for i, h := range hours {
		row := make([]float64, len(weekdays))
		for j, wd := range weekdays {
			row[j] = sums[key{h, wd}]
		}
		cells[i] = row
	}

	return models.Heatmap{Hours: hours, Weekdays: weekdays, Cells: cells}
}

func computeKPIs(s Subset) models.KPIs {
	var total float64
	for _, o := range s.Orders {
		total += o.Revenue
	}

	orders := len(s.Orders)
	if s.HasColumn("order_id") {
		orders = distinct(s.Orders, func(o models.Order) string { return o.OrderID })
	}

	var avg float64
	if orders > 0 {
		avg = total / float64(orders)
	}

	var products int
	if s.HasColumn("product_id") {
		products = distinct(s.Orders, func(o models.Order) string { return o.ProductID })
	} else {
		products = distinct(s.Orders, func(o models.Order) string { return o.ProductName })
	}

	return models.KPIs{
		TotalRevenue:   total,
		TotalOrders:    orders,
		AvgOrderValue:  avg,
		UniqueProducts: products,
	}
}

func previewRowsView(s Subset, n int) models.Preview {
	if n <= 0 {
		n = defaultPreviewRows
	}
	n = min(n, len(s.Orders))
	return models.Preview{
		Columns: slices.Clone(s.Columns),
		Rows:    slices.Clone(s.Orders[:n]),
	}
}

func summarize(orders []models.Order) models.Summary {
	summary := models.Summary{
		Rows:      len(orders),
		Countries: distinct(orders, func(o models.Order) string { return o.Country }),
	}
	if minDate, maxDate, ok := dateSpan(orders); ok {
		summary.StartDate = minDate.Format("2006-01-02")
		summary.EndDate = maxDate.Format("2006-01-02")
	}
	return summary
}

func dateSpan(orders []models.Order) (time.Time, time.Time, bool) {
	if len(orders) == 0 {
		return time.Time{}, time.Time{}, false
	}
	minDate, maxDate := orders[0].OrderDate, orders[0].OrderDate
	for _, o := range orders[1:] {
		if o.OrderDate.Before(minDate) {
			minDate = o.OrderDate
		}
		if o.OrderDate.After(maxDate) {
			maxDate = o.OrderDate
		}
	}
	return minDate, maxDate, true
}

func distinct(orders []models.Order, key func(models.Order) string) int {
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		seen[key(o)] = true
	}
	return len(seen)
}
