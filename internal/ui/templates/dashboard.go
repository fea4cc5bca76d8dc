package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

// DashboardData seeds the shell with the selectable options and the default
// date span; everything else streams in over SSE.
type DashboardData struct {
	Countries         []string
	Categories        []string
	DefaultCountries  []string
	StartDate         string
	EndDate           string
}

var shellTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Sales Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<link rel="stylesheet" href="/assets/custom.css"/>
</head>
<body data-signals='{"countries": {{.DefaultCountriesJSON}}, "categories": [], "start": "{{.StartDate}}", "end": "{{.EndDate}}", "previewRows": 10, "resetFired": false, "exportFired": false}'
      data-on-load="@get('/sse/views')">
<header>
<h1>Sales Dashboard</h1>
<p>Filter and explore the sales dataset.</p>
</header>
<aside class="sidebar">
<h2>Filters</h2>
<label for="country-select">Country</label>
<select id="country-select" multiple data-bind-countries data-on-change="@get('/sse/views')">
{{range .Countries}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
<label for="category-select">Category</label>
<select id="category-select" multiple data-bind-categories data-on-change="@get('/sse/views')">
{{range .Categories}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
<label for="start-date">Start date</label>
<input id="start-date" type="date" data-bind-start data-on-change="@get('/sse/views')"/>
<label for="end-date">End date</label>
<input id="end-date" type="date" data-bind-end data-on-change="@get('/sse/views')"/>
<label for="preview-rows">Preview rows</label>
<input id="preview-rows" type="number" min="1" max="200" data-bind-preview-rows data-on-change="@get('/sse/views')"/>
<button data-on-click="$resetFired = true; @get('/sse/reset'); @get('/sse/views')">Reset Filters</button>
<button data-on-click="$exportFired = true; @get('/sse/export')">Download CSV</button>
</aside>
<main>
<div id="kpi-content"></div>
<section class="charts">
<div id="top-products-chart" data-text="JSON.stringify($views.top_products)"></div>
<div id="country-revenue-chart" data-text="JSON.stringify($views.country_revenue)"></div>
<div id="monthly-revenue-chart" data-text="JSON.stringify($views.monthly_revenue)"></div>
<div id="heatmap-chart" data-text="JSON.stringify($views.hour_weekday_revenue)"></div>
</section>
<div id="preview-content"></div>
<div id="export-content"></div>
</main>
</body>
</html>`))

type shellData struct {
	DashboardData
	DefaultCountriesJSON template.JS
}

// Dashboard renders the dashboard shell. The generated markup only seeds
// signals and wires the SSE endpoints; all views arrive as patches.
func Dashboard(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return shellTemplate.Execute(w, shellData{
			DashboardData:        data,
			DefaultCountriesJSON: countriesJSON(data.DefaultCountries),
		})
	})
}

func countriesJSON(countries []string) template.JS {
	out := `[`
	for i, c := range countries {
		if i > 0 {
			out += `, `
		}
		out += `"` + template.JSEscapeString(c) + `"`
	}
	return template.JS(out + `]`)
}
