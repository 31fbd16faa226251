package views

import (
	"context"
	"io"

	"admindash/internal/analytics"

	"github.com/a-h/templ"
)

type AnalyticsPageProps struct {
	Layout  LayoutProps
	State   analytics.State
	Regions []string
	Rows    []analytics.RegionRow
	// Start and End echo the form input, which may differ from the stored
	// range when it was rejected.
	Start  string
	End    string
	Notice string
}

func AnalyticsPage(props AnalyticsPageProps) templ.Component {
	return Layout(props.Layout, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t := props.Layout.Translator
		state := props.State
		hw := newWriter(w)

		hw.raw(`<h1>`)
		hw.text(t.T("analytics.title"))
		hw.raw(`</h1>`)

		analyticsFilters(hw, props)

		hw.alert("error", props.Notice)
		hw.alert("error", state.Error)
		if state.Loading {
			hw.alert("info", t.T("analytics.loading"))
		} else if state.Stale() && state.FetchedWith.IsSet {
			hw.alert("info", t.T("analytics.stale"))
		}

		hw.raw(`<div class="cards">`)
		card(hw, t.T("analytics.total_users"), state.TotalUsers)
		card(hw, t.T("analytics.active_users"), state.ActiveUsers)
		card(hw, t.T("analytics.deleted_users"), state.DeletedUsers)
		hw.raw(`</div>`)

		trend(hw, props)
		byStatus(hw, props)
		byRegion(hw, props)

		return hw.err
	}))
}

func analyticsFilters(hw *htmlWriter, props AnalyticsPageProps) {
	t := props.Layout.Translator
	selected := props.State.SelectedRegion

	hw.raw(`<form method="get" action="/dashboard/analytics" class="filters"><label>`)
	hw.text(t.T("analytics.start"))
	hw.raw(` <input type="date" name="start" value="`)
	hw.text(props.Start)
	hw.raw(`"></label><label>`)
	hw.text(t.T("analytics.end"))
	hw.raw(` <input type="date" name="end" value="`)
	hw.text(props.End)
	hw.raw(`"></label><label>`)
	hw.text(t.T("analytics.region"))
	hw.raw(` <select name="region"><option value="">`)
	hw.text(t.T("analytics.all_regions"))
	hw.raw(`</option>`)
	for _, region := range props.Regions {
		hw.raw(`<option value="`)
		hw.text(region)
		hw.raw(`"`)
		if selected.IsSet && selected.Val == region {
			hw.raw(` selected`)
		}
		hw.raw(`>`)
		hw.text(region)
		hw.raw(`</option>`)
	}
	hw.raw(`</select></label><button type="submit">`)
	hw.text(t.T("analytics.apply"))
	hw.raw(`</button></form>`)

	hw.raw(`<form class="inline" method="post" action="/dashboard/analytics/refresh">`)
	hw.csrfField(props.Layout.CSRFToken)
	hw.raw(`<button type="submit">`)
	hw.text(t.T("analytics.refresh"))
	hw.raw(`</button></form>`)
}

func card(hw *htmlWriter, label string, value int) {
	hw.raw(`<div class="card"><div class="label">`)
	hw.text(label)
	hw.raw(`</div><div class="value">`)
	hw.int(value)
	hw.raw(`</div></div>`)
}

func trend(hw *htmlWriter, props AnalyticsPageProps) {
	t := props.Layout.Translator
	points := props.State.RegistrationTrend

	hw.raw(`<section class="trend"><h2>`)
	hw.text(t.T("analytics.trend"))
	hw.raw(`</h2>`)
	if len(points) == 0 {
		noData(hw, props)
		hw.raw(`</section>`)
		return
	}

	peak := 0
	for _, p := range points {
		peak = max(peak, p.Count)
	}

	hw.raw(`<table><tbody>`)
	for _, p := range points {
		hw.raw(`<tr><td>`)
		hw.text(p.Date)
		hw.raw(`</td><td>`)
		hw.int(p.Count)
		hw.raw(`</td><td><div class="bar" style="width:`, pct(p.Count, peak), `%"></div></td></tr>`)
	}
	hw.raw(`</tbody></table></section>`)
}

func byStatus(hw *htmlWriter, props AnalyticsPageProps) {
	t := props.Layout.Translator
	statuses := props.State.UsersByStatus

	hw.raw(`<section class="by-status"><h2>`)
	hw.text(t.T("analytics.by_status"))
	hw.raw(`</h2>`)
	if len(statuses) == 0 {
		noData(hw, props)
		hw.raw(`</section>`)
		return
	}

	hw.raw(`<table><tbody>`)
	for _, s := range statuses {
		hw.raw(`<tr><td>`)
		statusBadge(hw, props.Layout, s.Status)
		hw.raw(`</td><td>`)
		hw.int(s.Count)
		hw.raw(`</td></tr>`)
	}
	hw.raw(`</tbody></table></section>`)
}

func byRegion(hw *htmlWriter, props AnalyticsPageProps) {
	t := props.Layout.Translator

	hw.raw(`<section class="by-region"><h2>`)
	hw.text(t.T("analytics.by_region"))
	hw.raw(`</h2>`)
	if len(props.Rows) == 0 {
		noData(hw, props)
		hw.raw(`</section>`)
		return
	}

	peak := 0
	for _, r := range props.Rows {
		peak = max(peak, r.Count)
	}

	hw.raw(`<table><thead><tr><th>`)
	hw.text(t.T("analytics.region"))
	hw.raw(`</th><th></th><th>`)
	hw.text(t.T("analytics.average"))
	hw.raw(`</th></tr></thead><tbody>`)
	for _, r := range props.Rows {
		hw.raw(`<tr><td>`)
		hw.text(r.Region)
		hw.raw(`</td><td>`)
		hw.int(r.Count)
		hw.raw(` <div class="bar" style="width:`, pct(r.Count, peak), `%"></div></td><td>`)
		hw.raw(formatFloat(r.Average))
		hw.raw(`</td></tr>`)
	}
	hw.raw(`</tbody></table></section>`)
}

func noData(hw *htmlWriter, props AnalyticsPageProps) {
	hw.raw(`<p class="empty">`)
	hw.text(props.Layout.Translator.T("analytics.no_data"))
	hw.raw(`</p>`)
}
