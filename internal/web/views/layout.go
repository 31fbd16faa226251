package views

import (
	"context"
	"io"

	"admindash/internal/util"
	"admindash/internal/web/translate"

	"github.com/a-h/templ"
)

type LayoutProps struct {
	Title      string
	Translator translate.Translator
	CSRFToken  string
	Username   util.Optional[string]
	// Active is the highlighted navigation entry: "users" or "analytics".
	Active string
}

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2328}
header{display:flex;justify-content:space-between;align-items:center;padding:.75rem 1.5rem;background:#24292f;color:#fff}
header a{color:#fff;margin-right:1rem;text-decoration:none}header a.active{font-weight:700;text-decoration:underline}
main{max-width:1100px;margin:1.5rem auto;padding:0 1rem}
table{width:100%;border-collapse:collapse;background:#fff}th,td{padding:.5rem;border-bottom:1px solid #d0d7de;text-align:left}
.alert{padding:.75rem;margin:1rem 0;border-radius:4px}.alert-error{background:#ffebe9;color:#82071e}.alert-info{background:#ddf4ff}
.cards{display:flex;gap:1rem}.card{flex:1;background:#fff;padding:1rem;border-radius:6px}
.bar{background:#0969da;height:.75rem}.badge-active{color:#1a7f37}.badge-inactive{color:#6e7781}
form.inline{display:inline}.pagination{margin-top:1rem}`

func Layout(props LayoutProps, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t := props.Translator
		hw := newWriter(w)

		hw.raw(`<!DOCTYPE html><html lang="`, templ.EscapeString(props.Translator.Language.String()), `"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		hw.text(props.Title)
		hw.raw(` | `)
		hw.text(t.T("app.title"))
		hw.raw(`</title><style>`, styles, `</style></head><body>`)

		if props.Username.IsSet {
			hw.raw(`<header><nav>`)
			navLink(hw, "/dashboard/users", t.T("nav.users"), props.Active == "users")
			navLink(hw, "/dashboard/analytics", t.T("nav.analytics"), props.Active == "analytics")
			hw.raw(`</nav><div><span class="welcome">`)
			hw.text(t.Tf("header.welcome", Capitalize(props.Username.Val)))
			hw.raw(`</span> <form class="inline" method="post" action="/logout">`)
			hw.csrfField(props.CSRFToken)
			hw.raw(`<button type="submit">`)
			hw.text(t.T("nav.logout"))
			hw.raw(`</button></form></div></header>`)
		}

		hw.raw(`<main>`)
		if hw.err != nil {
			return hw.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		hw.raw(`</main></body></html>`)
		return hw.err
	})
}

func navLink(hw *htmlWriter, href, label string, active bool) {
	hw.raw(`<a href="`, href, `"`)
	if active {
		hw.raw(` class="active" aria-current="page"`)
	}
	hw.raw(`>`)
	hw.text(label)
	hw.raw(`</a>`)
}
