package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

type ErrorPageProps struct {
	Layout  LayoutProps
	Code    int
	Message string
}

func ErrorPage(props ErrorPageProps) templ.Component {
	return Layout(props.Layout, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := newWriter(w)

		hw.raw(`<section class="card"><h1>`)
		hw.int(props.Code)
		hw.raw(`</h1><p>`)
		hw.text(props.Message)
		hw.raw(`</p><a href="/dashboard">`)
		hw.text(props.Layout.Translator.T("app.title"))
		hw.raw(`</a></section>`)

		return hw.err
	}))
}
