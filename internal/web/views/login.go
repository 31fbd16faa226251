package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

type LoginPageProps struct {
	Layout   LayoutProps
	Username string
	Error    string
}

func LoginPage(props LoginPageProps) templ.Component {
	return Layout(props.Layout, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t := props.Layout.Translator
		hw := newWriter(w)

		hw.raw(`<section class="card login"><h1>`)
		hw.text(t.T("login.title"))
		hw.raw(`</h1>`)
		hw.alert("error", props.Error)

		hw.raw(`<form method="post" action="/login">`)
		hw.csrfField(props.Layout.CSRFToken)
		hw.raw(`<label>`)
		hw.text(t.T("login.username"))
		hw.raw(` <input type="text" name="username" autocomplete="username" required value="`)
		hw.text(props.Username)
		hw.raw(`"></label><label>`)
		hw.text(t.T("login.password"))
		hw.raw(` <input type="password" name="password" autocomplete="current-password" required></label>`)
		hw.raw(`<button type="submit">`)
		hw.text(t.T("login.submit"))
		hw.raw(`</button></form><p class="hint">`)
		hw.text(t.T("login.hint"))
		hw.raw(`</p></section>`)

		return hw.err
	}))
}
