package views

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"admindash/internal/model"
	"admindash/internal/users"

	"github.com/a-h/templ"
)

type UsersPageProps struct {
	Layout LayoutProps
	State  users.State
	// Notice is a validation message for rejected query input.
	Notice string
}

func UsersPage(props UsersPageProps) templ.Component {
	return Layout(props.Layout, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t := props.Layout.Translator
		state := props.State
		hw := newWriter(w)

		hw.raw(`<h1>`)
		hw.text(t.T("users.title"))
		hw.raw(`</h1>`)

		hw.raw(`<form method="get" action="/dashboard/users" class="search"><input type="search" name="q" placeholder="`)
		hw.text(t.T("users.search"))
		hw.raw(`" value="`)
		hw.text(state.SearchTerm)
		hw.raw(`"><button type="submit">`)
		hw.text(t.T("users.search_submit"))
		hw.raw(`</button></form>`)

		hw.raw(`<form class="inline" method="post" action="/dashboard/users/refresh">`)
		hw.csrfField(props.Layout.CSRFToken)
		hw.raw(`<button type="submit">`)
		hw.text(t.T("users.refresh"))
		hw.raw(`</button></form> <span class="deleted-count">`)
		hw.text(t.Tf("users.deleted_count", state.DeletedCount))
		hw.raw(`</span>`)

		hw.alert("error", props.Notice)
		hw.alert("error", state.Error)
		if state.Loading {
			hw.alert("info", t.T("users.loading"))
		}

		rows := state.Page()
		if len(rows) == 0 {
			hw.raw(`<p class="empty">`)
			hw.text(t.T("users.empty"))
			hw.raw(`</p>`)
		} else {
			usersTable(hw, props, rows)
		}

		pagination(hw, props)

		return hw.err
	}))
}

func usersTable(hw *htmlWriter, props UsersPageProps, rows []model.User) {
	t := props.Layout.Translator

	hw.raw(`<table><thead><tr>`)
	for _, key := range []string{"users.col.id", "users.col.name", "users.col.email", "users.col.status", "users.col.region", "users.col.registered", "users.col.actions"} {
		hw.raw(`<th>`)
		hw.text(t.T(key))
		hw.raw(`</th>`)
	}
	hw.raw(`</tr></thead><tbody>`)

	for _, u := range rows {
		id := strconv.Itoa(u.ID)
		hw.raw(`<tr id="user-`, id, `"><td>`, id, `</td><td>`)
		hw.text(u.Name)
		hw.raw(`</td><td>`)
		hw.text(u.Email)
		hw.raw(`</td><td>`)
		statusBadge(hw, props.Layout, u.Status)
		hw.raw(`</td><td>`)
		hw.text(u.Region)
		hw.raw(`</td><td>`)
		hw.text(u.RegistrationDate)
		hw.raw(`</td><td><a href="/dashboard/users/`, id, `">`)
		hw.text(t.T("users.view"))
		hw.raw(`</a> <form class="inline" method="post" action="/dashboard/users/`, id, `/delete">`)
		hw.csrfField(props.Layout.CSRFToken)
		hw.raw(`<button type="submit">`)
		hw.text(t.T("users.delete"))
		hw.raw(`</button></form></td></tr>`)
	}

	hw.raw(`</tbody></table>`)
}

func pagination(hw *htmlWriter, props UsersPageProps) {
	state := props.State
	if state.TotalPages <= 1 {
		return
	}
	t := props.Layout.Translator

	hw.raw(`<nav class="pagination">`)
	if state.CurrentPage > 1 {
		pageLink(hw, state.CurrentPage-1, t.T("users.previous"))
	}
	hw.raw(` <span>`)
	hw.text(t.Tf("users.page", state.CurrentPage, state.TotalPages))
	hw.raw(`</span> `)
	if state.CurrentPage < state.TotalPages {
		pageLink(hw, state.CurrentPage+1, t.T("users.next"))
	}
	hw.raw(`</nav>`)
}

func pageLink(hw *htmlWriter, page int, label string) {
	q := url.Values{"page": {strconv.Itoa(page)}}
	hw.raw(`<a href="/dashboard/users?`, templ.EscapeString(q.Encode()), `">`)
	hw.text(label)
	hw.raw(`</a>`)
}

func statusBadge(hw *htmlWriter, layout LayoutProps, status model.UserStatus) {
	hw.raw(`<span class="badge-`, templ.EscapeString(string(status)), `">`)
	hw.text(layout.Translator.T("status." + string(status)))
	hw.raw(`</span>`)
}

type UserDetailPageProps struct {
	Layout LayoutProps
	User   model.User
}

func UserDetailPage(props UserDetailPageProps) templ.Component {
	return Layout(props.Layout, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t := props.Layout.Translator
		u := props.User
		hw := newWriter(w)

		hw.raw(`<section class="card user-details"><h1>`)
		hw.text(t.T("users.details"))
		hw.raw(`</h1><dl>`)

		field := func(key, value string) {
			hw.raw(`<dt>`)
			hw.text(t.T(key))
			hw.raw(`</dt><dd>`)
			hw.text(value)
			hw.raw(`</dd>`)
		}
		field("users.col.id", strconv.Itoa(u.ID))
		field("users.col.name", u.Name)
		field("users.col.email", u.Email)
		hw.raw(`<dt>`)
		hw.text(t.T("users.col.status"))
		hw.raw(`</dt><dd>`)
		statusBadge(hw, props.Layout, u.Status)
		hw.raw(`</dd>`)
		field("users.col.region", u.Region)
		field("users.col.registered", u.RegistrationDate)

		hw.raw(`</dl><a href="/dashboard/users">`)
		hw.text(t.T("users.back"))
		hw.raw(`</a></section>`)

		return hw.err
	}))
}
