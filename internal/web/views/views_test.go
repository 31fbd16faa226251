package views

import (
	"bytes"
	"context"
	"testing"

	"admindash/internal/analytics"
	"admindash/internal/backend"
	"admindash/internal/i18n"
	"admindash/internal/model"
	"admindash/internal/users"
	"admindash/internal/util"
	"admindash/internal/web/translate"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layout(t *testing.T) LayoutProps {
	t.Helper()

	tr := i18n.NewTranslator(i18n.EN)
	require.NoError(t, tr.LoadTranslations())

	return LayoutProps{
		Title:      "Test",
		Translator: translate.Translator{Translator: tr, Language: i18n.EN},
		CSRFToken:  "tok",
		Username:   util.Some("admin"),
		Active:     "users",
	}
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Admin", Capitalize("admin"))
	assert.Equal(t, "Ölaf", Capitalize("ölaf"))
	assert.Equal(t, "", Capitalize(""))
}

func TestLayout_HeaderOnlyWhenSignedIn(t *testing.T) {
	props := layout(t)
	out := render(t, LoginPage(LoginPageProps{Layout: props}))
	assert.Contains(t, out, "Welcome, Admin")
	assert.Contains(t, out, `action="/logout"`)

	props.Username = util.None[string]()
	out = render(t, LoginPage(LoginPageProps{Layout: props, Error: "Invalid username or password"}))
	assert.NotContains(t, out, "Welcome")
	assert.Contains(t, out, "Invalid username or password")
	assert.Contains(t, out, "admin / admin")
}

func TestUsersPage_EscapesAndPaginates(t *testing.T) {
	state := users.State{
		FilteredUsers: backend.SeedUsers(),
		SearchTerm:    `<script>`,
		CurrentPage:   2,
		TotalPages:    3,
		DeletedCount:  1,
	}

	out := render(t, UsersPage(UsersPageProps{Layout: layout(t), State: state}))

	assert.NotContains(t, out, `value="<script>"`)
	assert.Contains(t, out, `&lt;script&gt;`)
	assert.Contains(t, out, `id="user-6"`)
	assert.NotContains(t, out, `id="user-5"`)
	assert.Contains(t, out, "Page 2 of 3")
	assert.Contains(t, out, "Deleted this session: 1")
	assert.Contains(t, out, `name="csrf_token" value="tok"`)
	assert.Contains(t, out, `href="/dashboard/users?page=1"`)
	assert.Contains(t, out, `href="/dashboard/users?page=3"`)
}

func TestUsersPage_Empty(t *testing.T) {
	out := render(t, UsersPage(UsersPageProps{Layout: layout(t), State: users.State{CurrentPage: 1}}))

	assert.Contains(t, out, "No users found")
	assert.NotContains(t, out, "<table>")
}

func TestUserDetailPage(t *testing.T) {
	u := model.User{ID: 3, Name: "Jane", Email: "jane@example.com", Status: model.UserStatusInactive, Region: "Europe", RegistrationDate: "2024-01-02"}

	out := render(t, UserDetailPage(UserDetailPageProps{Layout: layout(t), User: u}))

	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "Inactive")
}

func TestAnalyticsPage(t *testing.T) {
	snapshot := backend.SeedAnalytics()
	state := analytics.State{
		AnalyticsSnapshot: snapshot,
		SelectedRegion:    util.Some("Europe"),
	}

	out := render(t, AnalyticsPage(AnalyticsPageProps{
		Layout:  layout(t),
		State:   state,
		Regions: analytics.Regions(snapshot.UsersByRegion),
		Rows:    analytics.RegionBreakdown(snapshot.UsersByRegion, state.SelectedRegion),
		Start:   "2024-01-01",
		End:     "2024-06-30",
	}))

	assert.Contains(t, out, `<option value="Europe" selected>`)
	assert.Contains(t, out, `value="2024-01-01"`)
	assert.Contains(t, out, "<td>Europe</td><td>300")
	assert.Contains(t, out, "<td>250</td>")
	assert.Contains(t, out, "1000")
}
