package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"admindash/internal/analytics"
	"admindash/internal/audit"
	"admindash/internal/auth"
	"admindash/internal/backend"
	"admindash/internal/config"
	"admindash/internal/i18n"
	"admindash/internal/logger"
	"admindash/internal/metrics"
	"admindash/internal/ratelimit"
	"admindash/internal/store"
	"admindash/internal/users"
	"admindash/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUsername = "admin"
	testPassword = "s3cret-pass"
)

type testApp struct {
	app     *fiber.App
	users   *users.Store
	metrics *metrics.Registry
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T, configure func(*config.Config, *Dependencies)) *testApp {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Security.CSRFEnabled = false
	cfg.Backend.Latency = 0

	log := logger.Discard()
	hash, err := backend.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	mock := backend.NewMock(log, backend.MockOptions{}, backend.Credentials{Username: testUsername, PasswordHash: hash})

	reg := metrics.NewRegistry()
	recorder := store.Recorders{reg}
	translator := i18n.NewTranslator(i18n.EN)
	require.NoError(t, translator.LoadTranslations())
	sessionStore, _ := NewSessionStore(cfg.Session)
	auditor := audit.NewAuditor(log)

	deps := Dependencies{
		Logger:       log,
		Translator:   translator,
		SessionStore: sessionStore,
		Sessions:     auth.NewSessions(log, mock, recorder),
		Users:        users.NewStore(log, mock, recorder),
		Analytics:    analytics.NewStore(log, mock, recorder, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)),
		Validator:    validator.New(),
		Limiter:      ratelimit.NewMemoryLimiter(cfg.Security.MaxLoginAttempts, cfg.Security.BlockDuration),
		Auditor:      &auditor,
		Metrics:      reg,
	}
	if configure != nil {
		configure(&cfg, &deps)
	}

	return &testApp{
		app:     NewApp(cfg, deps),
		users:   deps.Users,
		metrics: reg,
		cookies: make(map[string]*http.Cookie),
	}
}

// do sends req with the cookies collected so far and keeps the ones the
// response sets, like a browser would.
func (a *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(a.cookies, c.Name)
			continue
		}
		a.cookies[c.Name] = c
	}
	return resp
}

func (a *testApp) get(t *testing.T, target string) *http.Response {
	t.Helper()
	return a.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (a *testApp) postForm(t *testing.T, target string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return a.do(t, req)
}

func (a *testApp) login(t *testing.T) {
	t.Helper()
	resp := a.postForm(t, "/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.get(t, "/api/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}

func TestDashboard_RedirectsAnonymousToLogin(t *testing.T) {
	a := newTestApp(t, nil)

	for _, target := range []string{"/dashboard", "/dashboard/users", "/dashboard/analytics"} {
		resp := a.get(t, target)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, target)
		assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation), target)
	}
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.get(t, "/api/users")

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, http.StatusUnauthorized, body.Error.Code)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Status)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.postForm(t, "/login", url.Values{"username": {testUsername}, "password": {"nope"}})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Invalid username or password")

	resp = a.get(t, "/dashboard/users")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogin_ValidatesForm(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.postForm(t, "/login", url.Values{"username": {"bad name!"}, "password": {"x"}})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginLogoutFlow(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.get(t, "/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	a.login(t)

	resp = a.get(t, "/login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "signed-in users skip the login page")

	resp = a.get(t, "/dashboard/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "John Doe")
	assert.Contains(t, body, "Welcome, Admin")
	assert.NotContains(t, body, "Emily Davis", "only the first page is rendered")

	resp = a.postForm(t, "/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	resp = a.get(t, "/dashboard/users")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogin_RateLimited(t *testing.T) {
	a := newTestApp(t, func(_ *config.Config, deps *Dependencies) {
		deps.Limiter = ratelimit.NewMemoryLimiter(2, time.Minute)
	})

	wrong := url.Values{"username": {testUsername}, "password": {"nope"}}
	assert.Equal(t, http.StatusUnauthorized, a.postForm(t, "/login", wrong).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, a.postForm(t, "/login", wrong).StatusCode)

	resp := a.postForm(t, "/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestUsersPage_SearchAndPaginate(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/dashboard/users?page=3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Kevin Chen")

	resp = a.get(t, "/dashboard/users?q=EMILY")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Emily Davis")
	assert.NotContains(t, body, "John Doe")

	state := a.users.Snapshot()
	assert.Equal(t, 1, state.CurrentPage)
	assert.Equal(t, 1, state.TotalPages)
}

func TestUsersPage_RejectsBadPage(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/dashboard/users?page=-1")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserDetail(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/dashboard/users/2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "jane@example.com")

	resp = a.get(t, "/dashboard/users/99")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteUser_Page(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)
	require.Equal(t, http.StatusOK, a.get(t, "/dashboard/users").StatusCode)

	resp := a.postForm(t, "/dashboard/users/1/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/users", resp.Header.Get(fiber.HeaderLocation))

	state := a.users.Snapshot()
	assert.Len(t, state.Users, 14)
	assert.Equal(t, 1, state.DeletedCount)

	// deletions survive page loads until an explicit refresh
	resp = a.get(t, "/dashboard/users")
	assert.NotContains(t, readBody(t, resp), "John Doe")

	resp = a.postForm(t, "/dashboard/users/refresh", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Len(t, a.users.Snapshot().Users, 15)
}

func TestAPI_Users(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/api/users?page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		State users.State `json:"state"`
		Page  []struct {
			ID int `json:"id"`
		} `json:"page"`
	}
	decodeJSON(t, resp, &list)
	assert.Equal(t, 2, list.State.CurrentPage)
	assert.Equal(t, 3, list.State.TotalPages)
	require.Len(t, list.Page, 5)
	assert.Equal(t, 6, list.Page[0].ID)

	resp = a.do(t, httptest.NewRequest(http.MethodDelete, "/api/users/6", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"deleted":true,"deletedCount":1}`, readBody(t, resp))

	resp = a.do(t, httptest.NewRequest(http.MethodDelete, "/api/users/6", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, a.users.Snapshot().DeletedCount)

	resp = a.get(t, "/api/users/6")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.get(t, "/api/users/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RejectsNonJSONAccept(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set(fiber.HeaderAccept, "text/xml")

	resp := a.do(t, req)
	assert.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
}

func TestAnalyticsPage(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/dashboard/analytics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "1000")
	assert.Contains(t, body, "North America")
}

func TestAnalyticsPage_RejectsReversedRange(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/dashboard/analytics?start=2024-05-01&end=2024-01-01")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "end date must not be before the start date")
	assert.Contains(t, body, "2024-05-01", "the rejected input is echoed back")
}

func TestAPI_Analytics(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/api/analytics?start=2024-01-01&end=2024-03-31")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state analytics.State
	decodeJSON(t, resp, &state)
	assert.Equal(t, 1000, state.TotalUsers)
	assert.Equal(t, "2024-01-01", state.DateRange.Start.Format(validator.DateLayout))
	assert.False(t, state.Stale())

	resp = a.get(t, "/api/analytics?start=2024-03-31&end=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Regions(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)

	resp := a.get(t, "/api/analytics/regions?region=Europe")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Items   []analytics.RegionRow `json:"items"`
		Regions []string              `json:"regions"`
	}
	decodeJSON(t, resp, &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Europe", body.Items[0].Region)
	assert.Equal(t, 300, body.Items[0].Count)
	assert.InDelta(t, 250.0, body.Items[0].Average, 1e-9)
	assert.Len(t, body.Regions, 4)
}

func TestSetLanguage(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.get(t, "/lang/nl")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = a.get(t, "/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Inloggen")
}

func TestNotFound(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Page not found")

	a.login(t)
	resp = a.get(t, "/api/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"status":"NOT_FOUND"`)
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config, _ *Dependencies) {
		cfg.Security.CSRFEnabled = true
	})

	resp := a.get(t, "/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `name="csrf_token"`)

	resp = a.postForm(t, "/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, nil)
	a.login(t)
	a.get(t, "/dashboard/users")

	resp := a.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "admindash_http_requests_total")
	assert.Contains(t, body, `admindash_logins_total{result="success"} 1`)
	assert.Contains(t, body, `admindash_store_fetches_total{outcome="fulfilled",store="users"} 1`)
}
