package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"admindash/internal/analytics"
	"admindash/internal/audit"
	"admindash/internal/auth"
	"admindash/internal/i18n"
	"admindash/internal/middleware"
	"admindash/internal/ratelimit"
	"admindash/internal/store"
	"admindash/internal/telemetry"
	"admindash/internal/users"
	"admindash/internal/util"
	"admindash/internal/validator"
	"admindash/internal/web/translate"
	"admindash/internal/web/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// LoginRecorder is told about every login attempt that reached the
// credential check.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, username string, success bool)
}

type LoginRecorders []LoginRecorder

func (r LoginRecorders) RecordLogin(ctx context.Context, username string, success bool) {
	for _, rec := range r {
		rec.RecordLogin(ctx, username, success)
	}
}

type PageHandler struct {
	Logger       *slog.Logger
	Translator   *i18n.Translator
	SessionStore *session.Store
	Sessions     *auth.Sessions
	Users        *users.Store
	Analytics    *analytics.Store
	Validator    *validator.Validator
	Limiter      ratelimit.Limiter
	Auditor      *audit.Auditor
	Logins       LoginRecorder
}

func (h *PageHandler) translator(c *fiber.Ctx) translate.Translator {
	return translate.Translator{Translator: h.Translator, Language: middleware.GetLang(c)}
}

func (h *PageHandler) layoutProps(c *fiber.Ctx, titleKey, active string) views.LayoutProps {
	t := h.translator(c)
	return views.LayoutProps{
		Title:      t.T(titleKey),
		Translator: t,
		CSRFToken:  csrfToken(c),
		Username:   util.OptionalString(currentUsername(c)),
		Active:     active,
	}
}

func (h *PageHandler) Home(c *fiber.Ctx) error {
	return c.Redirect("/dashboard", fiber.StatusFound)
}

func (h *PageHandler) Dashboard(c *fiber.Ctx) error {
	return c.Redirect("/dashboard/users", fiber.StatusFound)
}

func (h *PageHandler) ShowLoginPage(c *fiber.Ctx) error {
	if isAuthenticated(c) {
		return c.Redirect("/dashboard", fiber.StatusSeeOther)
	}

	var lastError string
	if s := authStore(c); s != nil {
		lastError = s.Snapshot().Error
	}
	return h.renderLogin(c, fiber.StatusOK, "", lastError)
}

func (h *PageHandler) renderLogin(c *fiber.Ctx, status int, username, message string) error {
	return render(c, status, views.LoginPage(views.LoginPageProps{
		Layout:   h.layoutProps(c, "login.title", ""),
		Username: username,
		Error:    message,
	}))
}

func (h *PageHandler) Login(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)

	var req validator.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderLogin(c, fiber.StatusBadRequest, "", "Invalid login form")
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.Validator.Validate(req); err != nil {
		return h.renderLogin(c, fiber.StatusBadRequest, req.Username, validationMessage(err))
	}

	limiterKey := loginLimiterKey(req.Username, c.IP())
	if err := h.Limiter.Check(ctx, limiterKey); err != nil {
		if errors.Is(err, ratelimit.ErrTooManyAttempts) {
			h.Logger.WarnContext(ctx, "Login rate limited", "username", req.Username, "ip", c.IP())
			return h.renderLogin(c, fiber.StatusTooManyRequests, req.Username, "Too many login attempts, please try again later")
		}
		// an unavailable limiter must not lock everyone out
		h.Logger.ErrorContext(ctx, "Login limiter unavailable", "error", err)
	}

	authState := authStore(c)
	if err := authState.Login(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, store.ErrSuperseded) {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		h.Logins.RecordLogin(ctx, req.Username, false)
		h.Auditor.LogEvent(ctx, audit.LogEventParam{
			Actor: req.Username,
			Type:  audit.AuditLogEventTypeUserLoginFailed,
			Data:  map[string]any{"ip": c.IP()},
		})

		status := fiber.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			status = fiber.StatusServiceUnavailable
		}
		return h.renderLogin(c, status, req.Username, authState.Snapshot().Error)
	}

	// the cleanup task may have dropped this store while the login was pending
	h.Sessions.Put(clientID(c), authState)

	if err := h.Limiter.Reset(ctx, limiterKey); err != nil {
		h.Logger.WarnContext(ctx, "Failed to reset login attempts", "error", err)
	}

	// a new session id on sign-in; the client id and its auth state move with it
	sess, err := h.SessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	h.Logins.RecordLogin(ctx, req.Username, true)
	h.Auditor.LogEvent(ctx, audit.LogEventParam{
		Actor: req.Username,
		Type:  audit.AuditLogEventTypeUserLogin,
		Data:  map[string]any{"ip": c.IP()},
	})

	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

func (h *PageHandler) Logout(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)
	username := currentUsername(c)

	if s := authStore(c); s != nil {
		s.Logout(ctx)
	}
	h.Sessions.Remove(clientID(c))

	sess, err := h.SessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	if username != "" {
		h.Auditor.LogEvent(ctx, audit.LogEventParam{Actor: username, Type: audit.AuditLogEventTypeUserLogout})
	}

	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (h *PageHandler) ShowUsers(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)

	status := fiber.StatusOK
	var notice string
	if err := applyUsersQuery(c, h.Validator, h.Users); err != nil {
		status = fiber.StatusBadRequest
		notice = validationMessage(err)
	}

	state := ensureUsersLoaded(ctx, h.Users, h.Logger)

	return render(c, status, views.UsersPage(views.UsersPageProps{
		Layout: h.layoutProps(c, "users.title", "users"),
		State:  state,
		Notice: notice,
	}))
}

func (h *PageHandler) ShowUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}

	ensureUsersLoaded(telemetry.ContextFromFiber(c), h.Users, h.Logger)

	user, ok := h.Users.Find(id)
	if !ok {
		return render(c, fiber.StatusNotFound, views.ErrorPage(views.ErrorPageProps{
			Layout:  h.layoutProps(c, "users.details", "users"),
			Code:    fiber.StatusNotFound,
			Message: h.translator(c).T("users.not_found"),
		}))
	}

	return render(c, fiber.StatusOK, views.UserDetailPage(views.UserDetailPageProps{
		Layout: h.layoutProps(c, "users.details", "users"),
		User:   user,
	}))
}

func (h *PageHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}

	ctx := telemetry.ContextFromFiber(c)
	if h.Users.Delete(ctx, id) {
		h.Auditor.LogEvent(ctx, audit.LogEventParam{
			Actor: currentUsername(c),
			Type:  audit.AuditLogEventTypeUserDelete,
			Data:  map[string]any{"user_id": id},
		})
	}

	return c.Redirect("/dashboard/users", fiber.StatusSeeOther)
}

func (h *PageHandler) RefreshUsers(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)

	if err := h.Users.Fetch(ctx); err != nil && !errors.Is(err, store.ErrSuperseded) {
		h.Logger.WarnContext(ctx, "Users refresh failed", "error", err)
	}
	h.Auditor.LogEvent(ctx, audit.LogEventParam{Actor: currentUsername(c), Type: audit.AuditLogEventTypeUsersRefresh})

	return c.Redirect("/dashboard/users", fiber.StatusSeeOther)
}

func (h *PageHandler) ShowAnalytics(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)

	status := fiber.StatusOK
	var notice string
	form, err := applyAnalyticsQuery(c, h.Validator, h.Analytics)
	if err != nil {
		status = fiber.StatusBadRequest
		notice = validationMessage(err)
	}

	state := ensureAnalyticsFresh(ctx, h.Analytics, h.Logger)

	return render(c, status, views.AnalyticsPage(views.AnalyticsPageProps{
		Layout:  h.layoutProps(c, "analytics.title", "analytics"),
		State:   state,
		Regions: analytics.Regions(state.UsersByRegion),
		Rows:    analytics.RegionBreakdown(state.UsersByRegion, state.SelectedRegion),
		Start:   form.Start,
		End:     form.End,
		Notice:  notice,
	}))
}

func (h *PageHandler) RefreshAnalytics(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)

	query := h.Analytics.Snapshot().Query()
	if err := h.Analytics.Fetch(ctx, query); err != nil && !errors.Is(err, store.ErrSuperseded) {
		h.Logger.WarnContext(ctx, "Analytics refresh failed", "error", err)
	}
	h.Auditor.LogEvent(ctx, audit.LogEventParam{Actor: currentUsername(c), Type: audit.AuditLogEventTypeAnalyticsRefresh})

	return c.Redirect("/dashboard/analytics", fiber.StatusSeeOther)
}

// SetLanguage stores the chosen language and sends the browser back.
func (h *PageHandler) SetLanguage(c *fiber.Ctx) error {
	lang, err := i18n.ParseLanguage(c.Params("lang"))
	if err == nil {
		sess, err := h.SessionStore.Get(c)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		sess.Set(middleware.SessionKeyLanguage, lang.String())
		if err := sess.Save(); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}

	return c.Redirect(safeReferer(c), fiber.StatusSeeOther)
}

func safeReferer(c *fiber.Ctx) string {
	referer := c.Get(fiber.HeaderReferer)
	base := c.BaseURL()
	if strings.HasPrefix(referer, base+"/") {
		return strings.TrimPrefix(referer, base)
	}
	return "/dashboard"
}

func loginLimiterKey(username, ip string) string {
	return strings.ToLower(username) + "|" + ip
}

func validationMessage(err error) string {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return "Invalid input"
}
