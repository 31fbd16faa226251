package web

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"admindash/internal/analytics"
	"admindash/internal/audit"
	"admindash/internal/auth"
	"admindash/internal/config"
	"admindash/internal/i18n"
	"admindash/internal/metrics"
	"admindash/internal/middleware"
	"admindash/internal/ratelimit"
	"admindash/internal/telemetry"
	"admindash/internal/users"
	"admindash/internal/validator"
	"admindash/internal/web/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
)

type Dependencies struct {
	Logger       *slog.Logger
	Translator   *i18n.Translator
	SessionStore *session.Store
	Sessions     *auth.Sessions
	Users        *users.Store
	Analytics    *analytics.Store
	Validator    *validator.Validator
	Limiter      ratelimit.Limiter
	Auditor      *audit.Auditor
	Metrics      *metrics.Registry
	// Logins receives login outcomes in addition to Metrics.
	Logins LoginRecorder
}

// NewApp builds the dashboard application: HTML pages under /dashboard, a
// JSON API under /api and Prometheus metrics on /metrics.
func NewApp(cfg config.Config, deps Dependencies) *fiber.App {
	logins := LoginRecorders{deps.Metrics}
	if deps.Logins != nil {
		logins = append(logins, deps.Logins)
	}

	pages := &PageHandler{
		Logger:       deps.Logger,
		Translator:   deps.Translator,
		SessionStore: deps.SessionStore,
		Sessions:     deps.Sessions,
		Users:        deps.Users,
		Analytics:    deps.Analytics,
		Validator:    deps.Validator,
		Limiter:      deps.Limiter,
		Auditor:      deps.Auditor,
		Logins:       logins,
	}
	api := &APIHandler{
		Logger:    deps.Logger,
		Users:     deps.Users,
		Analytics: deps.Analytics,
		Validator: deps.Validator,
		Auditor:   deps.Auditor,
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.Telemetry.ServiceName,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(pages),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Server.Environment != config.EnvironmentProduction}))
	app.Use(requestid.New())
	app.Use(telemetry.FiberMiddleware(cfg.Telemetry.ServiceName))
	app.Use(deps.Metrics.Middleware())
	app.Use(middleware.Logger(deps.Logger))
	app.Use(middleware.SecurityHeadersMiddleware())

	app.Get("/metrics", deps.Metrics.Handler())
	app.Get("/api/health", api.Health)

	app.Use(ClientMiddleware(deps.SessionStore, deps.Sessions))
	app.Use(middleware.I18nMiddleware(deps.Translator, deps.SessionStore, i18n.EN))

	if cfg.Security.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			Extractor:      csrfExtractor,
			CookieName:     "csrf_",
			CookieSameSite: fiber.CookieSameSiteLaxMode,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     1 * time.Hour,
			KeyGenerator:   utils.UUIDv4,
			ContextKey:     localsCSRFToken,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				deps.Logger.WarnContext(c.UserContext(), "CSRF check failed", "error", err, "path", c.Path())
				return fiber.NewError(fiber.StatusForbidden, "Invalid or missing CSRF token")
			},
		}))
	}

	app.Get("/", pages.Home)
	app.Get("/login", pages.ShowLoginPage)
	app.Post("/login", pages.Login)
	app.Post("/logout", pages.Logout)
	app.Get("/lang/:lang", pages.SetLanguage)

	dashboard := app.Group("/dashboard", middleware.NoStoreMiddleware(), RequirePageAuth())
	dashboard.Get("/", pages.Dashboard)
	dashboard.Get("/users", pages.ShowUsers)
	dashboard.Post("/users/refresh", pages.RefreshUsers)
	dashboard.Get("/users/:id<int>", pages.ShowUser)
	dashboard.Post("/users/:id<int>/delete", pages.DeleteUser)
	dashboard.Get("/analytics", pages.ShowAnalytics)
	dashboard.Post("/analytics/refresh", pages.RefreshAnalytics)

	apiGroup := app.Group("/api", middleware.NoStoreMiddleware(), ContentNegotiationMiddleware())
	if cfg.Security.RateLimitEnabled {
		apiGroup.Use(limiter.New(limiter.Config{
			Max:        cfg.Security.APIRateLimit,
			Expiration: cfg.Security.APIRateWindow,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return ErrorResponse(c, fiber.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "Too many requests, please slow down")
			},
		}))
	}
	apiGroup.Use(RequireAPIAuth())
	apiGroup.Get("/me", api.Me)
	apiGroup.Get("/users", api.ListUsers)
	apiGroup.Post("/users/refresh", api.RefreshUsers)
	apiGroup.Get("/users/:id", api.GetUser)
	apiGroup.Delete("/users/:id", api.DeleteUser)
	apiGroup.Get("/analytics", api.GetAnalytics)
	apiGroup.Get("/analytics/regions", api.GetRegions)

	return app
}

func errorHandler(pages *PageHandler) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := ""

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			pages.Logger.ErrorContext(telemetry.ContextFromFiber(c), "Unhandled error",
				"error", err,
				"method", c.Method(),
				"path", c.Path(),
			)
			message = ""
		}

		if isAPIRequest(c) {
			if message == "" {
				message = utils.StatusMessage(code)
			}
			return ErrorResponse(c, code, errorStatus(code), message)
		}

		t := pages.translator(c)
		switch {
		case code == fiber.StatusNotFound:
			message = t.T("error.not_found")
		case message == "":
			message = t.T("error.generic")
		}

		if renderErr := render(c, code, views.ErrorPage(views.ErrorPageProps{
			Layout:  pages.layoutProps(c, "app.title", ""),
			Code:    code,
			Message: message,
		})); renderErr != nil {
			return c.Status(code).SendString(message)
		}
		return nil
	}
}

// errorStatus turns 404 into "NOT_FOUND".
func errorStatus(code int) string {
	return strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(code), " ", "_"))
}
