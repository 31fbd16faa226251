package web

import (
	"strings"

	"admindash/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	localsClientID  = "client_id"
	localsAuthStore = "auth_store"
	localsCSRFToken = "csrf_token"
)

// ClientMiddleware gives every browser a stable client id in its session and
// attaches that client's auth store to the request.
func ClientMiddleware(store *session.Store, sessions *auth.Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}

		clientID, ok := sess.Get(sessionKeyClientID).(string)
		if !ok || clientID == "" {
			clientID = uuid.NewString()
			sess.Set(sessionKeyClientID, clientID)
			if err := sess.Save(); err != nil {
				return err
			}
		}

		c.Locals(localsClientID, clientID)
		c.Locals(localsAuthStore, sessions.Get(clientID))

		return c.Next()
	}
}

func clientID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsClientID).(string)
	return id
}

func authStore(c *fiber.Ctx) *auth.Store {
	s, _ := c.Locals(localsAuthStore).(*auth.Store)
	return s
}

func isAuthenticated(c *fiber.Ctx) bool {
	s := authStore(c)
	return s != nil && s.Snapshot().Authenticated()
}

func currentUsername(c *fiber.Ctx) string {
	if s := authStore(c); s != nil {
		if u := s.Snapshot().User; u.IsSet {
			return u.Val.Username
		}
	}
	return ""
}

// RequirePageAuth redirects anonymous browsers to the login page.
func RequirePageAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !isAuthenticated(c) {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireAPIAuth answers anonymous API calls with 401.
func RequireAPIAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !isAuthenticated(c) {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		}
		return c.Next()
	}
}

// ContentNegotiationMiddleware ensures that the client accepts JSON responses
func ContentNegotiationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		accept := c.Get(fiber.HeaderAccept)
		if accept != "" && !strings.Contains(accept, "*/*") && !strings.Contains(accept, fiber.MIMEApplicationJSON) {
			return ErrorResponse(c, fiber.StatusNotAcceptable, "NOT_ACCEPTABLE", "Supported types: application/json")
		}
		return c.Next()
	}
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(localsCSRFToken).(string)
	return token
}

func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// csrfExtractor reads the token from the X-CSRF-Token header, falling back to
// the csrf_token form field.
func csrfExtractor(c *fiber.Ctx) (string, error) {
	if token := c.Get("X-CSRF-Token"); token != "" {
		return token, nil
	}
	return c.FormValue("csrf_token"), nil
}
