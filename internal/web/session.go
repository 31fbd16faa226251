package web

import (
	"admindash/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/postgres/v3"
)

const (
	SessionStorageMemory   = "memory"
	SessionStoragePostgres = "postgres"

	sessionKeyClientID = "client_id"
)

// NewSessionStore builds the cookie session store. The returned storage is
// nil for in-memory sessions; otherwise the caller closes it on shutdown.
func NewSessionStore(cfg config.SessionConfig) (*session.Store, fiber.Storage) {
	var storage fiber.Storage
	if cfg.Storage == SessionStoragePostgres {
		storage = postgres.New(postgres.Config{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			Database: cfg.PostgresDatabase,
			Username: cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Table:    cfg.PostgresTable,
			Reset:    false,
		})
	}

	store := session.New(session.Config{
		Storage:        storage,
		KeyLookup:      "cookie:admindash_session",
		CookiePath:     "/",
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     cfg.Expiration,
	})

	return store, storage
}
