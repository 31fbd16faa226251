package web

import (
	"errors"
	"log/slog"

	"admindash/internal/analytics"
	"admindash/internal/audit"
	"admindash/internal/store"
	"admindash/internal/telemetry"
	"admindash/internal/users"
	"admindash/internal/validator"

	"github.com/gofiber/fiber/v2"
)

// APIHandler exposes the same stores as the dashboard pages as JSON.
type APIHandler struct {
	Logger    *slog.Logger
	Users     *users.Store
	Analytics *analytics.Store
	Validator *validator.Validator
	Auditor   *audit.Auditor
}

func (h *APIHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *APIHandler) Me(c *fiber.Ctx) error {
	return c.JSON(authStore(c).Snapshot())
}

func (h *APIHandler) ListUsers(c *fiber.Ctx) error {
	if err := applyUsersQuery(c, h.Validator, h.Users); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", validationMessage(err))
	}

	state := ensureUsersLoaded(telemetry.ContextFromFiber(c), h.Users, h.Logger)
	if state.Phase == store.PhaseRejected {
		return ErrorResponse(c, fiber.StatusBadGateway, "UNAVAILABLE", state.Error)
	}

	return c.JSON(fiber.Map{
		"state": state,
		"page":  state.Page(),
	})
}

func (h *APIHandler) RefreshUsers(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)

	err := h.Users.Fetch(ctx)
	if errors.Is(err, store.ErrSuperseded) {
		return ErrorResponse(c, fiber.StatusConflict, "ABORTED", "A newer refresh replaced this one")
	}
	h.Auditor.LogEvent(ctx, audit.LogEventParam{Actor: currentUsername(c), Type: audit.AuditLogEventTypeUsersRefresh})
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadGateway, "UNAVAILABLE", h.Users.Snapshot().Error)
	}

	state := h.Users.Snapshot()
	return c.JSON(fiber.Map{
		"state": state,
		"page":  state.Page(),
	})
}

func (h *APIHandler) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", "id must be a number")
	}

	ensureUsersLoaded(telemetry.ContextFromFiber(c), h.Users, h.Logger)

	user, ok := h.Users.Find(id)
	if !ok {
		return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "User not found")
	}
	return c.JSON(user)
}

func (h *APIHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", "id must be a number")
	}

	ctx := telemetry.ContextFromFiber(c)
	if !h.Users.Delete(ctx, id) {
		return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "User not found")
	}

	h.Auditor.LogEvent(ctx, audit.LogEventParam{
		Actor: currentUsername(c),
		Type:  audit.AuditLogEventTypeUserDelete,
		Data:  map[string]any{"user_id": id},
	})

	return c.JSON(fiber.Map{
		"deleted":      true,
		"deletedCount": h.Users.Snapshot().DeletedCount,
	})
}

func (h *APIHandler) GetAnalytics(c *fiber.Ctx) error {
	if _, err := applyAnalyticsQuery(c, h.Validator, h.Analytics); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", validationMessage(err))
	}

	state := ensureAnalyticsFresh(telemetry.ContextFromFiber(c), h.Analytics, h.Logger)
	if state.Phase == store.PhaseRejected {
		return ErrorResponse(c, fiber.StatusBadGateway, "UNAVAILABLE", state.Error)
	}
	return c.JSON(state)
}

func (h *APIHandler) GetRegions(c *fiber.Ctx) error {
	if _, err := applyAnalyticsQuery(c, h.Validator, h.Analytics); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", validationMessage(err))
	}

	state := ensureAnalyticsFresh(telemetry.ContextFromFiber(c), h.Analytics, h.Logger)
	return c.JSON(fiber.Map{
		"items":   analytics.RegionBreakdown(state.UsersByRegion, state.SelectedRegion),
		"regions": analytics.Regions(state.UsersByRegion),
	})
}
