package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type AuditLogEventType string

const (
	AuditLogEventTypeUserLogin        AuditLogEventType = "user.login"
	AuditLogEventTypeUserLoginFailed  AuditLogEventType = "user.login_failed"
	AuditLogEventTypeUserLogout       AuditLogEventType = "user.logout"
	AuditLogEventTypeUserDelete       AuditLogEventType = "user.delete"
	AuditLogEventTypeUsersRefresh     AuditLogEventType = "users.refresh"
	AuditLogEventTypeAnalyticsRefresh AuditLogEventType = "analytics.refresh"
)

// Auditor writes administrative actions to a dedicated log stream.
type Auditor struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditor(logger *slog.Logger) Auditor {
	return Auditor{logger: logger.With("component", "audit"), now: time.Now}
}

type LogEventParam struct {
	Actor string
	Type  AuditLogEventType
	Data  map[string]any
}

// LogEvent records the event and returns its id.
func (a *Auditor) LogEvent(ctx context.Context, params LogEventParam) uuid.UUID {
	id := uuid.New()

	attrs := []any{
		"event_id", id.String(),
		"event_type", string(params.Type),
		"actor", params.Actor,
		"occurred_at", a.now().UTC(),
	}
	if len(params.Data) > 0 {
		attrs = append(attrs, "data", params.Data)
	}

	a.logger.InfoContext(ctx, "Audit event", attrs...)
	return id
}
