package audit

import (
	"context"

	"github.com/weiawesome/cinema-chronicles/pkg/log"
)

// Audit actions for movie-service.
const (
	ActionSignup            = "account.signup"
	ActionLogin             = "account.login"
	ActionLogout            = "account.logout"
	ActionFavoriteToggle    = "favorite.toggle"
	ActionHistoryAdd        = "history.add"
	ActionPreferencesUpdate = "preferences.update"
	ActionPreferencesReset  = "preferences.reset"
	ActionUserDataSave      = "user_data.save"
	ActionExport            = "data.export"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
