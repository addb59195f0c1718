// app/bootstrap.go
package app

import (
	"tool_inventory/session"

	"go.uber.org/zap"
)

// CheckAccounts warns at startup when nobody could log in or administer.
func CheckAccounts(log *zap.Logger, users *session.Directory) {
	if users.Len() == 0 {
		log.Warn("no accounts configured, set APP_USERS=user:role:bcrypt-hash")
		return
	}
	admins := users.Admins()
	if len(admins) == 0 {
		log.Warn("no admin account configured, tool changes and exports are unavailable")
		return
	}
	log.Info("accounts loaded", zap.Int("accounts", users.Len()), zap.Strings("admins", admins))
}
