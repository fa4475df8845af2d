// Package service holds the orchestration workflows: account lifecycle,
// payment intents, the treasury transfer guard and the state snapshot.
// Every failure leaving this package is a *domain.BusinessError.
package service

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

// AccountRegistry is the process-lifetime cache of known account ids.
type AccountRegistry interface {
	Register(id string)
	AccountIDs() []string
	Treasury() (string, bool)
	SetTreasury(id string)
}

func errTreasuryNotSet() error {
	return domain.BadRequest("Treasury account not set")
}

func treasuryID(registry AccountRegistry) (string, error) {
	id, ok := registry.Treasury()
	if !ok || strings.TrimSpace(id) == "" {
		return "", errTreasuryNotSet()
	}
	return id, nil
}

// processorMessage is the text shown to callers for an upstream failure.
func processorMessage(err error) string {
	var ge *gateway.Error
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return err.Error()
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
