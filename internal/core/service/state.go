package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

// StateService composes a read-only view of registered accounts and the
// platform balance. It never writes to the registry or the processor.
type StateService struct {
	processor gateway.Processor
	registry  AccountRegistry
	rootURL   string
	logger    *slog.Logger
}

func NewStateService(processor gateway.Processor, registry AccountRegistry, rootURL string, logger *slog.Logger) *StateService {
	return &StateService{
		processor: processor,
		registry:  registry,
		rootURL:   strings.TrimRight(rootURL, "/"),
		logger:    loggerOrDefault(logger),
	}
}

// Snapshot is best-effort: a failing account degrades to {id, error} and a
// failing balance fetch drops both balance fields. It never fails as a whole.
func (s *StateService) Snapshot(ctx context.Context) domain.StateSnapshot {
	ids := s.registry.AccountIDs()
	snap := domain.StateSnapshot{
		Accounts: make([]domain.AccountState, 0, len(ids)),
		RootURL:  s.rootURL,
	}

	for _, id := range ids {
		snap.Accounts = append(snap.Accounts, s.accountState(ctx, id))
	}

	if treasury, ok := s.registry.Treasury(); ok {
		state := s.accountState(ctx, treasury)
		snap.Treasury = &state
	}

	balance, err := s.processor.RetrieveBalance(ctx)
	if err != nil {
		s.logger.Warn("platform balance unavailable for snapshot", "error", err)
		return snap
	}
	snap.PlatformBalance = totalsByCurrency(balance.Available)
	snap.PlatformBalancePending = totalsByCurrency(balance.Pending)

	return snap
}

// PlatformBalance returns the balance lines as the processor reports them.
func (s *StateService) PlatformBalance(ctx context.Context) (domain.PlatformBalance, error) {
	balance, err := s.processor.RetrieveBalance(ctx)
	if err != nil {
		return domain.PlatformBalance{}, classify(err, "Unable to retrieve platform balance")
	}
	return domain.PlatformBalance{
		Available: entries(balance.Available),
		Pending:   entries(balance.Pending),
	}, nil
}

func (s *StateService) accountState(ctx context.Context, id string) domain.AccountState {
	acc, err := s.processor.RetrieveAccount(ctx, id)
	if err != nil {
		s.logger.Warn("account unavailable for snapshot", "account_id", id, "error", err)
		return domain.AccountState{ID: id, Error: processorMessage(err)}
	}
	return domain.AccountState{
		ID:              acc.ID,
		ChargesEnabled:  acc.ChargesEnabled,
		PayoutsEnabled:  acc.PayoutsEnabled,
		RequirementsDue: acc.RequirementsDue,
		TransfersStatus: acc.TransfersStatus,
	}
}

// totalsByCurrency never returns nil, so an empty balance still shows up.
func totalsByCurrency(lines []gateway.Amount) map[string]int64 {
	totals := make(map[string]int64, len(lines))
	for _, line := range lines {
		totals[strings.ToLower(line.Currency)] += line.Amount
	}
	return totals
}

func entries(lines []gateway.Amount) []domain.BalanceEntry {
	out := make([]domain.BalanceEntry, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.BalanceEntry{Currency: line.Currency, Amount: line.Amount})
	}
	return out
}
