package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

// Transfer guard phases, in the order they run.
const (
	PhaseValidate        = "validate"
	PhaseCheckCapability = "check-capability"
	PhaseCheckBalance    = "check-balance"
	PhaseExecute         = "execute"
)

// TransferService moves platform funds to the treasury account, but only
// after the destination can receive them and the platform can cover them.
type TransferService struct {
	processor gateway.Processor
	registry  AccountRegistry
	logger    *slog.Logger
}

func NewTransferService(processor gateway.Processor, registry AccountRegistry, logger *slog.Logger) *TransferService {
	return &TransferService{
		processor: processor,
		registry:  registry,
		logger:    loggerOrDefault(logger),
	}
}

// transferRun carries state between phases of one transfer.
type transferRun struct {
	req      domain.TransferRequest
	money    domain.Money
	treasury string
	result   domain.TransferResult
}

// TransferToTreasury runs validate → check-capability → check-balance → execute.
// The first failing phase ends the run; nothing is retried.
func (s *TransferService) TransferToTreasury(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	run := &transferRun{req: req}

	phases := []struct {
		name string
		fn   func(context.Context, *transferRun) error
	}{
		{PhaseValidate, s.validate},
		{PhaseCheckCapability, s.checkCapability},
		{PhaseCheckBalance, s.checkBalance},
		{PhaseExecute, s.execute},
	}

	for _, phase := range phases {
		if err := phase.fn(ctx, run); err != nil {
			s.logger.Warn("treasury transfer rejected",
				"phase", phase.name,
				"code", domain.KindOf(err),
				"amount", req.Amount,
				"currency", req.Currency,
			)
			return domain.TransferResult{}, err
		}
		s.logger.Debug("treasury transfer phase passed", "phase", phase.name)
	}

	s.logger.Info("treasury transfer created",
		"transfer_id", run.result.ID,
		"amount", run.result.Amount,
		"currency", run.result.Currency,
		"destination", run.result.Destination,
	)
	return run.result, nil
}

func (s *TransferService) validate(_ context.Context, run *transferRun) error {
	if err := domain.ValidateRequest(run.req); err != nil {
		return err
	}
	run.money = domain.NewMoney(run.req.Amount, run.req.Currency)

	treasury, err := treasuryID(s.registry)
	if err != nil {
		return err
	}

	// The caller may name the destination, but it can only ever be the treasury.
	if dest := strings.TrimSpace(run.req.DestinationAccountID); dest != "" && dest != treasury {
		return domain.BadRequest("destination_account_id %s is not the treasury account", dest)
	}

	run.treasury = treasury
	return nil
}

func (s *TransferService) checkCapability(ctx context.Context, run *transferRun) error {
	acc, err := s.processor.RetrieveAccount(ctx, run.treasury)
	if err != nil {
		return classify(err, "Unable to check treasury account capabilities")
	}

	if !strings.EqualFold(acc.TransfersStatus, domain.CapabilityActive) {
		status := acc.TransfersStatus
		if status == "" {
			status = "not requested"
		}
		return domain.OnboardingRequired(
			"Treasury account cannot receive transfers yet (capability 'transfers' is %s). Onboard and complete requirements.",
			status,
		)
	}
	return nil
}

func (s *TransferService) checkBalance(ctx context.Context, run *transferRun) error {
	balance, err := s.processor.RetrieveBalance(ctx)
	if err != nil {
		return classify(err, "Unable to retrieve platform balance")
	}

	available := availableIn(balance.Available, run.money)
	if !run.money.Covers(available) {
		return domain.InsufficientFunds(run.money.Currency, available, run.money.Amount)
	}
	return nil
}

func (s *TransferService) execute(ctx context.Context, run *transferRun) error {
	transfer, err := s.processor.CreateTransfer(ctx, gateway.TransferParams{
		Amount:      run.money.Amount,
		Currency:    strings.ToLower(run.money.Currency),
		Destination: run.treasury,
		Description: strings.TrimSpace(run.req.Description),
	})
	if err != nil {
		return classify(err, "Unable to create transfer")
	}

	run.result = domain.TransferResult{
		ID:          transfer.ID,
		Amount:      transfer.Amount,
		Currency:    transfer.Currency,
		Destination: transfer.Destination,
	}
	return nil
}

// availableIn sums every balance line in the requested currency; 0 when there is none.
func availableIn(lines []gateway.Amount, money domain.Money) int64 {
	var total int64
	for _, line := range lines {
		if money.IsCurrency(line.Currency) {
			total += line.Amount
		}
	}
	return total
}
