package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

// platformController makes the platform the fee payer and loss bearer and
// keeps the holder out of any processor dashboard: onboarding happens only
// through the links we issue.
var platformController = gateway.Controller{
	FeePayer:   gateway.PartyApplication,
	LossBearer: gateway.PartyApplication,
	Dashboard:  gateway.DashboardNone,
}

// AccountOptions configures the account workflows.
type AccountOptions struct {
	// RootURL is the public base of this service; onboarding callbacks hang off it.
	RootURL string
	// RequestTransfersOnCreate asks for the transfers capability at creation time.
	RequestTransfersOnCreate bool
}

// AccountService drives connected-account creation, onboarding and verification.
type AccountService struct {
	processor gateway.Processor
	registry  AccountRegistry
	opts      AccountOptions
	logger    *slog.Logger

	// treasuryMu serializes treasury creation so concurrent first calls
	// cannot each open a processor account.
	treasuryMu sync.Mutex
}

func NewAccountService(processor gateway.Processor, registry AccountRegistry, opts AccountOptions, logger *slog.Logger) *AccountService {
	opts.RootURL = strings.TrimRight(opts.RootURL, "/")
	return &AccountService{
		processor: processor,
		registry:  registry,
		opts:      opts,
		logger:    loggerOrDefault(logger),
	}
}

// CreateAccount opens a new connected account and remembers its id.
func (s *AccountService) CreateAccount(ctx context.Context) (domain.AccountCreated, error) {
	acc, err := s.processor.CreateAccount(ctx, s.newAccountParams("", ""))
	if err != nil {
		return domain.AccountCreated{}, classify(err, "Unable to create account")
	}

	s.registry.Register(acc.ID)
	s.logger.Info("connected account created", "account_id", acc.ID)

	return domain.AccountCreated{ID: acc.ID}, nil
}

// CreateTreasuryAccount creates the treasury account once. Later calls return
// the existing id without contacting the processor.
func (s *AccountService) CreateTreasuryAccount(ctx context.Context, email, country string) (domain.AccountCreated, error) {
	s.treasuryMu.Lock()
	defer s.treasuryMu.Unlock()

	if existing, ok := s.registry.Treasury(); ok {
		return domain.AccountCreated{
			ID:             existing,
			AlreadyExisted: true,
			Message:        "Treasury account already exists",
		}, nil
	}

	acc, err := s.processor.CreateAccount(ctx, s.newAccountParams(email, country))
	if err != nil {
		return domain.AccountCreated{}, classify(err, "Unable to create treasury account")
	}

	s.registry.SetTreasury(acc.ID)
	s.logger.Info("treasury account created", "account_id", acc.ID)

	return domain.AccountCreated{ID: acc.ID}, nil
}

// IssueOnboardingLink refetches the account so the link reflects current
// requirements, then registers it.
func (s *AccountService) IssueOnboardingLink(ctx context.Context, accountID string) (domain.OnboardingLink, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return domain.OnboardingLink{}, domain.BadRequest("Missing account id")
	}

	acc, err := s.processor.RetrieveAccount(ctx, accountID)
	if err != nil {
		return domain.OnboardingLink{}, classify(err, "Unable to retrieve account %s", accountID)
	}

	link, err := s.onboardingLink(ctx, acc.ID)
	if err != nil {
		return domain.OnboardingLink{}, err
	}

	s.registry.Register(acc.ID)
	return link, nil
}

// IssueTreasuryOnboardingLink is IssueOnboardingLink for the treasury account.
func (s *AccountService) IssueTreasuryOnboardingLink(ctx context.Context) (domain.OnboardingLink, error) {
	id, err := treasuryID(s.registry)
	if err != nil {
		return domain.OnboardingLink{}, err
	}

	acc, err := s.processor.RetrieveAccount(ctx, id)
	if err != nil {
		return domain.OnboardingLink{}, classify(err, "Unable to retrieve treasury account")
	}

	return s.onboardingLink(ctx, acc.ID)
}

// RequestTransfersCapability asks the processor to enable transfers on the
// treasury account and hands back a link to finish any new requirements.
func (s *AccountService) RequestTransfersCapability(ctx context.Context) (domain.CapabilityRequest, error) {
	id, err := treasuryID(s.registry)
	if err != nil {
		return domain.CapabilityRequest{}, err
	}

	updated, err := s.processor.UpdateAccount(ctx, id, gateway.AccountParams{RequestTransfers: true})
	if err != nil {
		return domain.CapabilityRequest{}, classify(err, "Unable to request transfers capability")
	}

	link, err := s.onboardingLink(ctx, updated.ID)
	if err != nil {
		return domain.CapabilityRequest{}, err
	}

	s.logger.Info("transfers capability requested",
		"account_id", updated.ID,
		"transfers_status", updated.TransfersStatus,
	)

	return domain.CapabilityRequest{
		AccountID:       updated.ID,
		TransfersStatus: updated.TransfersStatus,
		OnboardingURL:   link.URL,
	}, nil
}

// VerifyAccount links an account that already exists on the processor.
func (s *AccountService) VerifyAccount(ctx context.Context, id string) (domain.AccountSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.AccountSummary{}, domain.BadRequest("Missing id")
	}

	acc, err := s.lookup(ctx, id)
	if err != nil {
		return domain.AccountSummary{}, err
	}

	s.registry.Register(acc.ID)
	return summarize(acc, "Account verified and added"), nil
}

// VerifyTreasuryAccount designates an existing account as the treasury.
func (s *AccountService) VerifyTreasuryAccount(ctx context.Context, id string) (domain.AccountSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.AccountSummary{}, domain.BadRequest("Missing id")
	}
	if !strings.HasPrefix(id, domain.AccountIDPrefix) {
		return domain.AccountSummary{}, domain.BadRequest("Invalid account id")
	}

	acc, err := s.lookup(ctx, id)
	if err != nil {
		return domain.AccountSummary{}, err
	}

	s.registry.SetTreasury(acc.ID)
	s.logger.Info("treasury account linked", "account_id", acc.ID)

	return summarize(acc, "Treasury account linked"), nil
}

// lookup confirms an account exists. Any failure reads as "not found" to the caller.
func (s *AccountService) lookup(ctx context.Context, id string) (*gateway.Account, error) {
	acc, err := s.processor.RetrieveAccount(ctx, id)
	if err != nil {
		s.logger.Warn("account verification failed", "account_id", id, "error", err)
		return nil, domain.NotFound("Account not found or inaccessible: %s", processorMessage(err)).WithCause(err)
	}
	return acc, nil
}

func (s *AccountService) onboardingLink(ctx context.Context, accountID string) (domain.OnboardingLink, error) {
	link, err := s.processor.CreateAccountLink(ctx, accountID,
		s.opts.RootURL+"/refresh",
		s.opts.RootURL+"/return",
	)
	if err != nil {
		return domain.OnboardingLink{}, classify(err, "Unable to create onboarding link")
	}
	return domain.OnboardingLink{URL: link.URL}, nil
}

func (s *AccountService) newAccountParams(email, country string) gateway.AccountParams {
	return gateway.AccountParams{
		Email:            strings.TrimSpace(email),
		Country:          strings.TrimSpace(country),
		RequestTransfers: s.opts.RequestTransfersOnCreate,
		Controller:       platformController,
	}
}

func summarize(acc *gateway.Account, message string) domain.AccountSummary {
	return domain.AccountSummary{
		ID:             acc.ID,
		ChargesEnabled: acc.ChargesEnabled,
		PayoutsEnabled: acc.PayoutsEnabled,
		Message:        message,
	}
}
