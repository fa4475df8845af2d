package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

// Intents accept cards only; delayed-settlement methods are never offered.
var cardOnly = []string{"card"}

const metadataOrderID = "order_id"

// PaymentService builds and reads payment intents.
type PaymentService struct {
	processor gateway.Processor
	logger    *slog.Logger
}

func NewPaymentService(processor gateway.Processor, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		processor: processor,
		logger:    loggerOrDefault(logger),
	}
}

// CreateSplitPayment opens a payment whose funds go to a connected account,
// minus the optional application fee kept by the platform.
func (s *PaymentService) CreateSplitPayment(ctx context.Context, req domain.PaymentIntentRequest) (domain.PaymentCreated, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return domain.PaymentCreated{}, err
	}

	params := intentParams(domain.NewMoney(req.Amount, req.Currency), req.OrderID)
	params.Destination = strings.TrimSpace(req.DestinationAccountID)
	// A negative fee is ignored rather than rejected.
	if req.ApplicationFeeAmount != nil && *req.ApplicationFeeAmount >= 0 {
		fee := *req.ApplicationFeeAmount
		params.ApplicationFeeAmount = &fee
	}

	return s.create(ctx, params)
}

// CreatePlatformPayment opens a payment the platform keeps in full.
// There is nothing to split, so any fee on the request is ignored.
func (s *PaymentService) CreatePlatformPayment(ctx context.Context, req domain.PaymentIntentRequest) (domain.PaymentCreated, error) {
	if err := domain.ValidateRequest(req, "DestinationAccountID"); err != nil {
		return domain.PaymentCreated{}, err
	}

	return s.create(ctx, intentParams(domain.NewMoney(req.Amount, req.Currency), req.OrderID))
}

// GetPaymentIntent reads a payment intent as the processor sees it now.
func (s *PaymentService) GetPaymentIntent(ctx context.Context, id string) (domain.PaymentStatus, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.PaymentStatus{}, domain.BadRequest("Missing payment intent id")
	}

	pi, err := s.processor.RetrievePaymentIntent(ctx, id)
	if err != nil {
		return domain.PaymentStatus{}, classify(err, "Unable to retrieve payment intent %s", id)
	}

	return domain.PaymentStatus{
		ID:                   pi.ID,
		Amount:               pi.Amount,
		Currency:             pi.Currency,
		ApplicationFeeAmount: pi.ApplicationFeeAmount,
		Status:               pi.Status,
	}, nil
}

func (s *PaymentService) create(ctx context.Context, params gateway.PaymentIntentParams) (domain.PaymentCreated, error) {
	pi, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		return domain.PaymentCreated{}, classify(err, "Unable to create payment intent")
	}

	s.logger.Info("payment intent created",
		"payment_intent_id", pi.ID,
		"amount", params.Amount,
		"currency", params.Currency,
		"destination", params.Destination,
	)

	return domain.PaymentCreated{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       pi.Status,
	}, nil
}

func intentParams(money domain.Money, orderID string) gateway.PaymentIntentParams {
	params := gateway.PaymentIntentParams{
		Amount:             money.Amount,
		Currency:           strings.ToLower(money.Currency),
		PaymentMethodTypes: append([]string(nil), cardOnly...),
	}
	if orderID = strings.TrimSpace(orderID); orderID != "" {
		params.Metadata = map[string]string{metadataOrderID: orderID}
	}
	return params
}
