package gateway

import (
	"context"
	"fmt"
	"sync"
)

// Operation names used for call recording and error injection.
const (
	OpCreateAccount         = "accounts.create"
	OpRetrieveAccount       = "accounts.retrieve"
	OpUpdateAccount         = "accounts.update"
	OpCreateAccountLink     = "accountLinks.create"
	OpCreatePaymentIntent   = "paymentIntents.create"
	OpRetrievePaymentIntent = "paymentIntents.retrieve"
	OpCreateTransfer        = "transfers.create"
	OpRetrieveBalance       = "balance.retrieve"
)

// MemoryProcessor is an in-memory implementation of the Processor interface
// used for exercising orchestration logic without a processor account.
type MemoryProcessor struct {
	mu             sync.Mutex
	seq            int
	accounts       map[string]Account
	intents        map[string]PaymentIntent
	balance        Balance
	calls          []string
	failures       map[string]error
	accountErrors  map[string]error
	createdParams  []AccountParams
	updatedParams  []AccountParams
	intentParams   []PaymentIntentParams
	transferParams []TransferParams
	links          []LinkRequest
}

// LinkRequest captures an onboarding link request.
type LinkRequest struct {
	AccountID  string
	RefreshURL string
	ReturnURL  string
}

// NewMemoryProcessor instantiates an empty in-memory processor.
func NewMemoryProcessor() *MemoryProcessor {
	return &MemoryProcessor{
		accounts:      make(map[string]Account),
		intents:       make(map[string]PaymentIntent),
		failures:      make(map[string]error),
		accountErrors: make(map[string]error),
	}
}

// PutAccount seeds or replaces an account.
func (m *MemoryProcessor) PutAccount(acc Account) *MemoryProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.ID] = acc
	return m
}

// PutPaymentIntent seeds or replaces a payment intent.
func (m *MemoryProcessor) PutPaymentIntent(pi PaymentIntent) *MemoryProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[pi.ID] = pi
	return m
}

// SetBalance replaces the platform balance.
func (m *MemoryProcessor) SetBalance(b Balance) *MemoryProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = b
	return m
}

// FailOn makes every subsequent call to op return err. A nil err clears it.
func (m *MemoryProcessor) FailOn(op string, err error) *MemoryProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return m
	}
	m.failures[op] = err
	return m
}

// FailAccount makes retrievals of one account id return err.
func (m *MemoryProcessor) FailAccount(id string, err error) *MemoryProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountErrors[id] = err
	return m
}

func (m *MemoryProcessor) CreateAccount(_ context.Context, params AccountParams) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreateAccount); err != nil {
		return nil, err
	}
	m.createdParams = append(m.createdParams, params)

	acc := Account{ID: m.nextID("acct_test_")}
	if params.RequestTransfers {
		acc.TransfersStatus = "inactive"
	}
	m.accounts[acc.ID] = acc
	return &acc, nil
}

func (m *MemoryProcessor) RetrieveAccount(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpRetrieveAccount); err != nil {
		return nil, err
	}
	if err, ok := m.accountErrors[id]; ok {
		return nil, err
	}
	acc, ok := m.accounts[id]
	if !ok {
		return nil, notFound("account", id)
	}
	return &acc, nil
}

func (m *MemoryProcessor) UpdateAccount(_ context.Context, id string, params AccountParams) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpUpdateAccount); err != nil {
		return nil, err
	}
	acc, ok := m.accounts[id]
	if !ok {
		return nil, notFound("account", id)
	}
	m.updatedParams = append(m.updatedParams, params)
	if params.RequestTransfers && acc.TransfersStatus != "active" {
		acc.TransfersStatus = "pending"
	}
	m.accounts[id] = acc
	return &acc, nil
}

func (m *MemoryProcessor) CreateAccountLink(_ context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreateAccountLink); err != nil {
		return nil, err
	}
	m.links = append(m.links, LinkRequest{AccountID: accountID, RefreshURL: refreshURL, ReturnURL: returnURL})
	return &AccountLink{URL: fmt.Sprintf("https://connect.example.test/setup/%s/%d", accountID, len(m.links))}, nil
}

func (m *MemoryProcessor) CreatePaymentIntent(_ context.Context, params PaymentIntentParams) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreatePaymentIntent); err != nil {
		return nil, err
	}
	m.intentParams = append(m.intentParams, params)

	id := m.nextID("pi_test_")
	pi := PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_test",
		Status:       "requires_payment_method",
		Amount:       params.Amount,
		Currency:     params.Currency,
	}
	if params.ApplicationFeeAmount != nil {
		pi.ApplicationFeeAmount = *params.ApplicationFeeAmount
	}
	m.intents[id] = pi
	return &pi, nil
}

func (m *MemoryProcessor) RetrievePaymentIntent(_ context.Context, id string) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpRetrievePaymentIntent); err != nil {
		return nil, err
	}
	pi, ok := m.intents[id]
	if !ok {
		return nil, notFound("payment_intent", id)
	}
	return &pi, nil
}

func (m *MemoryProcessor) CreateTransfer(_ context.Context, params TransferParams) (*Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreateTransfer); err != nil {
		return nil, err
	}
	m.transferParams = append(m.transferParams, params)
	return &Transfer{
		ID:          m.nextID("tr_test_"),
		Amount:      params.Amount,
		Currency:    params.Currency,
		Destination: params.Destination,
	}, nil
}

func (m *MemoryProcessor) RetrieveBalance(context.Context) (*Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpRetrieveBalance); err != nil {
		return nil, err
	}
	b := Balance{
		Available: append([]Amount(nil), m.balance.Available...),
		Pending:   append([]Amount(nil), m.balance.Pending...),
	}
	return &b, nil
}

// Calls returns the operations invoked so far, in order.
func (m *MemoryProcessor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount counts invocations of op.
func (m *MemoryProcessor) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

// CreatedAccounts returns the params of every CreateAccount call.
func (m *MemoryProcessor) CreatedAccounts() []AccountParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AccountParams(nil), m.createdParams...)
}

// UpdatedAccounts returns the params of every successful UpdateAccount call.
func (m *MemoryProcessor) UpdatedAccounts() []AccountParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AccountParams(nil), m.updatedParams...)
}

// PaymentIntents returns the params of every CreatePaymentIntent call.
func (m *MemoryProcessor) PaymentIntents() []PaymentIntentParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PaymentIntentParams(nil), m.intentParams...)
}

// Transfers returns the params of every CreateTransfer call.
func (m *MemoryProcessor) Transfers() []TransferParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TransferParams(nil), m.transferParams...)
}

// Links returns every onboarding link request.
func (m *MemoryProcessor) Links() []LinkRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LinkRequest(nil), m.links...)
}

// record must be called with mu held.
func (m *MemoryProcessor) record(op string) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

func (m *MemoryProcessor) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func notFound(resource, id string) error {
	return &Error{
		StatusCode: 404,
		Code:       "resource_missing",
		Message:    fmt.Sprintf("No such %s: '%s'", resource, id),
	}
}
