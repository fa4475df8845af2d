package domain

import (
	"encoding/json"
)

// AccountIDPrefix is how the processor prefixes connected account ids.
const AccountIDPrefix = "acct_"

// CapabilityActive is the processor status of a usable capability.
const CapabilityActive = "active"

// PaymentIntentRequest is what a caller sends to open a payment.
// A destination turns it into a split payment; without one the platform keeps the funds.
type PaymentIntentRequest struct {
	Amount               int64  `json:"amount" validate:"gt=0"`       // Cents
	Currency             string `json:"currency" validate:"notblank"` // e.g. "eur"
	DestinationAccountID string `json:"connected_account_id" validate:"notblank"`
	ApplicationFeeAmount *int64 `json:"application_fee_amount"`
	OrderID              string `json:"order_id"`
}

// TransferRequest moves platform funds to the treasury account.
type TransferRequest struct {
	Amount               int64  `json:"amount" validate:"gt=0"`
	Currency             string `json:"currency" validate:"notblank"`
	DestinationAccountID string `json:"destination_account_id"`
	Description          string `json:"description"`
}

// AccountCreated is returned by the account creation endpoints.
type AccountCreated struct {
	ID             string `json:"id"`
	AlreadyExisted bool   `json:"-"`
	Message        string `json:"message,omitempty"`
}

// OnboardingLink is a single-use URL for the account holder.
type OnboardingLink struct {
	URL string `json:"url"`
}

// CapabilityRequest is the outcome of asking for the transfers capability.
type CapabilityRequest struct {
	AccountID       string `json:"account_id"`
	TransfersStatus string `json:"transfers_status"`
	OnboardingURL   string `json:"onboarding_url"`
}

// AccountSummary is returned after an account id has been verified.
type AccountSummary struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
	Message        string `json:"message"`
}

// PaymentCreated is the client-facing part of a fresh payment intent.
type PaymentCreated struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// PaymentStatus is the read view of a payment intent.
type PaymentStatus struct {
	ID                   string `json:"id"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
	ApplicationFeeAmount int64  `json:"application_fee_amount"`
	Status               string `json:"status"`
}

// TransferResult describes an executed treasury transfer.
type TransferResult struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
}

// AccountState is one entry of the state snapshot. Error is set, and the
// live fields ignored, when the account could not be retrieved.
type AccountState struct {
	ID              string
	ChargesEnabled  bool
	PayoutsEnabled  bool
	RequirementsDue []string
	TransfersStatus string
	Error           string
}

// MarshalJSON renders a failed entry as {id, error} only.
func (a AccountState) MarshalJSON() ([]byte, error) {
	if a.Error != "" {
		return json.Marshal(map[string]string{"id": a.ID, "error": a.Error})
	}
	due := a.RequirementsDue
	if due == nil {
		due = []string{}
	}
	return json.Marshal(map[string]any{
		"id":               a.ID,
		"charges_enabled":  a.ChargesEnabled,
		"payouts_enabled":  a.PayoutsEnabled,
		"requirements_due": due,
		"transfers_status": a.TransfersStatus,
	})
}

// StateSnapshot reconciles registered ids with live processor state.
// Balance maps are nil when the balance could not be fetched and empty when
// the platform simply holds nothing.
type StateSnapshot struct {
	Accounts               []AccountState
	Treasury               *AccountState
	RootURL                string
	PlatformBalance        map[string]int64
	PlatformBalancePending map[string]int64
}

// MarshalJSON omits the treasury and balance keys entirely when absent, so
// "could not fetch" stays distinguishable from "nothing there".
func (s StateSnapshot) MarshalJSON() ([]byte, error) {
	accounts := s.Accounts
	if accounts == nil {
		accounts = []AccountState{}
	}
	out := map[string]any{
		"accounts": accounts,
		"rootUrl":  s.RootURL,
	}
	if s.Treasury != nil {
		out["treasury"] = s.Treasury
	}
	if s.PlatformBalance != nil {
		out["platform_balance"] = s.PlatformBalance
	}
	if s.PlatformBalancePending != nil {
		out["platform_balance_pending"] = s.PlatformBalancePending
	}
	return json.Marshal(out)
}

// BalanceEntry is one currency line of the platform balance.
type BalanceEntry struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// PlatformBalance is the raw balance view.
type PlatformBalance struct {
	Available []BalanceEntry `json:"available"`
	Pending   []BalanceEntry `json:"pending"`
}
