package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		except  []string
		message string
	}{
		{"valid split", PaymentIntentRequest{Amount: 1, Currency: "eur", DestinationAccountID: "acct_1"}, nil, ""},
		{"zero amount", PaymentIntentRequest{Amount: 0, Currency: "eur", DestinationAccountID: "acct_1"}, nil, "Missing or invalid amount"},
		{"negative amount", TransferRequest{Amount: -10, Currency: "eur"}, nil, "Missing or invalid amount"},
		{"everything missing reports amount", PaymentIntentRequest{}, nil, "Missing or invalid amount"},
		{"blank currency", TransferRequest{Amount: 10, Currency: "   "}, nil, "Missing currency"},
		{"blank destination", PaymentIntentRequest{Amount: 10, Currency: "eur", DestinationAccountID: " "}, nil, "Missing connected_account_id"},
		{"destination exempt", PaymentIntentRequest{Amount: 10, Currency: "eur"}, []string{"DestinationAccountID"}, ""},
		{"exemption keeps other rules", PaymentIntentRequest{Amount: 10}, []string{"DestinationAccountID"}, "Missing currency"},
		{"transfer destination optional", TransferRequest{Amount: 10, Currency: "eur"}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.payload, tt.except...)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			be, ok := AsBusinessError(err)
			require.True(t, ok, err)
			assert.Equal(t, KindBadRequest, be.Kind)
			assert.Equal(t, tt.message, be.Message)
		})
	}
}

func TestValidateRequestAcceptsPointers(t *testing.T) {
	assert.NoError(t, ValidateRequest(&TransferRequest{Amount: 5, Currency: "usd"}))
}
