package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

func TestResolveName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"flutterwave card", "Flutterwave Card", GatewayFlutterwave, true},
		{"fincra", "FINCRA", GatewayFincra, true},
		{"wallet", "Wallet Balance", GatewayWallet, true},
		{"paystack sub-type", "paystack_bank_transfer", GatewayPaystack, true},
		{"virtual account", "Virtual Account", GatewayVirtualAccount, true},
		{"flutterwave wins over virtual", "flutterwave virtual", GatewayFlutterwave, true},
		{"unknown kept verbatim", "Monnify Transfer", "Monnify Transfer", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveName(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveFallbackOrder(t *testing.T) {
	options := []models.PaymentGatewayOption{{ID: "1", Name: "Paystack Card"}}
	txn := &models.Transaction{PaymentGateway: "fincra"}
	pay := &models.PaymentInfo{Gateway: "wallet"}

	got, ok := Resolve(ResolveInput{Option: &models.PaymentGatewayOption{Gateway: "Flutterwave"}, Options: options})
	require.True(t, ok)
	assert.Equal(t, GatewayFlutterwave, got, "option gateway field used when name empty")

	got, ok = Resolve(ResolveInput{Options: options, Transaction: txn})
	require.True(t, ok)
	assert.Equal(t, GatewayPaystack, got, "first option used when none selected")

	got, ok = Resolve(ResolveInput{Transaction: txn, Payment: pay})
	require.True(t, ok)
	assert.Equal(t, GatewayFincra, got)

	got, ok = Resolve(ResolveInput{Payment: pay})
	require.True(t, ok)
	assert.Equal(t, GatewayWallet, got)

	_, ok = Resolve(ResolveInput{})
	assert.False(t, ok)

	_, ok = Resolve(ResolveInput{Option: &models.PaymentGatewayOption{}, Transaction: &models.Transaction{}})
	assert.False(t, ok)
}

func TestResolveIsDeterministic(t *testing.T) {
	inputs := []string{"Flutterwave", "paystack", "Virtual_Account", "Wallet", "Fincra", "custom"}
	for _, in := range inputs {
		first, ok := ResolveName(in)
		require.True(t, ok)
		for i := 0; i < 3; i++ {
			again, _ := ResolveName(in)
			assert.Equal(t, first, again)
		}
		// canonical tokens resolve to themselves
		twice, _ := ResolveName(first)
		assert.Equal(t, first, twice)
	}
}

func TestResolveNameWinsOverGateway(t *testing.T) {
	opt := &models.PaymentGatewayOption{Name: "Bank Transfer", Gateway: "fincra", Provider: "paystack"}
	got, ok := Resolve(ResolveInput{Option: opt})
	require.True(t, ok)
	assert.Equal(t, "Bank Transfer", got, "an unmatched name is returned verbatim, not replaced by the gateway field")

	opt = &models.PaymentGatewayOption{Name: "Fincra Bank Transfer", Gateway: "flutterwave"}
	got, ok = Resolve(ResolveInput{Option: opt})
	require.True(t, ok)
	assert.Equal(t, GatewayFincra, got)
}

func TestResolveSkipsBlankName(t *testing.T) {
	opt := &models.PaymentGatewayOption{Name: "  ", Gateway: "", Provider: "Wallet"}
	got, ok := Resolve(ResolveInput{Option: opt})
	require.True(t, ok)
	assert.Equal(t, GatewayWallet, got)
}
