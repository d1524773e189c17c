package payment

// Canonical gateway tokens sent to the ledger as payment_gateway.
const (
	GatewayFlutterwave    = "Flutterwave"
	GatewayFincra         = "Fincra"
	GatewayWallet         = "Wallet"
	GatewayPaystack       = "Paystack"
	GatewayVirtualAccount = "Virtual_Account"
)

// gatewayMatchers is checked in order; the first substring hit wins.
var gatewayMatchers = []struct {
	substr  string
	gateway string
}{
	{"flutterwave", GatewayFlutterwave},
	{"fincra", GatewayFincra},
	{"wallet", GatewayWallet},
	{"paystack", GatewayPaystack},
	{"virtual", GatewayVirtualAccount},
}
