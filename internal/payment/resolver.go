package payment

import (
	"strings"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// ResolveInput is everything a gateway name can be derived from, most specific first.
type ResolveInput struct {
	Option      *models.PaymentGatewayOption
	Options     []models.PaymentGatewayOption
	Transaction *models.Transaction
	Payment     *models.PaymentInfo
}

// Resolve maps the selected option (or the first available option, or the
// transaction/payment metadata) to a canonical gateway token.
// It returns false when no name can be derived.
func Resolve(in ResolveInput) (string, bool) {
	option := in.Option
	if option == nil && len(in.Options) > 0 {
		option = &in.Options[0]
	}

	var candidates []string
	if option != nil {
		candidates = append(candidates, option.Name, option.Gateway, option.Provider)
	}
	if in.Transaction != nil {
		candidates = append(candidates, in.Transaction.PaymentGateway)
	}
	if in.Payment != nil {
		candidates = append(candidates, in.Payment.Gateway)
	}

	for _, name := range candidates {
		if strings.TrimSpace(name) != "" {
			return ResolveName(name)
		}
	}
	return "", false
}

// ResolveName normalizes a single gateway name. Unknown names are returned verbatim.
func ResolveName(name string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	lower := strings.ToLower(name)
	for _, m := range gatewayMatchers {
		if strings.Contains(lower, m.substr) {
			return m.gateway, true
		}
	}
	return name, true
}
