package docqueue

import (
	"encoding/json"
	"fmt"
)

// Provider identifies a verification-document category a task requests
// processing for. Providers are plain data; what a provider requires and
// whether it is deprioritized is recorded in a [Catalog].
type Provider string

// ParseProvider creates a new [Provider] from the given value. It does not
// check catalog membership, that happens when the provider is enqueued.
func ParseProvider(p any) Provider {
	switch v := p.(type) {
	case Provider:
		return v
	case string:
		return Provider(v)
	case fmt.Stringer:
		return Provider(v.String())
	default:
		return ""
	}
}

func (p Provider) String() string {
	return string(p)
}

func (p Provider) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *Provider) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("provider must be a string: %w", err)
	}
	*p = Provider(s)
	return nil
}

// Providers references the providers of the default catalog by name.
var Providers = providerContainer{
	CompaniesHouse: "companies_house",
	BankStatements: "bank_statements",
	IDVerification: "id_verification",
	CreditCheck:    "credit_check",
}

// All returns all providers of the default catalog.
func (c providerContainer) All() []Provider {
	return []Provider{c.CompaniesHouse, c.BankStatements, c.IDVerification, c.CreditCheck}
}

type providerContainer struct {
	CompaniesHouse Provider
	BankStatements Provider
	IDVerification Provider
	CreditCheck    Provider
}
