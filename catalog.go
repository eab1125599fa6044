package docqueue

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ProviderSpec describes a single catalog entry.
type ProviderSpec struct {
	Name Provider `yaml:"name" validate:"required"`

	// Prerequisite, when set, names the provider whose task must be processed
	// before a task for this provider, for the same user.
	Prerequisite Provider `yaml:"prerequisite,omitempty"`

	// Deprioritized providers sort after everything else in their comparison
	// scope unless the age boost applies.
	Deprioritized bool `yaml:"deprioritized,omitempty"`
}

type catalogDocument struct {
	Providers []ProviderSpec `yaml:"providers" validate:"required,min=1,unique=Name,dive"`
}

// Catalog is an immutable table of known providers. It is safe for
// concurrent use and may be shared by any number of queues.
type Catalog struct {
	specs  map[Provider]ProviderSpec
	depths map[Provider]int
}

// DefaultCatalog returns the catalog of the four standard providers, where
// credit checks require a companies house lookup and bank statements are
// deprioritized.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		ProviderSpec{Name: Providers.CompaniesHouse},
		ProviderSpec{Name: Providers.BankStatements, Deprioritized: true},
		ProviderSpec{Name: Providers.IDVerification},
		ProviderSpec{Name: Providers.CreditCheck, Prerequisite: Providers.CompaniesHouse},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates the given entries and builds a [Catalog]. Any
// structural problem is reported as an error wrapping [ErrConfiguration].
func NewCatalog(specs ...ProviderSpec) (*Catalog, error) {
	if err := validate.Struct(catalogDocument{Providers: specs}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	c := &Catalog{
		specs:  make(map[Provider]ProviderSpec, len(specs)),
		depths: make(map[Provider]int, len(specs)),
	}
	for _, spec := range specs {
		c.specs[spec.Name] = spec
	}

	for _, spec := range specs {
		if spec.Prerequisite == "" {
			continue
		}
		prereq, ok := c.specs[spec.Prerequisite]
		if !ok {
			return nil, fmt.Errorf("%w: %q requires unknown provider %q", ErrConfiguration, spec.Name, spec.Prerequisite)
		}
		// A deprioritized prerequisite could sort after the task that needs it.
		if prereq.Deprioritized {
			return nil, fmt.Errorf("%w: deprioritized provider %q cannot be a prerequisite of %q", ErrConfiguration, prereq.Name, spec.Name)
		}
	}

	for _, spec := range specs {
		chain, err := c.chain(spec.Name)
		if err != nil {
			return nil, err
		}
		c.depths[spec.Name] = len(chain)
	}

	return c, nil
}

// LoadCatalog reads a YAML catalog document of the form:
//
//	providers:
//	  - name: companies_house
//	  - name: credit_check
//	    prerequisite: companies_house
//	  - name: bank_statements
//	    deprioritized: true
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var doc catalogDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty catalog document", ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: failed to parse catalog: %w", ErrConfiguration, err)
	}
	return NewCatalog(doc.Providers...)
}

// LoadCatalogFile reads a YAML catalog from the file at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadCatalog(bytes.NewReader(data))
}

// Contains reports whether p is part of the catalog.
func (c *Catalog) Contains(p Provider) bool {
	_, ok := c.specs[p]
	return ok
}

// Prerequisite returns the provider p requires, if any.
func (c *Catalog) Prerequisite(p Provider) (Provider, bool) {
	spec, ok := c.specs[p]
	if !ok || spec.Prerequisite == "" {
		return "", false
	}
	return spec.Prerequisite, true
}

// IsDeprioritized reports whether p is a deprioritized category.
func (c *Catalog) IsDeprioritized(p Provider) bool {
	return c.specs[p].Deprioritized
}

// Providers returns the catalog's providers in lexical order.
func (c *Catalog) Providers() []Provider {
	out := make([]Provider, 0, len(c.specs))
	for p := range c.specs {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// depth is the length of the prerequisite chain below p. A prerequisite
// always has a smaller depth than the provider requiring it.
func (c *Catalog) depth(p Provider) int {
	return c.depths[p]
}

// chain returns the prerequisites of p, nearest first. The walk is bounded by
// the catalog size and fails on a cycle.
func (c *Catalog) chain(p Provider) ([]Provider, error) {
	var out []Provider
	seen := map[Provider]bool{p: true}

	for cur := p; ; {
		next, ok := c.Prerequisite(cur)
		if !ok {
			return out, nil
		}
		if seen[next] || len(out) >= len(c.specs) {
			return nil, fmt.Errorf("%w: prerequisite cycle through %q", ErrConfiguration, next)
		}
		seen[next] = true
		out = append(out, next)
		cur = next
	}
}
