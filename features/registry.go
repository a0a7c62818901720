package features

import (
	"fmt"
	"sort"
	"sync"
)

// Domain names the data source a registry covers.
type Domain string

const (
	DomainOrderbook   Domain = "orderbook"
	DomainTrade       Domain = "trade"
	DomainLiquidation Domain = "liquidation"
	DomainMarket      Domain = "market"
)

// Registry maps feature names to categories and back. It is filled once and
// then only read, but guards both indexes with a RWMutex so late
// registrations stay safe.
type Registry struct {
	domain Domain

	mu         sync.RWMutex
	names      map[string]Category
	categories map[Category][]string
}

// NewRegistry returns an empty registry for the given domain.
func NewRegistry(domain Domain) *Registry {
	return &Registry{
		domain:     domain,
		names:      make(map[string]Category),
		categories: make(map[Category][]string),
	}
}

func newRegistryFrom(domain Domain, descs []Descriptor) *Registry {
	r := NewRegistry(domain)
	for _, d := range descs {
		r.Register(d.Name(), d.Category())
	}
	return r
}

// NewOrderbookRegistry lists the seven order-book features.
func NewOrderbookRegistry() *Registry {
	return newRegistryFrom(DomainOrderbook, orderbookDescriptors())
}

// NewTradeRegistry lists the trade-flow features.
func NewTradeRegistry() *Registry {
	return newRegistryFrom(DomainTrade, tradeDescriptors())
}

// NewLiquidationRegistry lists the liquidation features.
func NewLiquidationRegistry() *Registry {
	return newRegistryFrom(DomainLiquidation, liquidationDescriptors())
}

// NewMarketRegistry lists funding, open interest and composite features.
func NewMarketRegistry() *Registry {
	return newRegistryFrom(DomainMarket, marketDescriptors())
}

func (r *Registry) Domain() Domain { return r.domain }

// Register adds name under category. The first registration of a name wins;
// entries are never removed or moved.
func (r *Registry) Register(name string, category Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[name]; ok {
		return
	}
	r.names[name] = category
	r.categories[category] = append(r.categories[category], name)
}

// ListFeatures returns every registered name in lexical order.
func (r *Registry) ListFeatures() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListByCategory returns the names of one category in registration order.
func (r *Registry) ListByCategory(category Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.categories[category]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// CategoryOf returns the category registered for name.
func (r *Registry) CategoryOf(name string) (Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.names[name]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Registries bundles the four per-domain registries. Build it once at start-up
// with NewRegistries and pass it to whoever needs discovery or validation.
type Registries struct {
	Orderbook   *Registry
	Trade       *Registry
	Liquidation *Registry
	Market      *Registry
}

func NewRegistries() *Registries {
	return &Registries{
		Orderbook:   NewOrderbookRegistry(),
		Trade:       NewTradeRegistry(),
		Liquidation: NewLiquidationRegistry(),
		Market:      NewMarketRegistry(),
	}
}

// All returns the registries in domain order.
func (rs *Registries) All() []*Registry {
	return []*Registry{rs.Orderbook, rs.Trade, rs.Liquidation, rs.Market}
}

// Lookup finds the domain and category of name across all registries.
func (rs *Registries) Lookup(name string) (Domain, Category, bool) {
	for _, r := range rs.All() {
		if c, ok := r.CategoryOf(name); ok {
			return r.Domain(), c, true
		}
	}
	return "", 0, false
}

// Validate returns a FeatureNotFoundError for the first unknown name.
func (rs *Registries) Validate(names []string) error {
	for _, name := range names {
		if _, _, ok := rs.Lookup(name); !ok {
			return &FeatureNotFoundError{Name: name}
		}
	}
	return nil
}

// ValidateDomain checks that every name belongs to the given domain.
func (rs *Registries) ValidateDomain(domain Domain, names []string) error {
	for _, name := range names {
		d, _, ok := rs.Lookup(name)
		if !ok {
			return &FeatureNotFoundError{Name: name}
		}
		if d != domain {
			return &InvalidConfigError{Message: fmt.Sprintf("feature %s belongs to the %s domain, not %s", name, d, domain)}
		}
	}
	return nil
}
