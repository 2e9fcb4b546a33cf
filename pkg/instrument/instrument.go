package instrument

const (
	KindCrypto = "crypto"
	KindStock  = "stock"
)

// seed prices used by the synthetic walk when an instrument
// has never been priced before
const (
	SeedPriceCrypto = 50000
	SeedPriceStock  = 100
)

// Instrument describes one tradable symbol. The catalog is fixed at
// startup, instruments are never added or removed at runtime.
type Instrument struct {
	SymbolID string
	Display  string
	Name     string
	Kind     string
	// FeedID is the identifier used by the external quote provider.
	// Empty means the instrument is priced synthetically only.
	FeedID string
}

// SeedPrice returns the first-ever price base for the instrument kind.
func (i Instrument) SeedPrice() float64 {
	if i.Kind == KindCrypto {
		return SeedPriceCrypto
	}
	return SeedPriceStock
}

// DefaultCatalog returns the default trading universe.
func DefaultCatalog() []Instrument {
	return []Instrument{
		{SymbolID: "bitcoin", Display: "BTC", Name: "Bitcoin", Kind: KindCrypto, FeedID: "bitcoin"},
		{SymbolID: "ethereum", Display: "ETH", Name: "Ethereum", Kind: KindCrypto, FeedID: "ethereum"},
		{SymbolID: "aapl", Display: "AAPL", Name: "Apple", Kind: KindStock},
		{SymbolID: "tsla", Display: "TSLA", Name: "Tesla", Kind: KindStock},
	}
}

// Catalog is a lookup view over a list of instruments.
type Catalog map[string]Instrument

func NewCatalog(instruments []Instrument) Catalog {
	c := make(Catalog, len(instruments))
	for _, ins := range instruments {
		c[ins.SymbolID] = ins
	}
	return c
}

func (c Catalog) Has(symbolID string) bool {
	_, ok := c[symbolID]
	return ok
}
