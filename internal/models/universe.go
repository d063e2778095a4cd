package models

// UniverseVersion stamps result artifacts so downstream consumers can
// detect universe changes.
const UniverseVersion = "2024-06-large-cap-31"

// CanonicalWhitelist is the fixed symbol universe. Backtest configs may
// only reference a subset of these symbols.
var CanonicalWhitelist = []string{
	"AAPL", "MSFT", "NVDA", "GOOGL", "GOOG", "AVGO", "META", "TSLA",
	"LLY", "XOM", "CVX", "JNJ", "ABBV", "MRK", "ABT", "TMO", "ISRG",
	"PG", "PEP", "HD", "ORCL", "CSCO", "CRM", "AMD", "MU", "INTC",
	"KLAC", "QCOM", "LRCX", "AMAT", "LIN",
}

var whitelistSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(CanonicalWhitelist))
	for _, s := range CanonicalWhitelist {
		m[s] = struct{}{}
	}
	return m
}()

// InWhitelist reports whether a symbol belongs to the canonical universe.
func InWhitelist(symbol string) bool {
	_, ok := whitelistSet[symbol]
	return ok
}
