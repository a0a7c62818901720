// Package symbols maps exchange-specific instrument names onto one canonical
// spelling so books from different venues group under the same symbol.
package symbols

import "strings"

// multiplierAliases undoes the 1000x contract naming some venues use.
var multiplierAliases = map[string]string{
	"1000BONKUSDT": "BONKUSDT",
	"1000PEPEUSDT": "PEPEUSDT",
	"1000SHIBUSDT": "SHIBUSDT",
	"SHIB1000USDT": "SHIBUSDT",
}

// Canonical returns sym in uppercase, separator-free, BTC-not-XBT form.
// Unknown exchanges only get the generic cleanup.
func Canonical(exchange, sym string) string {
	sym = strings.ToUpper(strings.TrimSpace(sym))

	switch strings.ToLower(exchange) {
	case "kucoin":
		sym = strings.TrimSuffix(strings.ReplaceAll(sym, "-", ""), "M")
	case "okx":
		sym = strings.TrimSuffix(sym, "-SWAP")
	}

	sym = strings.NewReplacer("-", "", "/", "", "_", "").Replace(sym)
	if strings.HasPrefix(sym, "XBT") {
		sym = "BTC" + sym[3:]
	}
	if alias, ok := multiplierAliases[sym]; ok {
		sym = alias
	}
	return sym
}
