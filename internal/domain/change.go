package domain

import "github.com/shopspring/decimal"

// Trend is the direction of a price move over the comparison window.
type Trend int

const (
	TrendFlat Trend = iota
	TrendUp
	TrendDown
)

var hundred = decimal.NewFromInt(100)

// PercentChange returns (current-prior)/prior*100 rounded to two places and
// the direction of the rounded value, so the trend never disagrees with the
// displayed percent. A missing or zero prior yields zero change and TrendFlat.
func PercentChange(current decimal.Decimal, prior *decimal.Decimal) (decimal.Decimal, Trend) {
	if prior == nil || prior.IsZero() {
		return decimal.Zero, TrendFlat
	}
	pct := current.Sub(*prior).Div(*prior).Mul(hundred).Round(2)
	switch pct.Sign() {
	case 1:
		return pct, TrendUp
	case -1:
		return pct, TrendDown
	default:
		return pct, TrendFlat
	}
}

// FormatPercent renders pct with two decimals and an explicit plus sign for gains.
func FormatPercent(pct decimal.Decimal) string {
	s := pct.StringFixed(2)
	if pct.Sign() > 0 {
		return "+" + s + "%"
	}
	return s + "%"
}

var fiat = map[string]struct{}{
	"USD": {}, "EUR": {}, "RUB": {}, "GBP": {}, "JPY": {}, "CNY": {},
}

// IsFiat reports whether sym is a fiat currency priced through conversion rather than a quote lookup.
func IsFiat(sym string) bool {
	_, ok := fiat[NormalizeSymbol(sym)]
	return ok
}
