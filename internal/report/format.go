// Package report renders price-change reports for a chat's subscriptions.
package report

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

const (
	markerUp      = "🟢"
	markerDown    = "🔻"
	markerFlat    = "⏺"
	markerNoData  = "❓"
	headerLayout  = "2006-01-02 15:04"
	defaultSign   = "$"
	priceFormat   = "# ###.##"
	noCurrentData = "no current data"
)

type label struct {
	name string
	sign string
}

var labels = map[string]label{
	"USD":   {"Dollar", "$"},
	"EUR":   {"Euro", "$"},
	"RUB":   {"Ruble", "$"},
	"CNY":   {"Yuan", "$"},
	"BTC":   {"BTC", "$"},
	"ETH":   {"ETH", "$"},
	"XAU":   {"Gold", "$"},
	"BRENT": {"Brent", "$"},
	"MOEX":  {"MOEX", "$"},
	"RTS":   {"RTS", "$"},
	"RGBI":  {"RGBI", "$"},
}

func labelOf(sym string) label {
	if l, ok := labels[sym]; ok {
		return l
	}
	return label{name: sym, sign: defaultSign}
}

// Row is one symbol's inputs. Current is nil when no price is available;
// Prior is nil when history has nothing 24h old.
type Row struct {
	Symbol  string
	Current *decimal.Decimal
	Prior   *decimal.Decimal
}

// Format renders rows under a timestamp header, one line per row in the given order.
func Format(at time.Time, rows []Row) string {
	var b strings.Builder
	b.WriteString("Rates as of ")
	b.WriteString(at.Format(headerLayout))
	b.WriteString(":")
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(Line(r))
	}
	return b.String()
}

// Line renders a single row, e.g. "🟢BTC +2.50%  $64 123.46".
func Line(r Row) string {
	l := labelOf(domain.NormalizeSymbol(r.Symbol))
	if r.Current == nil {
		return markerNoData + l.name + " — " + noCurrentData
	}
	pct, trend := domain.PercentChange(*r.Current, r.Prior)
	return marker(trend) + l.name + " " + domain.FormatPercent(pct) + "  " + FormatPrice(l.sign, *r.Current)
}

func marker(t domain.Trend) string {
	switch t {
	case domain.TrendUp:
		return markerUp
	case domain.TrendDown:
		return markerDown
	default:
		return markerFlat
	}
}

// FormatPrice renders p with two decimals and space-grouped thousands: "$1 234.56".
// p is rounded in decimal first, so the float handed to humanize only has to
// carry two fractional digits.
func FormatPrice(sign string, p decimal.Decimal) string {
	p = p.Round(2)
	out := sign + humanize.FormatFloat(priceFormat, p.Abs().InexactFloat64())
	if p.IsNegative() {
		out = "-" + out
	}
	return out
}
