package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a price observation for a symbol, quoted in USD.
type Quote struct {
	Symbol string
	Price  decimal.Decimal
	AsOf   time.Time // UTC
}

// ErrorLogEntry is one append-only diagnostic record.
type ErrorLogEntry struct {
	At       time.Time // UTC
	Function string
	ChatID   *int64 // nil when the failure is not tied to a chat
	Message  string
}
