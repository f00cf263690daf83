package data

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoBars is returned when a series is created without any bars
	ErrNoBars = errors.New("no bars provided")
	// ErrEmptySymbol is returned when a series has no symbol
	ErrEmptySymbol = errors.New("symbol cannot be empty")
	// ErrNonMonotonicTime is returned when bar timestamps do not strictly increase
	ErrNonMonotonicTime = errors.New("bar timestamps must be strictly increasing")
	// ErrMalformedBar is returned when a bar violates OHLC ordering or has
	// non-positive prices
	ErrMalformedBar = errors.New("malformed bar")
	// ErrOffsetOutOfRange is returned when requesting a bar outside the series
	ErrOffsetOutOfRange = errors.New("offset out of range")
)

// Bar is one OHLCV sample. Bars are immutable once part of a Series
type Bar struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Series holds the time ordered bars of a single symbol
type Series struct {
	symbol string
	bars   []Bar
}
