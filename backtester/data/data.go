package data

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the bar for non-positive prices and inconsistent
// high/low bounds
func (b *Bar) Validate() error {
	if b.Time.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrMalformedBar)
	}
	if !b.Open.IsPositive() || !b.High.IsPositive() || !b.Low.IsPositive() || !b.Close.IsPositive() {
		return fmt.Errorf("%w: prices must be positive at %v", ErrMalformedBar, b.Time)
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("%w: negative volume at %v", ErrMalformedBar, b.Time)
	}
	if b.High.LessThan(b.Low) ||
		b.High.LessThan(b.Open) || b.High.LessThan(b.Close) ||
		b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.Close) {
		return fmt.Errorf("%w: inconsistent high/low at %v", ErrMalformedBar, b.Time)
	}
	return nil
}

// NewSeries validates and copies bars into an immutable series
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %w", symbol, ErrNoBars)
	}
	s := &Series{
		symbol: symbol,
		bars:   make([]Bar, len(bars)),
	}
	copy(s.bars, bars)
	for i := range s.bars {
		if err := s.bars[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s bar %d: %w", symbol, i, err)
		}
		if i > 0 && !s.bars[i].Time.After(s.bars[i-1].Time) {
			return nil, fmt.Errorf("%s bar %d %v: %w", symbol, i, s.bars[i].Time, ErrNonMonotonicTime)
		}
	}
	return s, nil
}

// Symbol returns the series symbol
func (s *Series) Symbol() string {
	return s.symbol
}

// Len returns the number of bars
func (s *Series) Len() int {
	return len(s.bars)
}

// At returns the bar at offset i
func (s *Series) At(i int) (Bar, error) {
	if i < 0 || i >= len(s.bars) {
		return Bar{}, fmt.Errorf("%s %w: %d of %d", s.symbol, ErrOffsetOutOfRange, i, len(s.bars))
	}
	return s.bars[i], nil
}

// Bars returns a copy of every bar
func (s *Series) Bars() []Bar {
	resp := make([]Bar, len(s.bars))
	copy(resp, s.bars)
	return resp
}

// Start returns the time of the first bar
func (s *Series) Start() time.Time {
	return s.bars[0].Time
}

// End returns the time of the last bar
func (s *Series) End() time.Time {
	return s.bars[len(s.bars)-1].Time
}

// OffsetOf returns the offset of the bar stamped t
func (s *Series) OffsetOf(t time.Time) (int, bool) {
	lo, hi := 0, len(s.bars)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.bars[mid].Time.Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.bars) && s.bars[lo].Time.Equal(t) {
		return lo, true
	}
	return 0, false
}

// Timeline merges the timestamps of every series into one strictly increasing
// list
func Timeline(series ...*Series) []time.Time {
	var total int
	for i := range series {
		total += len(series[i].bars)
	}
	resp := make([]time.Time, 0, total)
	cursors := make([]int, len(series))
	for {
		var next time.Time
		found := false
		for i := range series {
			if cursors[i] >= len(series[i].bars) {
				continue
			}
			t := series[i].bars[cursors[i]].Time
			if !found || t.Before(next) {
				next = t
				found = true
			}
		}
		if !found {
			return resp
		}
		for i := range series {
			if cursors[i] < len(series[i].bars) && series[i].bars[cursors[i]].Time.Equal(next) {
				cursors[i]++
			}
		}
		resp = append(resp, next)
	}
}
