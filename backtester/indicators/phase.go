package indicators

import (
	"errors"
	"fmt"
	"strings"
)

var phaseNames = [...]string{
	PhaseUnknown:  "unknown",
	StrongBullish: "strong-bullish",
	WeakBullish:   "weak-bullish",
	Consolidation: "consolidation",
	WeakBearish:   "weak-bearish",
	StrongBearish: "strong-bearish",
}

var errUnknownPhase = errors.New("unrecognised phase")

// String implements the stringer interface
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return phaseNames[PhaseUnknown]
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase converts a phase name into a Phase
func ParsePhase(s string) (Phase, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := range phaseNames {
		if phaseNames[i] == s {
			return Phase(i), nil
		}
	}
	return PhaseUnknown, fmt.Errorf("%w: %q", errUnknownPhase, s)
}

// Bullish reports whether the phase is one of the bullish labels
func (p Phase) Bullish() bool {
	return p == StrongBullish || p == WeakBullish
}

// Bearish reports whether the phase is one of the bearish labels
func (p Phase) Bearish() bool {
	return p == StrongBearish || p == WeakBearish
}

type bucket float64

const (
	bucketLow bucket = iota
	bucketMid
	bucketHigh
)

func (s *Settings) bucketOf(percentile float64) bucket {
	switch {
	case percentile <= s.LowBucket:
		return bucketLow
	case percentile >= s.HighBucket:
		return bucketHigh
	default:
		return bucketMid
	}
}

// classify labels the phase from the relative trend slope and the share of
// recent percentiles in the high and low buckets
func (s *Settings) classify(relSlope float64, buckets *window) Phase {
	var highs, lows float64
	for i := 0; i < buckets.len(); i++ {
		switch bucket(buckets.at(i)) {
		case bucketHigh:
			highs++
		case bucketLow:
			lows++
		}
	}
	var highShare, lowShare float64
	if n := float64(buckets.len()); n > 0 {
		highShare, lowShare = highs/n, lows/n
	}
	switch {
	case relSlope <= s.FlatSlope && relSlope >= -s.FlatSlope:
		return Consolidation
	case relSlope > 0:
		if relSlope > s.StrongSlope && highShare >= s.Dominance {
			return StrongBullish
		}
		return WeakBullish
	default:
		if relSlope < -s.StrongSlope && lowShare >= s.Dominance {
			return StrongBearish
		}
		return WeakBearish
	}
}
