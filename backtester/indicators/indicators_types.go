package indicators

import (
	"errors"
	"time"
)

// Names of the values carried by a Snapshot
const (
	EMA                = "ema"
	Trend              = "trend"
	TrendSlope         = "trend-slope"
	TrendSlopeRelative = "trend-slope-relative"
	Deviation          = "deviation"
	DeviationMean      = "deviation-mean"
	DeviationStdDev    = "deviation-stddev"
	ZScore             = "zscore"
	Percentile         = "percentile"
	RSI                = "rsi"
	ATR                = "atr"
)

// taWindowMultiplier bounds the history handed to gct-ta as a multiple of the
// longest gct-ta period
const taWindowMultiplier = 5

var (
	errInvalidPeriod    = errors.New("period must be greater than zero")
	errInvalidFloor     = errors.New("variance floor must be greater than zero")
	errInvalidSlopes    = errors.New("flat slope must be non-negative and no greater than strong slope")
	errInvalidBuckets   = errors.New("bucket bounds must satisfy 0 <= low < high <= 100")
	errInvalidDominance = errors.New("dominance must be within (0, 1]")
)

// Phase is the market cycle label derived from trend slope and the
// distribution of recent percentiles
type Phase uint8

// Phase values
const (
	PhaseUnknown Phase = iota
	StrongBullish
	WeakBullish
	Consolidation
	WeakBearish
	StrongBearish
)

// Settings configures an indicator Pipeline
type Settings struct {
	// EMAPeriod is the fast average the deviation is measured against
	EMAPeriod int `json:"ema-period" mapstructure:"ema-period"`
	// TrendPeriod is the slow average used for slope and projections
	TrendPeriod int `json:"trend-period" mapstructure:"trend-period"`
	// DeviationPeriod sets the smoothing of the deviation mean and variance
	DeviationPeriod int `json:"deviation-period" mapstructure:"deviation-period"`
	// PercentileWindow is the number of prior standardised deviations ranked
	// against the current one
	PercentileWindow int `json:"percentile-window" mapstructure:"percentile-window"`
	// SlopeLookback is the number of bars the trend slope is measured over
	SlopeLookback int `json:"slope-lookback" mapstructure:"slope-lookback"`
	// PhaseLookback is the number of percentile buckets considered for phase
	PhaseLookback int     `json:"phase-lookback" mapstructure:"phase-lookback"`
	VarianceFloor float64 `json:"variance-floor" mapstructure:"variance-floor"`
	// FlatSlope and StrongSlope are relative per bar slope thresholds
	FlatSlope   float64 `json:"flat-slope" mapstructure:"flat-slope"`
	StrongSlope float64 `json:"strong-slope" mapstructure:"strong-slope"`
	LowBucket   float64 `json:"low-bucket" mapstructure:"low-bucket"`
	HighBucket  float64 `json:"high-bucket" mapstructure:"high-bucket"`
	Dominance   float64 `json:"dominance" mapstructure:"dominance"`
	// RSIPeriod and ATRPeriod enable gct-ta values, zero disables them
	RSIPeriod int `json:"rsi-period" mapstructure:"rsi-period"`
	ATRPeriod int `json:"atr-period" mapstructure:"atr-period"`
}

// Snapshot holds the indicator values computed at the close of one bar.
// Values which cannot be computed yet are absent
type Snapshot struct {
	Offset int
	Time   time.Time
	Phase  Phase
	values map[string]float64
}

// Pipeline folds bars one at a time into bounded indicator state. It never
// sees a bar beyond the one being folded
type Pipeline struct {
	settings Settings
	offset   int

	fast  ewma
	trend ewma

	devAlpha float64
	devMean  float64
	devVar   float64

	priorScores *window
	trends      *window
	buckets     *window

	highs  *window
	lows   *window
	closes *window
}

type ewma struct {
	alpha  float64
	value  float64
	seeded bool
}

// window is a fixed capacity ring buffer, oldest value first
type window struct {
	data  []float64
	start int
	size  int
}
