package conditions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
)

func TestNewScript(t *testing.T) {
	t.Parallel()
	_, err := NewScript("", "")
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidParam)
	}
	_, err = NewScript("unknown_value > 1", "")
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidParam)
	}
	s, err := NewScript("percentile < 10", "ema * 0.5")
	require.NoError(t, err)
	assert.Equal(t, `script("percentile < 10","ema * 0.5")`, s.String())
}

func TestScriptEvaluate(t *testing.T) {
	t.Parallel()
	s, err := NewScript(`percentile < 10 && phase != "strong-bearish"`, "")
	require.NoError(t, err)

	ctx := testContext(map[string]float64{indicators.Percentile: 5}, indicators.WeakBullish)
	r := s.Evaluate(ctx)
	assert.True(t, r.Triggered)
	assert.False(t, r.HasPrice)

	ctx = testContext(map[string]float64{indicators.Percentile: 5}, indicators.StrongBearish)
	assert.False(t, s.Evaluate(ctx).Triggered)

	ctx = testContext(nil, indicators.WeakBullish)
	assert.False(t, s.Evaluate(ctx).Triggered, "undefined inputs must not trigger")

	// the compiled script is shared between evaluations
	ctx = testContext(map[string]float64{indicators.Percentile: 1}, indicators.Consolidation)
	assert.True(t, s.Evaluate(ctx).Triggered)
}

func TestScriptUnavailableInputs(t *testing.T) {
	t.Parallel()
	empty := testContext(nil, indicators.WeakBullish)
	for _, expr := range []string{
		"percentile != 50",
		"!percentile",
		"is_undefined(rsi) || rsi < 30",
		"holding_bars < 3",
	} {
		s, err := NewScript(expr, "")
		require.NoError(t, err, expr)
		assert.False(t, s.Evaluate(empty).Triggered, expr)
	}

	s, err := NewScript("percentile != 50", "")
	require.NoError(t, err)
	assert.True(t, s.Evaluate(testContext(map[string]float64{indicators.Percentile: 20}, indicators.WeakBullish)).Triggered)

	// names are matched whole so trend_slope does not need trend
	s, err = NewScript("trend_slope > 0", "")
	require.NoError(t, err)
	assert.Equal(t, []string{indicators.TrendSlope}, s.referenced)
	assert.True(t, s.Evaluate(testContext(map[string]float64{indicators.TrendSlope: 0.5}, indicators.WeakBullish)).Triggered)

	s, err = NewScript("close > 0", "ema * 0.99")
	require.NoError(t, err)
	assert.False(t, s.Evaluate(empty).Triggered, "an unavailable price input must not trigger")
}

func TestScriptPrice(t *testing.T) {
	t.Parallel()
	s, err := NewScript("close > trend_slope", "ema * 0.5")
	require.NoError(t, err)
	ctx := testContext(map[string]float64{indicators.EMA: 90, indicators.TrendSlope: 1}, indicators.PhaseUnknown)
	r := s.Evaluate(ctx)
	assert.True(t, r.Triggered)
	assert.True(t, r.HasPrice)
	assert.Equal(t, "45", r.Price.String())

	s, err = NewScript("true", `"not a price"`)
	require.NoError(t, err)
	assert.False(t, s.Evaluate(ctx).Triggered)

	s, err = NewScript("true", "0")
	require.NoError(t, err)
	assert.False(t, s.Evaluate(ctx).Triggered)
}
