package trendprojection

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

func TestSetCustomSettings(t *testing.T) {
	t.Parallel()
	s := Strategy{}
	s.SetDefaults()
	require.NoError(t, s.SetCustomSettings(map[string]any{periodsKey: 5, marginKey: 0.0, rsiAboveKey: 40.0}))
	assert.Equal(t, 5, s.periods)
	assert.Equal(t, 40.0, s.rsiAbove)

	assert.ErrorIs(t, s.SetCustomSettings(map[string]any{periodsKey: 0}), base.ErrInvalidCustomSettings)
	assert.ErrorIs(t, s.SetCustomSettings(map[string]any{periodsKey: 2.5}), base.ErrInvalidCustomSettings)
	assert.ErrorIs(t, s.SetCustomSettings(map[string]any{marginKey: -0.1}), base.ErrInvalidCustomSettings)
	assert.ErrorIs(t, s.SetCustomSettings(map[string]any{"lol": 1.0}), base.ErrInvalidCustomSettings)
}

func TestBuild(t *testing.T) {
	t.Parallel()
	s := Strategy{}
	s.SetDefaults()
	require.NoError(t, s.SetCustomSettings(map[string]any{entryOffsetKey: 0.0}))
	d, err := s.Build(conditions.NewLeafRegistry())
	require.NoError(t, err)

	ctx := &conditions.Context{
		Bar: data.Bar{
			Open:  decimal.NewFromInt(99),
			High:  decimal.NewFromInt(101),
			Low:   decimal.NewFromInt(98),
			Close: decimal.NewFromInt(100),
		},
		Snapshot: indicators.NewSnapshot(90, indicators.WeakBullish, map[string]float64{
			indicators.Trend:      100,
			indicators.TrendSlope: 0.5,
			indicators.RSI:        55,
		}),
	}
	r, _ := d.EvaluateEntry(ctx)
	require.True(t, r.Triggered)
	assert.Equal(t, "100", r.Price.String())

	ctx.Snapshot = indicators.NewSnapshot(90, indicators.WeakBullish, map[string]float64{
		indicators.Trend:      100,
		indicators.TrendSlope: 0.5,
	})
	r, _ = d.EvaluateEntry(ctx)
	assert.False(t, r.Triggered, "rsi unavailable")
}
