package ematouch

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

func testBar(o, h, l, c string) data.Bar {
	return data.Bar{
		Open:  decimal.RequireFromString(o),
		High:  decimal.RequireFromString(h),
		Low:   decimal.RequireFromString(l),
		Close: decimal.RequireFromString(c),
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	s := Strategy{}
	assert.Equal(t, Name, s.Name())
	assert.NotEmpty(t, s.Description())
	assert.IsType(t, &Strategy{}, s.New())
}

func TestSetCustomSettings(t *testing.T) {
	t.Parallel()
	s := Strategy{}
	s.SetDefaults()
	require.NoError(t, s.SetCustomSettings(nil))

	settings := map[string]any{
		touchOffsetKey: -0.01,
		takeProfitKey:  0.05,
		stopLossKey:    0.01,
	}
	require.NoError(t, s.SetCustomSettings(settings))
	assert.Equal(t, -0.01, s.touchOffset)
	assert.Equal(t, 0.05, s.takeProfit)

	settings[stopLossKey] = "0.01"
	assert.ErrorIs(t, s.SetCustomSettings(settings), base.ErrInvalidCustomSettings)
	settings[stopLossKey] = 1.0
	assert.ErrorIs(t, s.SetCustomSettings(settings), base.ErrInvalidCustomSettings)
	settings[stopLossKey] = 0.01
	settings["lol"] = 1.0
	assert.ErrorIs(t, s.SetCustomSettings(settings), base.ErrInvalidCustomSettings)
}

func TestBuild(t *testing.T) {
	t.Parallel()
	s := Strategy{}
	s.SetDefaults()
	d, err := s.Build(conditions.NewLeafRegistry())
	require.NoError(t, err)

	ctx := &conditions.Context{
		Offset: 30,
		Bar:    testBar("101", "102.5", "99", "102"),
		Snapshot: indicators.NewSnapshot(30, indicators.WeakBullish, map[string]float64{
			indicators.EMA:        100,
			indicators.TrendSlope: 0.2,
		}),
	}
	r, skipped := d.EvaluateEntry(ctx)
	assert.Empty(t, skipped)
	require.True(t, r.Triggered)
	assert.Equal(t, "100", r.Price.String())

	ctx.Position = holdings.NewPosition("BTC-USD", Name)
	require.NoError(t, ctx.Position.AddFill(&holdings.Fill{Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1), Offset: 20}))
	ctx.Snapshot = indicators.NewSnapshot(30, indicators.WeakBearish, map[string]float64{indicators.TrendSlope: -0.1})
	rule, exit, ok := d.EvaluateExit(ctx)
	require.True(t, ok)
	assert.Equal(t, "trend-turn", rule.Name)
	assert.True(t, rule.Once)
	assert.False(t, exit.HasPrice)
}
