package ematouch

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

const (
	// Name is the strategy name
	Name           = "ema-touch"
	touchOffsetKey = "touch-offset"
	takeProfitKey  = "take-profit"
	stopLossKey    = "stop-loss"
	description    = `Buys pullbacks in an uptrend. When the trend average is rising and a bar's low touches the EMA, a limit buy rests at the touched level for the next bar. Exits on take profit, stop loss, or once when the trend turns down`
)

// Strategy builds the EMA touch definition
type Strategy struct {
	base.Strategy
	touchOffset float64
	takeProfit  float64
	stopLoss    float64
}

// New returns a fresh builder
func (s *Strategy) New() base.Builder {
	return new(Strategy)
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.SetBaseDefaults(decimal.NewFromFloat(0.5), 0)
	s.touchOffset = 0
	s.takeProfit = 0.03
	s.stopLoss = 0.02
}

// SetCustomSettings allows a user to modify the touch level and exits in their config
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		handled, err := s.SetBaseSetting(k, v)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		f, err := base.FloatSetting(k, v)
		if err != nil {
			return err
		}
		switch k {
		case touchOffsetKey:
			if f <= -1 || f >= 1 {
				return fmt.Errorf("%w %s must be within (-1, 1): %v", base.ErrInvalidCustomSettings, k, v)
			}
			s.touchOffset = f
		case takeProfitKey:
			if f <= 0 {
				return fmt.Errorf("%w %s must be positive: %v", base.ErrInvalidCustomSettings, k, v)
			}
			s.takeProfit = f
		case stopLossKey:
			if f <= 0 || f >= 1 {
				return fmt.Errorf("%w %s must be within (0, 1): %v", base.ErrInvalidCustomSettings, k, v)
			}
			s.stopLoss = f
		default:
			return fmt.Errorf("%w unrecognised custom setting key %v with value %v. Cannot apply", base.ErrInvalidCustomSettings, k, v)
		}
	}
	return nil
}

// Build returns the strategy definition
func (s *Strategy) Build(leaves *conditions.LeafRegistry) (*base.Definition, error) {
	entry, err := conditions.BuildNode(&conditions.Node{And: []*conditions.Node{
		{Leaf: conditions.TrendSignName, Params: conditions.Params{"positive": true}},
		{Leaf: conditions.PriceTouchBelowName, Params: conditions.Params{"indicator": indicators.EMA, "offset": s.touchOffset}},
	}}, leaves)
	if err != nil {
		return nil, err
	}
	takeProfit, err := leaves.New(conditions.TakeProfitName, conditions.Params{"percent": s.takeProfit})
	if err != nil {
		return nil, err
	}
	stopLoss, err := leaves.New(conditions.StopLossName, conditions.Params{"percent": s.stopLoss})
	if err != nil {
		return nil, err
	}
	trendTurn, err := leaves.New(conditions.TrendSignName, conditions.Params{"positive": false})
	if err != nil {
		return nil, err
	}
	return base.NewDefinition(base.Definition{
		Name:        Name,
		Description: description,
		Entry:       entry,
		Exits: []base.ExitRule{
			{Name: "stop-loss", Priority: 1, Condition: stopLoss},
			{Name: "take-profit", Priority: 2, Condition: takeProfit},
			{Name: "trend-turn", Priority: 3, Condition: trendTurn, Once: true},
		},
		Sizing: s.Sizing(),
	})
}
