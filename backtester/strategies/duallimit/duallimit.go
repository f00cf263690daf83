package duallimit

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

const (
	// Name is the strategy name
	Name             = "dual-limit"
	firstOffsetKey   = "first-offset"
	secondOffsetKey  = "second-offset"
	firstWeightKey   = "first-weight"
	zscoreBelowKey   = "zscore-below"
	takeProfitKey    = "take-profit"
	stopLossKey      = "stop-loss"
	regimeFilterName = "regime"
	description      = `Rests two limit buys under the EMA whenever the standardised deviation is stretched to the downside, splitting the entry between a shallow and a deep level. Entries are skipped outside bullish or consolidating phases`
)

// Strategy builds the dual limit definition
type Strategy struct {
	base.Strategy
	firstOffset  decimal.Decimal
	secondOffset decimal.Decimal
	firstWeight  decimal.Decimal
	zscoreBelow  float64
	takeProfit   float64
	stopLoss     float64
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
	s.SetBaseDefaults(decimal.NewFromFloat(0.5), 30)
	s.firstOffset = decimal.NewFromFloat(-0.005)
	s.secondOffset = decimal.NewFromFloat(-0.02)
	s.firstWeight = decimal.NewFromFloat(0.5)
	s.zscoreBelow = -1
	s.takeProfit = 0.02
	s.stopLoss = 0.06
}

// SetCustomSettings allows a user to modify the two levels in their config
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
		case firstOffsetKey, secondOffsetKey:
			if f <= -1 || f > 0 {
				return fmt.Errorf("%w %s must be within (-1, 0]: %v", base.ErrInvalidCustomSettings, k, v)
			}
			if k == firstOffsetKey {
				s.firstOffset = decimal.NewFromFloat(f)
			} else {
				s.secondOffset = decimal.NewFromFloat(f)
			}
		case firstWeightKey:
			if f <= 0 || f >= 1 {
				return fmt.Errorf("%w %s must be within (0, 1): %v", base.ErrInvalidCustomSettings, k, v)
			}
			s.firstWeight = decimal.NewFromFloat(f)
		case zscoreBelowKey:
			s.zscoreBelow = f
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
		{Leaf: conditions.IndicatorBelowName, Params: conditions.Params{"indicator": indicators.ZScore, "threshold": s.zscoreBelow}},
		{Leaf: conditions.LimitAtName, Params: conditions.Params{"indicator": indicators.EMA}},
	}}, leaves)
	if err != nil {
		return nil, err
	}
	regime, err := leaves.New(conditions.PhaseInName, conditions.Params{"phases": []string{
		indicators.StrongBullish.String(),
		indicators.WeakBullish.String(),
		indicators.Consolidation.String(),
	}})
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
	sizing := s.Sizing()
	sizing.Levels = []base.Level{
		{Offset: s.firstOffset, Weight: s.firstWeight},
		{Offset: s.secondOffset, Weight: decimal.NewFromInt(1).Sub(s.firstWeight)},
	}
	return base.NewDefinition(base.Definition{
		Name:        Name,
		Description: description,
		Entry:       entry,
		Filters:     []base.Filter{{Name: regimeFilterName, Condition: regime}},
		Exits: []base.ExitRule{
			{Name: "stop-loss", Priority: 1, Condition: stopLoss},
			{Name: "take-profit", Priority: 2, Condition: takeProfit},
		},
		Sizing: sizing,
	})
}
