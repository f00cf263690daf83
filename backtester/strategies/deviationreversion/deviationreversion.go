package deviationreversion

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

const (
	// Name is the strategy name
	Name                  = "deviation-reversion"
	percentileBelowKey    = "percentile-below"
	entryOffsetKey        = "entry-offset"
	avoidStrongBearishKey = "avoid-strong-bearish"
	stopLossKey           = "stop-loss"
	description           = `Buys when the standardised deviation of the close from its EMA ranks in the lowest percentiles of its recent history, with a resting limit just under the close. The position is exited when the EMA falls back inside a bar's range or the stop loss is hit`
)

// Strategy builds the deviation reversion definition
type Strategy struct {
	base.Strategy
	percentileBelow    float64
	entryOffset        float64
	avoidStrongBearish bool
	stopLoss           float64
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
	s.SetBaseDefaults(decimal.NewFromFloat(0.25), 40)
	s.percentileBelow = 10
	s.entryOffset = -0.002
	s.avoidStrongBearish = true
	s.stopLoss = 0.05
}

// SetCustomSettings allows a user to modify the entry thresholds in their config
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		handled, err := s.SetBaseSetting(k, v)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		switch k {
		case percentileBelowKey:
			f, err := base.FloatSetting(k, v)
			if err != nil {
				return err
			}
			if f <= 0 || f >= 100 {
				return fmt.Errorf("%w %s must be within (0, 100): %v", base.ErrInvalidCustomSettings, k, v)
			}
			s.percentileBelow = f
		case entryOffsetKey:
			f, err := base.FloatSetting(k, v)
			if err != nil {
				return err
			}
			if f <= -1 || f > 0 {
				return fmt.Errorf("%w %s must be within (-1, 0]: %v", base.ErrInvalidCustomSettings, k, v)
			}
			s.entryOffset = f
		case avoidStrongBearishKey:
			b, err := base.BoolSetting(k, v)
			if err != nil {
				return err
			}
			s.avoidStrongBearish = b
		case stopLossKey:
			f, err := base.FloatSetting(k, v)
			if err != nil {
				return err
			}
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
	entryNodes := []*conditions.Node{
		{Leaf: conditions.IndicatorBelowName, Params: conditions.Params{"indicator": indicators.Percentile, "threshold": s.percentileBelow}},
	}
	if s.avoidStrongBearish {
		entryNodes = append(entryNodes, &conditions.Node{
			Not: &conditions.Node{Leaf: conditions.PhaseInName, Params: conditions.Params{"phases": []string{indicators.StrongBearish.String()}}},
		})
	}
	entryNodes = append(entryNodes, &conditions.Node{
		Leaf:   conditions.LimitAtName,
		Params: conditions.Params{"indicator": conditions.Close, "offset": s.entryOffset},
	})
	entry, err := conditions.BuildNode(&conditions.Node{And: entryNodes}, leaves)
	if err != nil {
		return nil, err
	}
	reversion, err := leaves.New(conditions.InRangeName, conditions.Params{"indicator": indicators.EMA})
	if err != nil {
		return nil, err
	}
	stop, err := leaves.New(conditions.StopLossName, conditions.Params{"percent": s.stopLoss})
	if err != nil {
		return nil, err
	}
	return base.NewDefinition(base.Definition{
		Name:        Name,
		Description: description,
		Entry:       entry,
		Exits: []base.ExitRule{
			{Name: "stop-loss", Priority: 1, Condition: stop},
			{Name: "ema-reversion", Priority: 2, Condition: reversion},
		},
		Sizing: s.Sizing(),
	})
}
