package trendprojection

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

const (
	// Name is the strategy name
	Name           = "trend-projection"
	periodsKey     = "periods"
	marginKey      = "margin"
	entryOffsetKey = "entry-offset"
	stopLossKey    = "stop-loss"
	rsiAboveKey    = "rsi-above"
	description    = `Projects the trend average forward using its slope. Buys under the close when the projection clears the close by a margin in a bullish phase, and sells once the projection turns below the close`
)

// Strategy builds the trend projection definition
type Strategy struct {
	base.Strategy
	periods     int
	margin      float64
	entryOffset float64
	stopLoss    float64
	rsiAbove    float64
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
	s.SetBaseDefaults(decimal.NewFromFloat(0.5), 60)
	s.periods = 10
	s.margin = 0.01
	s.entryOffset = -0.001
	s.stopLoss = 0.04
	s.rsiAbove = 50
}

// SetCustomSettings allows a user to modify the projection in their config
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
		case periodsKey:
			n, err := base.IntSetting(k, v)
			if err != nil {
				return err
			}
			if n <= 0 {
				return fmt.Errorf("%w %s must be positive: %v", base.ErrInvalidCustomSettings, k, v)
			}
			s.periods = n
		case marginKey, entryOffsetKey, stopLossKey, rsiAboveKey:
			f, err := base.FloatSetting(k, v)
			if err != nil {
				return err
			}
			switch {
			case k == marginKey && f >= 0:
				s.margin = f
			case k == entryOffsetKey && f > -1 && f <= 0:
				s.entryOffset = f
			case k == stopLossKey && f > 0 && f < 1:
				s.stopLoss = f
			case k == rsiAboveKey && f >= 0 && f < 100:
				s.rsiAbove = f
			default:
				return fmt.Errorf("%w provided %s value is out of range: %v", base.ErrInvalidCustomSettings, k, v)
			}
		default:
			return fmt.Errorf("%w unrecognised custom setting key %v with value %v. Cannot apply", base.ErrInvalidCustomSettings, k, v)
		}
	}
	return nil
}

// Build returns the strategy definition
func (s *Strategy) Build(leaves *conditions.LeafRegistry) (*base.Definition, error) {
	entry, err := conditions.BuildNode(&conditions.Node{And: []*conditions.Node{
		{Leaf: conditions.ProjectionAboveName, Params: conditions.Params{"periods": s.periods, "margin": s.margin}},
		{Leaf: conditions.PhaseInName, Params: conditions.Params{"phases": []string{
			indicators.StrongBullish.String(),
			indicators.WeakBullish.String(),
		}}},
		{Leaf: conditions.IndicatorAboveName, Params: conditions.Params{"indicator": indicators.RSI, "threshold": s.rsiAbove}},
		{Leaf: conditions.LimitAtName, Params: conditions.Params{"indicator": conditions.Close, "offset": s.entryOffset}},
	}}, leaves)
	if err != nil {
		return nil, err
	}
	projectionTurn, err := conditions.BuildNode(&conditions.Node{Or: []*conditions.Node{
		{Leaf: conditions.ProjectionBelowName, Params: conditions.Params{"periods": s.periods}},
		{Leaf: conditions.PhaseInName, Params: conditions.Params{"phases": []string{indicators.StrongBearish.String()}}},
	}}, leaves)
	if err != nil {
		return nil, err
	}
	stopLoss, err := leaves.New(conditions.StopLossName, conditions.Params{"percent": s.stopLoss})
	if err != nil {
		return nil, err
	}
	return base.NewDefinition(base.Definition{
		Name:        Name,
		Description: description,
		Entry:       entry,
		Exits: []base.ExitRule{
			{Name: "stop-loss", Priority: 1, Condition: stopLoss},
			{Name: "projection-turn", Priority: 2, Condition: projectionTurn},
		},
		Sizing: s.Sizing(),
	})
}
