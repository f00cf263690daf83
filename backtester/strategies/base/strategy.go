package base

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// SetBaseDefaults sets the shared sizing settings to a strategy's defaults
func (s *Strategy) SetBaseDefaults(positionFraction decimal.Decimal, maxHoldingBars int) {
	s.positionFraction = positionFraction
	s.maxHoldingBars = maxHoldingBars
}

// SetBaseSetting applies a shared custom setting. It reports false when the
// key is not a shared setting so the caller can handle it
func (s *Strategy) SetBaseSetting(key string, value any) (bool, error) {
	switch key {
	case PositionFractionKey:
		f, err := FloatSetting(key, value)
		if err != nil {
			return true, err
		}
		if f <= 0 || f > 1 {
			return true, fmt.Errorf("%w %s must be within (0, 1]: %v", ErrInvalidCustomSettings, key, value)
		}
		s.positionFraction = decimal.NewFromFloat(f)
	case MaxHoldingBarsKey:
		n, err := IntSetting(key, value)
		if err != nil {
			return true, err
		}
		if n < 0 {
			return true, fmt.Errorf("%w %s cannot be negative: %v", ErrInvalidCustomSettings, key, value)
		}
		s.maxHoldingBars = n
	default:
		return false, nil
	}
	return true, nil
}

// Sizing returns single level sizing from the shared settings
func (s *Strategy) Sizing() Sizing {
	return Sizing{
		PositionFraction: s.positionFraction,
		Levels:           SingleLevel(),
		MaxHoldingBars:   s.maxHoldingBars,
	}
}

// FloatSetting parses a numeric custom setting. Strings are rejected
func FloatSetting(key string, value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return 0, fmt.Errorf("%w provided %s value could not be parsed: %v", ErrInvalidCustomSettings, key, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w provided %s value is not finite: %v", ErrInvalidCustomSettings, key, value)
	}
	return f, nil
}

// IntSetting parses a whole number custom setting
func IntSetting(key string, value any) (int, error) {
	f, err := FloatSetting(key, value)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w provided %s value is not a whole number: %v", ErrInvalidCustomSettings, key, value)
	}
	return int(f), nil
}

// BoolSetting parses a boolean custom setting
func BoolSetting(key string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w provided %s value could not be parsed: %v", ErrInvalidCustomSettings, key, value)
	}
	return b, nil
}
