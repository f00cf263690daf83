package convert

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	errUnhandledType  = errors.New("unhandled type")
	errNotWholeNumber = errors.New("value is not a whole number")
)

var printer = message.NewPrinter(language.English)

// FloatFromInterface coerces the loosely typed values produced by JSON, YAML
// and viper decoding into a float64
func FloatFromInterface(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert value: %s Error: %w", v, err)
		}
		return f, nil
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	default:
		return 0, fmt.Errorf("%w: %T", errUnhandledType, raw)
	}
}

// IntFromInterface coerces a loosely typed value into an int. Floats must
// hold a whole number
func IntFromInterface(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("unable to parse %q as int: %w", v, err)
		}
		return n, nil
	}
	f, err := FloatFromInterface(raw)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", errNotWholeNumber, f)
	}
	return int(f), nil
}

// DecimalFromInterface coerces a loosely typed value into a decimal. Strings
// are parsed exactly
func DecimalFromInterface(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	f, err := FloatFromInterface(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(f), nil
}

// DecimalToHumanFriendlyString rounds the number and renders it with thousand
// separators, eg 1234567.891 to "1,234,567.89"
func DecimalToHumanFriendlyString(d decimal.Decimal, places int) string {
	return FloatToHumanFriendlyString(d.Round(int32(places)).InexactFloat64(), places)
}

// FloatToHumanFriendlyString renders a float with thousand separators and a
// fixed number of decimal places
func FloatToHumanFriendlyString(f float64, places int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return printer.Sprint(number.Decimal(f, number.Scale(places)))
}

// BoolPtr takes in boolean condition and returns pointer version of it
func BoolPtr(condition bool) *bool {
	b := condition
	return &b
}
