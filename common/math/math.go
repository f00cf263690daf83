package math

import (
	"errors"
	"math"
)

var (
	errZeroValue    = errors.New("cannot calculate with zero value")
	errNoValues     = errors.New("no values to calculate")
	errInvalidRatio = errors.New("ratio cannot be calculated")
)

// CalculateCompoundAnnualGrowthRate returns CAGR as a percentage.
// Using days, intervals per year would be 365 and number of intervals would be
// the number of days elapsed
func CalculateCompoundAnnualGrowthRate(openValue, closeValue, intervalsPerYear, numberOfIntervals float64) (float64, error) {
	if openValue <= 0 || intervalsPerYear <= 0 || numberOfIntervals <= 0 {
		return 0, errZeroValue
	}
	if closeValue <= 0 {
		return -100, nil
	}
	k := math.Pow(closeValue/openValue, intervalsPerYear/numberOfIntervals) - 1
	return k * 100, nil
}

// CalculateCalmarRatio compares the annualised return to the worst drawdown,
// both expressed as percentages
func CalculateCalmarRatio(annualisedReturn, maxDrawdown float64) (float64, error) {
	if maxDrawdown == 0 {
		return 0, errZeroValue
	}
	return annualisedReturn / math.Abs(maxDrawdown), nil
}

// PopulationStandardDeviation calculates standard deviation using population based calculation
func PopulationStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	avg := ArithmeticAverage(values)
	var sum float64
	for x := range values {
		d := values[x] - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// SampleStandardDeviation measures the dispersion of a sample relative to its
// mean using Bessel's correction
func SampleStandardDeviation(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	avg := ArithmeticAverage(values)
	var sum float64
	for x := range values {
		d := values[x] - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// ArithmeticAverage divides the sum of all values by the length of values
func ArithmeticAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for x := range values {
		sum += values[x]
	}
	return sum / float64(len(values))
}

// CalculateSortinoRatio returns the sortino ratio of per period movements
// compared to a per period risk-free rate
func CalculateSortinoRatio(movementPerCandle []float64, riskFreeRate, average float64) (float64, error) {
	if len(movementPerCandle) == 0 {
		return 0, errNoValues
	}
	var negativeSquared float64
	for x := range movementPerCandle {
		if d := movementPerCandle[x] - riskFreeRate; d < 0 {
			negativeSquared += d * d
		}
	}
	downside := math.Sqrt(negativeSquared / float64(len(movementPerCandle)))
	if downside == 0 {
		return 0, errInvalidRatio
	}
	return (average - riskFreeRate) / downside, nil
}

// CalculateSharpeRatio returns the sharpe ratio of per period movements
// compared to a per period risk-free rate
func CalculateSharpeRatio(movementPerCandle []float64, riskFreeRate, average float64) (float64, error) {
	if len(movementPerCandle) <= 1 {
		return 0, errNoValues
	}
	excess := make([]float64, len(movementPerCandle))
	for i := range movementPerCandle {
		excess[i] = movementPerCandle[i] - riskFreeRate
	}
	sd := SampleStandardDeviation(excess)
	if sd == 0 {
		return 0, errInvalidRatio
	}
	return (average - riskFreeRate) / sd, nil
}

// PercentileRank returns where x sits within values as a percentage, counting
// ties as half. Values must be non-empty
func PercentileRank(values []float64, x float64) (float64, error) {
	if len(values) == 0 {
		return 0, errNoValues
	}
	var below, equal float64
	for i := range values {
		switch {
		case values[i] < x:
			below++
		case values[i] == x:
			equal++
		}
	}
	return 100 * (below + equal/2) / float64(len(values)), nil
}
