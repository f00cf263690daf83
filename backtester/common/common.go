package common

import (
	"fmt"
	"strings"
)

// DataSourceToInt converts the config string value into an int
func DataSourceToInt(source string) (int64, error) {
	switch strings.ToLower(source) {
	case CSVStr:
		return DataCSV, nil
	case DatabaseStr:
		return DataDatabase, nil
	default:
		return 0, fmt.Errorf("%w '%v'", ErrInvalidDataSource, source)
	}
}

// ParseSide converts a string into a Side
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("%w '%v'", ErrInvalidSide, s)
	}
}

// Opposite returns the other side of the book
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// String implements the stringer interface
func (s Side) String() string {
	return string(s)
}
