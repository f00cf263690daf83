package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/log"
)

var (
	errInvalidColumnCount = errors.New("expected timestamp,open,high,low,close[,volume] columns")
	errInvalidTimestamp   = errors.New("invalid timestamp")
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadFile reads a csv file of bars for a single symbol
func LoadFile(path, symbol string) (s *data.Series, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Errorf(log.DataMgr, "%s could not close %s: %v", symbol, path, closeErr)
		}
	}()
	s, err = LoadData(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof(log.DataMgr, "%s loaded %d bars from %s", symbol, s.Len(), path)
	return s, nil
}

// LoadData parses rows of timestamp,open,high,low,close[,volume]. A leading
// header row is skipped. Timestamps are unix seconds, unix milliseconds or
// RFC3339 style strings
func LoadData(r io.Reader, symbol string) (*data.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var bars []data.Bar
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 5 || len(record) > 6 {
			return nil, fmt.Errorf("row %d: %w", row, errInvalidColumnCount)
		}
		ts, err := parseTime(record[0])
		if err != nil {
			if row == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		b := data.Bar{Time: ts, Volume: decimal.Zero}
		fields := []*decimal.Decimal{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume}
		for i := 1; i < len(record); i++ {
			*fields[i-1], err = decimal.NewFromString(strings.TrimSpace(record[i]))
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", row, i, err)
			}
		}
		bars = append(bars, b)
	}
	return data.NewSeries(symbol, bars)
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for i := range timeLayouts {
		if t, err := time.Parse(timeLayouts[i], raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errInvalidTimestamp, raw)
}
