package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/data/kline/database"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/duallimit"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/ematouch"
	"github.com/thrasher-corp/gfobtester/encoding/json"
	"github.com/thrasher-corp/gfobtester/log"
	"gopkg.in/yaml.v3"
)

// GenerateExample returns a working config trading two symbols from csv files
// with a shared ledger
func GenerateExample() *Config {
	return &Config{
		Nickname: "example-shared",
		Strategies: []StrategySettings{
			{Name: ematouch.Name, CustomSettings: map[string]any{"touch-offset": -0.002, "take-profit": 0.03}},
			{Name: duallimit.Name},
		},
		Symbols: []SymbolSettings{
			{Symbol: "BTC-USD", CSVPath: "data/BTC-USD.csv"},
			{Symbol: "ETH-USD", CSVPath: "data/ETH-USD.csv"},
		},
		Funding: FundingSettings{
			Mode:           string(funding.Shared),
			InitialCapital: decimal.NewFromInt(10000),
			MaxPositions:   3,
		},
		Execution: ExecutionSettings{
			FeeRate:           decimal.RequireFromString("0.001"),
			PricePrecision:    2,
			QuantityPrecision: 6,
		},
		Indicators: indicators.DefaultSettings(),
		Data:       DataSettings{Source: "csv"},
		Output:     OutputSettings{ResultsPath: "results.json", PushJob: "gfob"},
		Logging:    log.GenDefaultSettings(),
	}
}

// GenerateDatabaseExample returns the example config reading bars from a
// sqlite database instead of csv files
func GenerateDatabaseExample() *Config {
	c := GenerateExample()
	c.Nickname = "example-database"
	c.Data = DataSettings{
		Source:   "database",
		Database: &database.Config{Driver: database.DBSQLite3, DSN: "bars.db", Table: database.DefaultTable},
	}
	for i := range c.Symbols {
		c.Symbols[i].CSVPath = ""
	}
	return c
}

// Marshal encodes the config as json or yaml using the same keys the loader
// reads
func (c *Config) Marshal(format string) ([]byte, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return b, nil
	case "yaml", "yml":
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		return yaml.Marshal(m)
	}
	return nil, fmt.Errorf("%w: %q", errUnsupportedFormat, format)
}
