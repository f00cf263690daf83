package config

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/data/kline/database"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/log"
)

// EnvPrefix prefixes environment variables overriding config values, eg
// GFOB_FUNDING_INITIAL_CAPITAL
const EnvPrefix = "GFOB"

var (
	errSharedRequiresMaxPositions = errors.New("shared funding requires max-positions greater than zero")
	errDuplicateSymbol            = errors.New("duplicate symbol")
	errMissingCSVPath             = errors.New("csv data requires a csv-path for every symbol")
	errMissingDatabase            = errors.New("database data requires database settings")
	errBadDate                    = errors.New("start date must be before end date")
	errUnsupportedFormat          = errors.New("unsupported config format")
)

// Config defines a single backtest run
type Config struct {
	Nickname   string              `json:"nickname" yaml:"nickname" mapstructure:"nickname" default:"gfob"`
	Strategies []StrategySettings  `json:"strategies" yaml:"strategies" mapstructure:"strategies" validate:"required,min=1,dive"`
	Symbols    []SymbolSettings    `json:"symbols" yaml:"symbols" mapstructure:"symbols" validate:"required,min=1,dive"`
	Funding    FundingSettings     `json:"funding" yaml:"funding" mapstructure:"funding"`
	Execution  ExecutionSettings   `json:"execution" yaml:"execution" mapstructure:"execution"`
	Indicators indicators.Settings `json:"indicators" yaml:"indicators" mapstructure:"indicators"`
	Data       DataSettings        `json:"data" yaml:"data" mapstructure:"data"`
	Statistics StatisticSettings   `json:"statistics" yaml:"statistics" mapstructure:"statistics"`
	Output     OutputSettings      `json:"output" yaml:"output" mapstructure:"output"`
	Logging    log.Config          `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// StrategySettings selects a registered strategy by name or loads a
// definition file. Custom settings only apply to registered strategies
type StrategySettings struct {
	Name           string         `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name" validate:"required_without=DefinitionFile,excluded_with=DefinitionFile"`
	DefinitionFile string         `json:"definition-file,omitempty" yaml:"definition-file,omitempty" mapstructure:"definition-file"`
	CustomSettings map[string]any `json:"custom-settings,omitempty" yaml:"custom-settings,omitempty" mapstructure:"custom-settings"`
}

// SymbolSettings names an instrument and where its bars live
type SymbolSettings struct {
	Symbol  string `json:"symbol" yaml:"symbol" mapstructure:"symbol" validate:"required"`
	CSVPath string `json:"csv-path,omitempty" yaml:"csv-path,omitempty" mapstructure:"csv-path"`
}

// FundingSettings configures the capital ledgers
type FundingSettings struct {
	Mode           string          `json:"mode" yaml:"mode" mapstructure:"mode" default:"per-instrument" validate:"oneof=per-instrument shared"`
	InitialCapital decimal.Decimal `json:"initial-capital" yaml:"initial-capital" mapstructure:"initial-capital" default:"10000" validate:"gt=0"`
	// MaxPositions caps pending and open positions across every symbol
	MaxPositions int `json:"max-positions" yaml:"max-positions" mapstructure:"max-positions" validate:"gte=0"`
}

// ExecutionSettings configures fees and rounding
type ExecutionSettings struct {
	FeeRate           decimal.Decimal `json:"fee-rate" yaml:"fee-rate" mapstructure:"fee-rate" validate:"gte=0,lt=1"`
	PricePrecision    int32           `json:"price-precision" yaml:"price-precision" mapstructure:"price-precision" validate:"gte=0,lte=16"`
	QuantityPrecision int32           `json:"quantity-precision" yaml:"quantity-precision" mapstructure:"quantity-precision" validate:"gte=0,lte=16"`
}

// DataSettings selects the bar source. The date range only applies to
// database data
type DataSettings struct {
	Source    string           `json:"source" yaml:"source" mapstructure:"source" default:"csv" validate:"oneof=csv database"`
	Database  *database.Config `json:"database,omitempty" yaml:"database,omitempty" mapstructure:"database"`
	StartDate time.Time        `json:"start-date,omitempty" yaml:"start-date,omitempty" mapstructure:"start-date"`
	EndDate   time.Time        `json:"end-date,omitempty" yaml:"end-date,omitempty" mapstructure:"end-date"`
}

// StatisticSettings configures result calculation
type StatisticSettings struct {
	// RiskFreeRate is per bar
	RiskFreeRate float64 `json:"risk-free-rate" yaml:"risk-free-rate" mapstructure:"risk-free-rate" validate:"gte=0"`
	KeepBarLog   bool    `json:"keep-bar-log" yaml:"keep-bar-log" mapstructure:"keep-bar-log"`
}

// OutputSettings configures where results go
type OutputSettings struct {
	ResultsPath    string `json:"results-path,omitempty" yaml:"results-path,omitempty" mapstructure:"results-path"`
	PrintTrades    bool   `json:"print-trades" yaml:"print-trades" mapstructure:"print-trades"`
	PushGatewayURL string `json:"pushgateway-url,omitempty" yaml:"pushgateway-url,omitempty" mapstructure:"pushgateway-url" validate:"omitempty,url"`
	PushJob        string `json:"push-job" yaml:"push-job" mapstructure:"push-job" default:"gfob"`
}
