package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/data/kline/database"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/strategies"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/ematouch"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
)

const minimalYAML = `
strategies:
  - name: ema-touch
    custom-settings:
      touch-offset: -0.01
symbols:
  - symbol: BTC-USD
    csv-path: btc.csv
`

const bars = `timestamp,open,high,low,close,volume
2024-01-01T00:00:00Z,100,101,99,100,5
2024-01-01T01:00:00Z,100,102,99.5,101,6
2024-01-01T02:00:00Z,101,103,100,102,7
`

func dec(i int) decimal.Decimal {
	return decimal.NewFromInt(int64(i))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()
	c, err := LoadConfig([]byte(minimalYAML), "yaml")
	require.NoError(t, err)
	assert.Equal(t, "gfob", c.Nickname)
	assert.Equal(t, string(funding.PerInstrument), c.Funding.Mode)
	assert.Equal(t, "10000", c.Funding.InitialCapital.String())
	assert.Equal(t, int32(8), c.Execution.PricePrecision)
	assert.Equal(t, int32(8), c.Execution.QuantityPrecision)
	assert.True(t, c.Execution.FeeRate.IsZero())
	assert.Equal(t, "csv", c.Data.Source)
	assert.Equal(t, "gfob", c.Output.PushJob)
	assert.True(t, c.Logging.Enabled)
	assert.Equal(t, "console", c.Logging.Format)
	assert.Equal(t, 20, c.Indicators.EMAPeriod)
	assert.Equal(t, 14, c.Indicators.RSIPeriod)
	assert.Equal(t, -0.01, c.Strategies[0].CustomSettings["touch-offset"])
}

func TestLoadConfigExplicitZeroes(t *testing.T) {
	t.Parallel()
	c, err := LoadConfig([]byte(minimalYAML+`
execution:
  fee-rate: "0.001"
  quantity-precision: 0
indicators:
  rsi-period: 0
  percentile-window: 50
logging:
  enabled: false
`), "yaml")
	require.NoError(t, err)
	assert.Equal(t, int32(0), c.Execution.QuantityPrecision)
	assert.Equal(t, int32(8), c.Execution.PricePrecision)
	assert.Equal(t, "0.001", c.Execution.FeeRate.String())
	assert.Equal(t, 0, c.Indicators.RSIPeriod)
	assert.Equal(t, 50, c.Indicators.PercentileWindow)
	assert.Equal(t, 20, c.Indicators.EMAPeriod)
	assert.False(t, c.Logging.Enabled)
}

func TestLoadConfigFormats(t *testing.T) {
	t.Parallel()
	_, err := LoadConfig([]byte(minimalYAML), "ini")
	if !errors.Is(err, errUnsupportedFormat) {
		t.Errorf("received '%v' expected '%v'", err, errUnsupportedFormat)
	}
	c, err := LoadConfig([]byte(`{"strategies":[{"name":"dual-limit"}],"symbols":[{"symbol":"ETH-USD","csv-path":"eth.csv"}],"funding":{"initial-capital":"2500.5"}}`), "json")
	require.NoError(t, err)
	assert.Equal(t, "2500.5", c.Funding.InitialCapital.String())
	assert.Equal(t, "dual-limit", c.Strategies[0].Name)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	var c *Config
	err := c.Validate()
	if !errors.Is(err, gctcommon.ErrNilPointer) {
		t.Errorf("received '%v' expected '%v'", err, gctcommon.ErrNilPointer)
	}

	_, err = LoadConfig([]byte(`symbols: [{symbol: BTC-USD, csv-path: a.csv}]`), "yaml")
	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve, "missing strategies should fail tag validation")

	_, err = LoadConfig([]byte(`
strategies: [{name: ema-touch, definition-file: x.yaml}]
symbols: [{symbol: BTC-USD, csv-path: a.csv}]
`), "yaml")
	assert.ErrorAs(t, err, &ve, "name and definition file are mutually exclusive")

	_, err = LoadConfig([]byte(minimalYAML+"funding:\n  initial-capital: 0\n"), "yaml")
	assert.ErrorAs(t, err, &ve)

	_, err = LoadConfig([]byte(minimalYAML+"execution:\n  fee-rate: 1\n"), "yaml")
	assert.ErrorAs(t, err, &ve)

	_, err = LoadConfig([]byte(minimalYAML+"funding:\n  mode: shared\n"), "yaml")
	if !errors.Is(err, errSharedRequiresMaxPositions) {
		t.Errorf("received '%v' expected '%v'", err, errSharedRequiresMaxPositions)
	}

	_, err = LoadConfig([]byte(minimalYAML+"  - symbol: btc-usd\n"), "yaml")
	if !errors.Is(err, errDuplicateSymbol) {
		t.Errorf("received '%v' expected '%v'", err, errDuplicateSymbol)
	}
	if !errors.Is(err, errMissingCSVPath) {
		t.Errorf("received '%v' expected '%v'", err, errMissingCSVPath)
	}

	_, err = LoadConfig([]byte(minimalYAML+`
data:
  source: database
  start-date: 2024-02-01T00:00:00Z
  end-date: 2024-01-01T00:00:00Z
`), "yaml")
	if !errors.Is(err, errMissingDatabase) {
		t.Errorf("received '%v' expected '%v'", err, errMissingDatabase)
	}
	if !errors.Is(err, errBadDate) {
		t.Errorf("received '%v' expected '%v'", err, errBadDate)
	}

	_, err = LoadConfig([]byte(minimalYAML+"indicators:\n  dominance: 2\n"), "yaml")
	assert.Error(t, err)
}

func TestReadConfigFromFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))
	c, err := ReadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "btc.csv"), c.Symbols[0].CSVPath)

	_, err = ReadConfigFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "run.txt")
	require.NoError(t, os.WriteFile(txt, []byte(minimalYAML), 0o600))
	_, err = ReadConfigFromFile(txt)
	if !errors.Is(err, errUnsupportedFormat) {
		t.Errorf("received '%v' expected '%v'", err, errUnsupportedFormat)
	}
}

// not parallel as the environment is process wide
func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("GFOB_FUNDING_INITIAL_CAPITAL", "750")
	t.Setenv("GFOB_EXECUTION_PRICE_PRECISION", "3")
	t.Setenv("GFOB_INDICATORS_EMA_PERIOD", "9")
	c, err := LoadConfig([]byte(minimalYAML), "yaml")
	require.NoError(t, err)
	assert.Equal(t, "750", c.Funding.InitialCapital.String())
	assert.Equal(t, int32(3), c.Execution.PricePrecision)
	assert.Equal(t, 9, c.Indicators.EMAPeriod)
}

func TestExampleRoundTrip(t *testing.T) {
	t.Parallel()
	for _, format := range []string{"json", "yaml"} {
		b, err := GenerateExample().Marshal(format)
		require.NoError(t, err, format)
		c, err := LoadConfig(b, format)
		require.NoError(t, err, format)
		assert.Equal(t, "example-shared", c.Nickname, format)
		assert.Equal(t, 3, c.Funding.MaxPositions, format)
		assert.Equal(t, "0.001", c.Execution.FeeRate.String(), format)
		assert.Equal(t, int32(2), c.Execution.PricePrecision, format)
		assert.Len(t, c.Strategies, 2, format)
		assert.Equal(t, GenerateExample().Indicators, c.Indicators, format)
	}
	b, err := GenerateDatabaseExample().Marshal("yaml")
	require.NoError(t, err)
	c, err := LoadConfig(b, "yaml")
	require.NoError(t, err)
	require.NotNil(t, c.Data.Database)
	assert.Equal(t, database.DefaultTable, c.Data.Database.Table)

	_, err = GenerateExample().Marshal("xml")
	if !errors.Is(err, errUnsupportedFormat) {
		t.Errorf("received '%v' expected '%v'", err, errUnsupportedFormat)
	}
}

func TestEngineSettings(t *testing.T) {
	t.Parallel()
	c := GenerateExample()
	s, err := c.EngineSettings()
	require.NoError(t, err)
	assert.Equal(t, funding.Shared, s.FundingMode)
	assert.Equal(t, 3, s.MaxPositions)
	assert.Equal(t, "example-shared", s.RunName)
	require.NoError(t, s.Validate())

	c.Funding.Mode = "both"
	_, err = c.EngineSettings()
	assert.Error(t, err)
}

func TestDefinitions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	def := filepath.Join(dir, "touch.yaml")
	require.NoError(t, os.WriteFile(def, []byte(`
name: file-touch
entry:
  leaf: limit-at
  params:
    indicator: ema
sizing:
  position-fraction: 0.5
`), 0o600))
	c := &Config{Strategies: []StrategySettings{
		{Name: ematouch.Name},
		{DefinitionFile: def},
	}}
	_, err := c.Definitions(nil)
	if !errors.Is(err, gctcommon.ErrNilPointer) {
		t.Errorf("received '%v' expected '%v'", err, gctcommon.ErrNilPointer)
	}
	defs, err := c.Definitions(strategies.NewRegistry(nil))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, ematouch.Name, defs[0].Name)
	assert.Equal(t, "file-touch", defs[1].Name)

	c.Strategies = []StrategySettings{{Name: "nope"}}
	_, err = c.Definitions(strategies.NewRegistry(nil))
	if !errors.Is(err, base.ErrStrategyNotFound) {
		t.Errorf("received '%v' expected '%v'", err, base.ErrStrategyNotFound)
	}
}

func TestLoadSeriesCSV(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "btc.csv"), []byte(bars), 0o600))
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))
	c, err := ReadConfigFromFile(path)
	require.NoError(t, err)
	series, err := c.LoadSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "BTC-USD", series[0].Symbol())
	assert.Equal(t, 3, series[0].Len())

	c.Symbols[0].CSVPath = filepath.Join(dir, "missing.csv")
	_, err = c.LoadSeries(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSeriesDatabase(t *testing.T) {
	t.Parallel()
	dsn := filepath.Join(t.TempDir(), "bars.db")
	cfg := database.Config{Driver: database.DBSQLite3, DSN: dsn, Table: database.DefaultTable}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	loader, err := database.NewLoader(db, cfg.Driver, cfg.Table)
	require.NoError(t, err)
	require.NoError(t, loader.CreateSchema(context.Background()))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var b []data.Bar
	for i := 0; i < 5; i++ {
		p := dec(100 + i)
		b = append(b, data.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: p, High: p.Add(dec(1)), Low: p.Sub(dec(1)), Close: p, Volume: dec(1)})
	}
	require.NoError(t, loader.InsertBars(context.Background(), "BTC-USD", b))
	require.NoError(t, db.Close())

	c := &Config{
		Symbols: []SymbolSettings{{Symbol: "BTC-USD"}},
		Data: DataSettings{
			Source:    "database",
			Database:  &cfg,
			StartDate: start.Add(time.Hour),
			EndDate:   start.Add(3 * time.Hour),
		},
	}
	series, err := c.LoadSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 3, series[0].Len())

	c.Data.Database = nil
	_, err = c.LoadSeries(context.Background())
	if !errors.Is(err, errMissingDatabase) {
		t.Errorf("received '%v' expected '%v'", err, errMissingDatabase)
	}
}
