package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/data/kline/csv"
	"github.com/thrasher-corp/gfobtester/backtester/data/kline/database"
	"github.com/thrasher-corp/gfobtester/backtester/engine"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/strategies"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/log"
)

// EngineSettings converts the config into run settings
func (c *Config) EngineSettings() (engine.Settings, error) {
	mode, err := funding.ParseMode(c.Funding.Mode)
	if err != nil {
		return engine.Settings{}, err
	}
	return engine.Settings{
		RunName:           c.Nickname,
		InitialCapital:    c.Funding.InitialCapital,
		FundingMode:       mode,
		MaxPositions:      c.Funding.MaxPositions,
		FeeRate:           c.Execution.FeeRate,
		PricePrecision:    c.Execution.PricePrecision,
		QuantityPrecision: c.Execution.QuantityPrecision,
		Indicators:        c.Indicators,
		RiskFreeRate:      c.Statistics.RiskFreeRate,
		KeepBarLog:        c.Statistics.KeepBarLog,
	}, nil
}

// Definitions builds every configured strategy in config order
func (c *Config) Definitions(r *strategies.Registry) ([]*base.Definition, error) {
	if r == nil {
		return nil, fmt.Errorf("%w strategy registry", gctcommon.ErrNilPointer)
	}
	defs := make([]*base.Definition, 0, len(c.Strategies))
	for i := range c.Strategies {
		var (
			d   *base.Definition
			err error
		)
		if c.Strategies[i].DefinitionFile != "" {
			d, err = strategies.LoadDefinitionFile(c.Strategies[i].DefinitionFile, r.Leaves())
		} else {
			d, err = r.Load(c.Strategies[i].Name, c.Strategies[i].CustomSettings)
		}
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// LoadSeries reads the bars of every configured symbol in config order
func (c *Config) LoadSeries(ctx context.Context) ([]*data.Series, error) {
	switch c.Data.Source {
	case "csv":
		series := make([]*data.Series, 0, len(c.Symbols))
		for i := range c.Symbols {
			s, err := csv.LoadFile(c.Symbols[i].CSVPath, c.Symbols[i].Symbol)
			if err != nil {
				return nil, err
			}
			series = append(series, s)
		}
		return series, nil
	case "database":
		if c.Data.Database == nil {
			return nil, errMissingDatabase
		}
		return c.loadDatabaseSeries(ctx)
	}
	return nil, fmt.Errorf("unhandled data source %q", c.Data.Source)
}

func (c *Config) loadDatabaseSeries(ctx context.Context) ([]*data.Series, error) {
	db, err := database.Connect(*c.Data.Database)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Errorf(log.DataMgr, "could not close database: %v", closeErr)
		}
	}()
	loader, err := database.NewLoader(db, c.Data.Database.Driver, c.Data.Database.Table)
	if err != nil {
		return nil, err
	}
	series := make([]*data.Series, 0, len(c.Symbols))
	for i := range c.Symbols {
		s, err := loader.LoadData(ctx, c.Symbols[i].Symbol, c.Data.StartDate, c.Data.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Symbols[i].Symbol, err)
		}
		series = append(series, s)
	}
	return series, nil
}

// resolvePaths makes relative file paths relative to dir
func (c *Config) resolvePaths(dir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range c.Strategies {
		c.Strategies[i].DefinitionFile = resolve(c.Strategies[i].DefinitionFile)
	}
	for i := range c.Symbols {
		c.Symbols[i].CSVPath = resolve(c.Symbols[i].CSVPath)
	}
}
