package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thrasher-corp/gfobtester/backtester/config"
	"github.com/thrasher-corp/gfobtester/backtester/data/kline/csv"
	"github.com/thrasher-corp/gfobtester/backtester/data/kline/database"
	"github.com/thrasher-corp/gfobtester/backtester/engine"
	"github.com/thrasher-corp/gfobtester/backtester/metrics"
	"github.com/thrasher-corp/gfobtester/backtester/strategies"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/log"
	"github.com/thrasher-corp/gfobtester/signaler"
	"github.com/urfave/cli/v2"
)

var errMissingArgument = errors.New("missing argument")

func main() {
	app := &cli.App{
		Name:                 "backtester",
		Usage:                "runs good-for-one-bar limit order strategies over historical bars",
		EnableBashCompletion: true,
		Flags:                runFlags(),
		Action:               runBacktest,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "runs the backtest described by a config file",
				Flags:  runFlags(),
				Action: runBacktest,
			},
			{
				Name:      "example",
				Usage:     "writes an example config",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "yaml",
						Usage: "yaml or json",
					},
					&cli.BoolFlag{
						Name:  "database",
						Usage: "read bars from a sqlite database instead of csv files",
					},
				},
				Action: writeExample,
			},
			{
				Name:   "strategies",
				Usage:  "lists the built-in strategies",
				Action: listStrategies,
			},
			{
				Name:      "seed",
				Usage:     "stores the bars of a csv file in a database for later runs",
				ArgsUsage: "<symbol> <csv path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "driver",
						Value: database.DBSQLite3,
						Usage: "sqlite3 or postgres",
					},
					&cli.StringFlag{
						Name:     "dsn",
						Usage:    "database connection string, the file path for sqlite3",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "table",
						Value: database.DefaultTable,
					},
				},
				Action: seedDatabase,
			},
		},
	}

	ctx, cancel := signaler.CancelOnInterrupt(context.Background())
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Errorf(log.Global, "%v", err)
		cancel()
		os.Exit(1)
	}
}

func runFlags() []cli.Flag {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   filepath.Join(wd, "config.yaml"),
			Usage:   "the config file to run",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "writes the json result to this path, overriding the config",
		},
		&cli.StringFlag{
			Name:    "pushgateway",
			Usage:   "pushes run metrics to this prometheus pushgateway, overriding the config",
			EnvVars: []string{"GFOB_PUSHGATEWAY"},
		},
		&cli.BoolFlag{
			Name:  "print-trades",
			Usage: "logs every completed trade",
		},
	}
}

func runBacktest(c *cli.Context) error {
	cfg, err := config.ReadConfigFromFile(c.String("config"))
	if err != nil {
		return err
	}
	if err := log.SetupGlobalLogger(&cfg.Logging); err != nil {
		return err
	}
	if err := log.SetupSubLoggers(cfg.Logging.SubLoggers); err != nil {
		return err
	}
	if c.IsSet("output") {
		cfg.Output.ResultsPath = c.String("output")
	}
	if c.IsSet("pushgateway") {
		cfg.Output.PushGatewayURL = c.String("pushgateway")
	}
	if c.Bool("print-trades") {
		cfg.Output.PrintTrades = true
	}
	cfg.PrintSetting()

	settings, err := cfg.EngineSettings()
	if err != nil {
		return err
	}
	defs, err := cfg.Definitions(strategies.NewRegistry(nil))
	if err != nil {
		return err
	}
	series, err := cfg.LoadSeries(c.Context)
	if err != nil {
		return err
	}
	recorder := metrics.NewRecorder()
	e, err := engine.New(settings, defs, engine.WithObserver(recorder))
	if err != nil {
		return err
	}

	result, runErr := e.Run(c.Context, series)
	if result == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Errorf(log.BackTester, "run halted: %v", runErr)
	}
	result.PrintResults()
	if cfg.Output.PrintTrades {
		result.PrintTrades()
	}

	var errs error
	if cfg.Output.ResultsPath != "" {
		b, err := result.Serialise()
		if err != nil {
			errs = gctcommon.AppendError(errs, err)
		} else if err := os.WriteFile(cfg.Output.ResultsPath, b, 0o644); err != nil {
			errs = gctcommon.AppendError(errs, err)
		} else {
			log.Infof(log.BackTester, "results written to %s", cfg.Output.ResultsPath)
		}
	}
	if cfg.Output.PushGatewayURL != "" {
		// the run context may already be cancelled
		if err := recorder.Push(context.WithoutCancel(c.Context), cfg.Output.PushGatewayURL, cfg.Output.PushJob, result.RunID); err != nil {
			errs = gctcommon.AppendError(errs, err)
		}
	}
	return gctcommon.AppendError(runErr, errs)
}

func writeExample(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: output path", errMissingArgument)
	}
	cfg := config.GenerateExample()
	if c.Bool("database") {
		cfg = config.GenerateDatabaseExample()
	}
	b, err := cfg.Marshal(strings.ToLower(c.String("format")))
	if err != nil {
		return err
	}
	path := c.Args().First()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	log.Infof(log.ConfigMgr, "example config written to %s", path)
	return nil
}

func listStrategies(_ *cli.Context) error {
	r := strategies.NewRegistry(nil)
	for _, name := range r.Names() {
		desc, err := r.Describe(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %s\n", name, desc)
	}
	return nil
}

func seedDatabase(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("%w: symbol and csv path", errMissingArgument)
	}
	symbol, path := c.Args().Get(0), c.Args().Get(1)
	series, err := csv.LoadFile(path, symbol)
	if err != nil {
		return err
	}
	cfg := database.Config{Driver: c.String("driver"), DSN: c.String("dsn"), Table: c.String("table")}
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Errorf(log.DataMgr, "could not close database: %v", closeErr)
		}
	}()
	loader, err := database.NewLoader(db, cfg.Driver, cfg.Table)
	if err != nil {
		return err
	}
	if err := loader.Migrate(c.Context, c.String("migrationdir")); err != nil {
		return err
	}
	if err := loader.InsertBars(c.Context, series.Symbol(), series.Bars()); err != nil {
		return err
	}
	log.Infof(log.DataMgr, "stored %d %s bars in %s", series.Len(), series.Symbol(), cfg.Table)
	return nil
}
