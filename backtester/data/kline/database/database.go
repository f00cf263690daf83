package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	// import postgres driver
	_ "github.com/lib/pq"
	// import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/log"
	"github.com/thrasher-corp/goose"
)

// DefaultTable is the table bars are stored in when none is configured
const DefaultTable = "candle"

// Supported drivers
const (
	DBSQLite3    = "sqlite3"
	DBPostgreSQL = "postgres"
)

// MigrationDir holds the goose migrations for the default table, relative to
// the backtester directory
var MigrationDir = filepath.Join("data", "kline", "database", "migrations")

var (
	errNoDatabaseProvided = errors.New("no database connection string provided")
	errUnsupportedDriver  = errors.New("unsupported database driver")
	errInvalidTable       = errors.New("invalid table name")
	errNilDatabase        = errors.New("nil database connection")

	tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Config holds the settings required to reach stored bars
type Config struct {
	Driver string `json:"driver" mapstructure:"driver" validate:"oneof=sqlite3 sqlite postgres postgresql"`
	DSN    string `json:"dsn" mapstructure:"dsn" validate:"required"`
	Table  string `json:"table" mapstructure:"table" default:"candle"`
}

// Loader reads and writes bars in a single table
type Loader struct {
	db     *sql.DB
	driver string
	table  string
}

// Connect opens a connection for the configured driver
func Connect(cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errNoDatabaseProvided
	}
	driver, err := normaliseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if driver == DBSQLite3 {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func normaliseDriver(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case DBSQLite3, "sqlite":
		return DBSQLite3, nil
	case DBPostgreSQL, "postgresql":
		return DBPostgreSQL, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedDriver, driver)
	}
}

// NewLoader returns a Loader using the supplied connection
func NewLoader(db *sql.DB, driver, table string) (*Loader, error) {
	if db == nil {
		return nil, errNilDatabase
	}
	d, err := normaliseDriver(driver)
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", errInvalidTable, table)
	}
	return &Loader{db: db, driver: d, table: table}, nil
}

func (l *Loader) placeholder(n int) string {
	if l.driver == DBPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// CreateSchema creates the bar table when it does not exist. Prices are stored
// as text so no precision is lost
func (l *Loader) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + l.table + ` (
	symbol VARCHAR(64) NOT NULL,
	ts BIGINT NOT NULL,
	open TEXT NOT NULL,
	high TEXT NOT NULL,
	low TEXT NOT NULL,
	close TEXT NOT NULL,
	volume TEXT NOT NULL,
	PRIMARY KEY (symbol, ts)
)`
	_, err := l.db.ExecContext(ctx, query)
	return err
}

// Migrate brings the bar table up to date. The default table is owned by the
// goose migrations in dir, a custom table name has no migration history and is
// created directly
func (l *Loader) Migrate(ctx context.Context, dir string) error {
	if l.table != DefaultTable {
		return l.CreateSchema(ctx)
	}
	if err := goose.Run("up", l.db, l.driver, dir, ""); err != nil {
		return fmt.Errorf("migrating %s: %w", l.table, err)
	}
	return nil
}

// InsertBars stores bars for a symbol in a single transaction
func (l *Loader) InsertBars(ctx context.Context, symbol string, bars []data.Bar) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf(log.DataMgr, "%s rollback failed: %v", symbol, rbErr)
			}
		}
	}()
	query := fmt.Sprintf("INSERT INTO %s (symbol, ts, open, high, low, close, volume) VALUES (%s, %s, %s, %s, %s, %s, %s)",
		l.table,
		l.placeholder(1), l.placeholder(2), l.placeholder(3), l.placeholder(4),
		l.placeholder(5), l.placeholder(6), l.placeholder(7))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range bars {
		_, err = stmt.ExecContext(ctx,
			symbol,
			bars[i].Time.UnixMilli(),
			bars[i].Open.String(),
			bars[i].High.String(),
			bars[i].Low.String(),
			bars[i].Close.String(),
			bars[i].Volume.String())
		if err != nil {
			return fmt.Errorf("%s bar %d: %w", symbol, i, err)
		}
	}
	return tx.Commit()
}

// LoadData returns the bars of a symbol within [start, end]. Zero times leave
// that side of the range open
func (l *Loader) LoadData(ctx context.Context, symbol string, start, end time.Time) (*data.Series, error) {
	from, to := int64(0), int64(1<<62)
	if !start.IsZero() {
		from = start.UnixMilli()
	}
	if !end.IsZero() {
		to = end.UnixMilli()
	}
	query := fmt.Sprintf("SELECT ts, open, high, low, close, volume FROM %s WHERE symbol = %s AND ts >= %s AND ts <= %s ORDER BY ts ASC",
		l.table, l.placeholder(1), l.placeholder(2), l.placeholder(3))
	rows, err := l.db.QueryContext(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []data.Bar
	for rows.Next() {
		var (
			ts int64
			b  data.Bar
		)
		if err = rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Time = time.UnixMilli(ts).UTC()
		bars = append(bars, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	s, err := data.NewSeries(symbol, bars)
	if err != nil {
		return nil, err
	}
	log.Infof(log.DataMgr, "%s loaded %d bars from %s table %s", symbol, s.Len(), l.driver, l.table)
	return s, nil
}
