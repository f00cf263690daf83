package log

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Sub loggers used throughout the backtester
var (
	subLoggers = map[string]*SubLogger{}

	Global      *SubLogger
	BackTester  *SubLogger
	ConfigMgr   *SubLogger
	StrategyMgr *SubLogger
	OrderMgr    *SubLogger
	FundingMgr  *SubLogger
	DataMgr     *SubLogger
)

var (
	errSubLoggerNotFound     = errors.New("sub logger not found")
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errUnhandledFormat       = errors.New("unhandled log format")
	errEmptyLogFile          = errors.New("file output requires a file name")
)

const (
	// DefaultLevels enables everything but debug output
	DefaultLevels = "INFO|WARN|ERROR"
	// AllLevels enables every level
	AllLevels = "INFO|DEBUG|WARN|ERROR"

	formatConsole = "console"
	formatJSON    = "json"
	timeFormat    = "02/01/2006 15:04:05"
)

var (
	mu   sync.RWMutex
	base = newConsoleLogger(nil)
)

// Config holds the logger settings loaded from the backtester config
type Config struct {
	Enabled    bool              `json:"enabled" mapstructure:"enabled"`
	Level      string            `json:"level" mapstructure:"level" default:"INFO|WARN|ERROR"`
	Format     string            `json:"format" mapstructure:"format" default:"console" validate:"oneof=console json"`
	Output     string            `json:"output" mapstructure:"output" default:"stdout"`
	FileName   string            `json:"file-name,omitempty" mapstructure:"file-name"`
	SubLoggers []SubLoggerConfig `json:"sub-loggers,omitempty" mapstructure:"sub-loggers"`
}

// SubLoggerConfig overrides the levels of a single sub logger
type SubLoggerConfig struct {
	Name  string `json:"name" mapstructure:"name"`
	Level string `json:"level" mapstructure:"level"`
}

// Levels flags for each sub logger type
type Levels struct {
	Info, Debug, Warn, Error bool
}

// SubLogger defines a sub logger that can be used externally for packages
// wanting to leverage the backtester logging system
type SubLogger struct {
	name   string
	mu     sync.RWMutex
	levels Levels
}

func newConsoleLogger(w zerolog.LevelWriter) zerolog.Logger {
	if w == nil {
		w = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: stdout, TimeFormat: timeFormat})
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
