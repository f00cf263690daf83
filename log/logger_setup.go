package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var stdout io.Writer = os.Stdout

// GenDefaultSettings returns known working logger settings
func GenDefaultSettings() Config {
	return Config{
		Enabled: true,
		Level:   DefaultLevels,
		Format:  formatConsole,
		Output:  "stdout",
	}
}

func getWriters(c *Config) ([]io.Writer, error) {
	outputs := strings.Split(c.Output, "|")
	writers := make([]io.Writer, 0, len(outputs))
	for x := range outputs {
		switch strings.ToLower(strings.TrimSpace(outputs[x])) {
		case "stdout", "console":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		case "file":
			if c.FileName == "" {
				return nil, errEmptyLogFile
			}
			f, err := os.OpenFile(c.FileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
			if err != nil {
				return nil, err
			}
			writers = append(writers, f)
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, outputs[x])
		}
	}
	return writers, nil
}

// SetupGlobalLogger configures the zerolog backend and every sub logger
func SetupGlobalLogger(c *Config) error {
	if c == nil {
		d := GenDefaultSettings()
		c = &d
	}
	if !c.Enabled {
		SetOutput(io.Discard, formatJSON)
		return nil
	}
	writers, err := getWriters(c)
	if err != nil {
		return err
	}
	if err = setOutputs(writers, c.Format); err != nil {
		return err
	}
	levels := splitLevel(c.Level)
	for _, sl := range subLoggers {
		sl.setLevels(levels)
	}
	return SetupSubLoggers(c.SubLoggers)
}

// SetupSubLoggers overrides the levels of the named sub loggers
func SetupSubLoggers(s []SubLoggerConfig) error {
	for x := range s {
		sl, ok := subLoggers[strings.ToUpper(s[x].Name)]
		if !ok {
			return fmt.Errorf("%w: %s", errSubLoggerNotFound, s[x].Name)
		}
		sl.setLevels(splitLevel(s[x].Level))
	}
	return nil
}

// SetOutput routes all log output to a single writer using the supplied
// format. It is mostly useful for capturing output
func SetOutput(w io.Writer, format string) {
	_ = setOutputs([]io.Writer{w}, format)
}

func setOutputs(writers []io.Writer, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		mu.Lock()
		base = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
		mu.Unlock()
	case formatConsole, "":
		wrapped := make([]io.Writer, len(writers))
		for i := range writers {
			wrapped[i] = zerolog.ConsoleWriter{Out: writers[i], TimeFormat: timeFormat, NoColor: writers[i] != os.Stdout}
		}
		mu.Lock()
		base = newConsoleLogger(zerolog.MultiLevelWriter(wrapped...))
		mu.Unlock()
	default:
		return fmt.Errorf("%w: %s", errUnhandledFormat, format)
	}
	return nil
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch strings.ToUpper(strings.TrimSpace(enabledLevels[x])) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

func registerNewSubLogger(name string) *SubLogger {
	sl := &SubLogger{
		name:   strings.ToUpper(name),
		levels: splitLevel(DefaultLevels),
	}
	subLoggers[sl.name] = sl
	return sl
}

// register all loggers at package init()
func init() {
	Global = registerNewSubLogger("LOG")
	BackTester = registerNewSubLogger("BACKTESTER")
	ConfigMgr = registerNewSubLogger("CONFIG")
	StrategyMgr = registerNewSubLogger("STRATEGY")
	OrderMgr = registerNewSubLogger("ORDER")
	FundingMgr = registerNewSubLogger("FUNDING")
	DataMgr = registerNewSubLogger("DATA")
}
