package log

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Name returns the sub logger name
func (sl *SubLogger) Name() string {
	return sl.name
}

// Levels returns the currently enabled levels
func (sl *SubLogger) Levels() Levels {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.levels
}

func (sl *SubLogger) setLevels(l Levels) {
	sl.mu.Lock()
	sl.levels = l
	sl.mu.Unlock()
}

func (sl *SubLogger) event(level zerolog.Level) *zerolog.Event {
	if sl == nil {
		return nil
	}
	sl.mu.RLock()
	l := sl.levels
	sl.mu.RUnlock()
	var enabled bool
	switch level {
	case zerolog.InfoLevel:
		enabled = l.Info
	case zerolog.DebugLevel:
		enabled = l.Debug
	case zerolog.WarnLevel:
		enabled = l.Warn
	case zerolog.ErrorLevel:
		enabled = l.Error
	}
	if !enabled {
		return nil
	}
	mu.RLock()
	defer mu.RUnlock()
	return base.WithLevel(level).Str("sublogger", sl.name)
}

// Info takes a pointer subLogger struct and string and writes an info event
func Info(sl *SubLogger, data string) {
	if e := sl.event(zerolog.InfoLevel); e != nil {
		e.Msg(data)
	}
}

// Infof takes a pointer subLogger struct, string and interface formats and
// writes an info event
func Infof(sl *SubLogger, data string, v ...any) {
	if e := sl.event(zerolog.InfoLevel); e != nil {
		e.Msg(fmt.Sprintf(data, v...))
	}
}

// Debug takes a pointer subLogger struct and string and writes a debug event
func Debug(sl *SubLogger, data string) {
	if e := sl.event(zerolog.DebugLevel); e != nil {
		e.Msg(data)
	}
}

// Debugf takes a pointer subLogger struct, string and interface formats and
// writes a debug event
func Debugf(sl *SubLogger, data string, v ...any) {
	if e := sl.event(zerolog.DebugLevel); e != nil {
		e.Msg(fmt.Sprintf(data, v...))
	}
}

// Warn takes a pointer subLogger struct & string and writes a warn event
func Warn(sl *SubLogger, data string) {
	if e := sl.event(zerolog.WarnLevel); e != nil {
		e.Msg(data)
	}
}

// Warnf takes a pointer subLogger struct, string and interface formats and
// writes a warn event
func Warnf(sl *SubLogger, data string, v ...any) {
	if e := sl.event(zerolog.WarnLevel); e != nil {
		e.Msg(fmt.Sprintf(data, v...))
	}
}

// Error takes a pointer subLogger struct & string and writes an error event
func Error(sl *SubLogger, data string) {
	if e := sl.event(zerolog.ErrorLevel); e != nil {
		e.Msg(data)
	}
}

// Errorf takes a pointer subLogger struct, string and interface formats and
// writes an error event
func Errorf(sl *SubLogger, data string, v ...any) {
	if e := sl.event(zerolog.ErrorLevel); e != nil {
		e.Msg(fmt.Sprintf(data, v...))
	}
}
