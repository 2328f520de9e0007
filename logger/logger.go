// logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// callerSkip points zerolog's caller field at the code that called the
// package-level helpers rather than at this file.
const callerSkip = 4

type Logger struct {
	zl       zerolog.Logger
	file     io.Closer
	minLevel LogLevel
}

// Options controls where log output goes. An empty FilePath disables the
// rotating file output.
type Options struct {
	FilePath   string
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	defaultLogger *Logger
	once          sync.Once
	mu            sync.Mutex
)

// ensureInitialized creates a console logger if Init was never called
func ensureInitialized() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if defaultLogger == nil {
			defaultLogger = &Logger{minLevel: INFO}
			defaultLogger.zl = build(consoleWriter(os.Stderr))
		}
	})
}

// Init replaces the default logger. Console output is coloured only when
// stderr is a terminal; file output is plain JSON rotated by lumberjack.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if defaultLogger != nil && defaultLogger.file != nil {
		defaultLogger.file.Close()
	}

	l := &Logger{minLevel: INFO}
	if defaultLogger != nil {
		l.minLevel = defaultLogger.minLevel
	}

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, consoleWriter(os.Stderr))
	}
	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    orDefault(opts.MaxSizeMB, 20),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   true,
		}
		l.file = rotator
		writers = append(writers, rotator)
	}

	if len(writers) == 0 {
		return fmt.Errorf("no output destination specified")
	}

	l.zl = build(zerolog.MultiLevelWriter(writers...))
	defaultLogger = l
	once.Do(func() {})
	return nil
}

// InitWriter points the default logger at w without colour. Tests use it to
// capture output.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = &Logger{minLevel: DEBUG, zl: build(w)}
	once.Do(func() {})
}

func build(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().CallerWithSkipFrameCount(callerSkip).Logger()
}

func consoleWriter(f *os.File) zerolog.ConsoleWriter {
	fd := f.Fd()
	color := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return zerolog.ConsoleWriter{Out: f, NoColor: !color, TimeFormat: time.TimeOnly}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// ParseLevel maps debug|info|warn|error onto a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR)
// Messages below this level will not be logged
func SetLevel(level LogLevel) {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	defaultLogger.minLevel = level
}

// Close closes the log file if one is open
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if defaultLogger != nil && defaultLogger.file != nil {
		defaultLogger.file.Close()
		defaultLogger.file = nil
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func output(level LogLevel, msg string) {
	ensureInitialized()
	mu.Lock()
	l := defaultLogger
	mu.Unlock()

	if level < l.minLevel {
		return
	}
	l.zl.WithLevel(level.zerolog()).Msg(msg)
}

// Debug logs a debug message
func Debug(v ...interface{}) {
	output(DEBUG, fmt.Sprint(v...))
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...interface{}) {
	output(DEBUG, fmt.Sprintf(format, v...))
}

// Info logs an info message
func Info(v ...interface{}) {
	output(INFO, fmt.Sprint(v...))
}

// Infof logs a formatted info message
func Infof(format string, v ...interface{}) {
	output(INFO, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func Warn(v ...interface{}) {
	output(WARN, fmt.Sprint(v...))
}

// Warnf logs a formatted warning message
func Warnf(format string, v ...interface{}) {
	output(WARN, fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(v ...interface{}) {
	output(ERROR, fmt.Sprint(v...))
}

// Errorf logs a formatted error message
func Errorf(format string, v ...interface{}) {
	output(ERROR, fmt.Sprintf(format, v...))
}

// Fatal logs an error message and exits the program
func Fatal(v ...interface{}) {
	output(ERROR, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf logs a formatted error message and exits the program
func Fatalf(format string, v ...interface{}) {
	output(ERROR, fmt.Sprintf(format, v...))
	os.Exit(1)
}
