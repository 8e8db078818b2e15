package logging

// Structured logging for g5trace

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

// String returns the lower-case level name used in config files and JSON output.
func (l LogLevel) String() string {
	switch l {
	case LogLevelSilent:
		return "silent"
	case LogLevelError:
		return "error"
	case LogLevelInfo:
		return "info"
	case LogLevelVerbose:
		return "verbose"
	case LogLevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name into a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent", "quiet", "none":
		return LogLevelSilent, nil
	case "error":
		return LogLevelError, nil
	case "", "info":
		return LogLevelInfo, nil
	case "verbose":
		return LogLevelVerbose, nil
	case "debug":
		return LogLevelDebug, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q (want silent, error, info, verbose or debug)", name)
}

// Logger provides structured logging
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	format   string // "text" or "json"
	logEvery int    // console sampling: write every Nth message
	counter  int
	file     *os.File
	fileLog  *log.Logger
	console  *log.Logger
}

// NewLogger creates a new logger
func NewLogger(level LogLevel, logFile string) (*Logger, error) {
	return NewLoggerWithOptions(level, logFile, "text", 1)
}

// NewLoggerWithOptions creates a logger with an output format and console sampling rate.
func NewLoggerWithOptions(level LogLevel, logFile, format string, logEvery int) (*Logger, error) {
	if format == "" {
		format = "text"
	}
	if logEvery < 1 {
		logEvery = 1
	}
	l := &Logger{
		level:    level,
		format:   format,
		logEvery: logEvery,
		console:  log.New(os.Stderr, "", 0),
	}

	// Open log file if specified
	if logFile != "" {
		file, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.file = file
		if format == "json" {
			l.fileLog = log.New(file, "", 0)
		} else {
			l.fileLog = log.New(file, "", log.LstdFlags)
		}
	}

	return l, nil
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return &Logger{
		level:    LogLevelSilent,
		format:   "text",
		logEvery: 1,
		console:  log.New(io.Discard, "", 0),
	}
}

// Close closes the logger and flushes all data
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.fileLog = nil
		return err
	}
	return nil
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.emit(LogLevelError, "ERROR", format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.emit(LogLevelInfo, "INFO", format, v...)
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	l.emit(LogLevelVerbose, "VERBOSE", format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.emit(LogLevelDebug, "DEBUG", format, v...)
}

func (l *Logger) emit(level LogLevel, prefix, format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level < level {
		return
	}

	msg := fmt.Sprintf(format, v...)
	var line string
	if l.format == "json" {
		line = jsonLine(level, msg)
	} else {
		line = prefix + ": " + msg
	}
	l.write(line, level == LogLevelError)
}

func jsonLine(level LogLevel, msg string) string {
	data, err := json.Marshal(struct {
		Time    string `json:"time"`
		Level   string `json:"level"`
		Message string `json:"message"`
	}{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	})
	if err != nil {
		return msg
	}
	return string(data)
}

// write writes a message to the appropriate outputs. Caller holds l.mu.
func (l *Logger) write(msg string, isError bool) {
	l.counter++

	// Always write to log file if available
	if l.fileLog != nil {
		l.fileLog.Println(msg)
	}

	if l.counter%l.logEvery != 0 {
		return
	}

	// Console output goes to stderr so analysis output on stdout stays
	// parseable. Non-errors reach the console only at verbose or above.
	if isError || l.level >= LogLevelVerbose {
		l.console.Println(msg)
	}
}

// SetConsole redirects console output.
func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = log.New(w, "", 0)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// LogLoad logs the outcome of loading a capture export.
func (l *Logger) LogLoad(path string, loaded, skipped, invalidTimes int, elapsed time.Duration) {
	l.Info("Loaded %d messages from %s in %s", loaded, path, elapsed.Round(time.Millisecond))
	if skipped > 0 {
		l.Info("  Skipped %d malformed records", skipped)
	}
	if invalidTimes > 0 {
		l.Verbose("  %d messages carry an unparsable capture time", invalidTimes)
	}
}

// LogAnalysis logs the completion of one analysis pass.
func (l *Logger) LogAnalysis(name string, results int, elapsed time.Duration) {
	l.Verbose("%s: %d results in %s", name, results, elapsed.Round(time.Microsecond))
}

// LogStartup logs startup information
func (l *Logger) LogStartup(command, input, configPath string) {
	l.Info("Starting g5trace %s", command)
	l.Verbose("  Input: %s", input)
	if configPath != "" {
		l.Verbose("  Config: %s", configPath)
	}
}
