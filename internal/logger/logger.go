package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	JSONFormat LogFormat = iota
	TextFormat
)

// Fields carries structured key/value context for a log entry
type Fields map[string]interface{}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Component string `json:"component,omitempty"`
	Function  string `json:"function,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger is a leveled structured logger. Loggers derived with WithComponent
// or With share the parent's output and write lock.
type Logger struct {
	level     LogLevel
	format    LogFormat
	output    io.Writer
	component string
	base      Fields
	mu        *sync.Mutex
}

// Config holds logger configuration
type Config struct {
	Level     LogLevel
	Format    LogFormat
	Output    io.Writer
	Component string
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	return &Logger{
		level:     config.Level,
		format:    config.Format,
		output:    config.Output,
		component: config.Component,
		mu:        &sync.Mutex{},
	}
}

// NewDefault creates a logger with default configuration
func NewDefault() *Logger {
	return New(Config{
		Level:  INFO,
		Format: JSONFormat,
		Output: os.Stdout,
	})
}

// NewFromStrings builds a logger from LOG_LEVEL / LOG_FORMAT style values.
// Unknown values fall back to INFO and JSON.
func NewFromStrings(level, format string, output io.Writer) *Logger {
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = INFO
	}
	fmtv, ok := ParseFormat(format)
	if !ok {
		fmtv = JSONFormat
	}
	return New(Config{Level: lvl, Format: fmtv, Output: output})
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return New(Config{Level: FATAL + 1, Output: io.Discard})
}

// ParseLevel parses a log level name, case-insensitively
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	default:
		return INFO, false
	}
}

// ParseFormat parses "json" or "text", case-insensitively
func ParseFormat(format string) (LogFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONFormat, true
	case "text":
		return TextFormat, true
	default:
		return JSONFormat, false
	}
}

// WithComponent creates a new logger with the specified component name
func (l *Logger) WithComponent(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

// With returns a logger that adds fields to every entry it writes
func (l *Logger) With(fields Fields) *Logger {
	child := *l
	child.base = make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		child.base[k] = v
	}
	for k, v := range fields {
		child.base[k] = v
	}
	return &child
}

// Level reports the minimum level this logger writes
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) log(level LogLevel, message string, fields Fields, err error) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Component: l.component,
		Fields:    l.merge(fields),
	}

	// skip log and the exported wrapper
	if pc, file, line, ok := runtime.Caller(2); ok {
		entry.File = filepath.Base(file)
		entry.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			name := fn.Name()
			if idx := strings.LastIndex(name, "/"); idx >= 0 {
				name = name[idx+1:]
			}
			entry.Function = name
		}
	}

	if err != nil {
		entry.Error = err.Error()
	}

	var output []byte
	switch l.format {
	case TextFormat:
		output = []byte(formatText(entry))
	default:
		jsonBytes, mErr := json.Marshal(entry)
		if mErr != nil {
			entry.Fields = Fields{"marshal_error": mErr.Error()}
			jsonBytes, _ = json.Marshal(entry)
		}
		output = append(jsonBytes, '\n')
	}

	l.mu.Lock()
	l.output.Write(output)
	l.mu.Unlock()

	if level == FATAL {
		os.Exit(1)
	}
}

func (l *Logger) merge(fields Fields) Fields {
	if len(l.base) == 0 {
		return fields
	}
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

// formatText formats a log entry as human-readable text
func formatText(entry LogEntry) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", entry.Timestamp, entry.Level))

	if entry.Component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", entry.Component))
	}

	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fieldParts := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("fields={%s}", strings.Join(fieldParts, ", ")))
	}

	if entry.Error != "" {
		parts = append(parts, fmt.Sprintf("error=%s", entry.Error))
	}

	if entry.File != "" && entry.Line > 0 {
		parts = append(parts, fmt.Sprintf("(%s:%d)", entry.File, entry.Line))
	}

	return strings.Join(parts, " ") + "\n"
}

func firstFields(fields []Fields) Fields {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(DEBUG, message, firstFields(fields), nil)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...Fields) {
	l.log(INFO, message, firstFields(fields), nil)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(WARN, message, firstFields(fields), nil)
}

// WarnErr logs a warning message with an attached error
func (l *Logger) WarnErr(message string, err error, fields ...Fields) {
	l.log(WARN, message, firstFields(fields), err)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, fields ...Fields) {
	l.log(ERROR, message, firstFields(fields), err)
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(message string, err error, fields ...Fields) {
	l.log(FATAL, message, firstFields(fields), err)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil, nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(WARN, fmt.Sprintf(format, args...), nil, nil)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...), nil, nil)
}
