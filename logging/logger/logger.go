package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/opsworks/esadapter/config"
	"github.com/sirupsen/logrus"
)

// Key constants
const (
	VersionKey = "version"
	ModuleKey  = "module"
)

// Logger represents logger instance
type Logger struct {
	*logrus.Logger
	version string
	fields  logrus.Fields

	mu      sync.Mutex
	logFile *os.File
	logPath string
	stop    chan struct{}
}

// New creates a logger from the given configuration.
// The returned cleanup function closes the log file and stops rotation.
func New(c *config.Logger) (*Logger, func(), error) {
	l := &Logger{Logger: logrus.New()}
	if c == nil {
		return l, func() {}, nil
	}

	l.SetLevel(logrus.Level(c.Level))

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch c.Output {
	case "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	case "file":
		if c.OutputFile == "" {
			return nil, nil, fmt.Errorf("logger output is file but output_file is empty")
		}
		l.logPath = c.OutputFile
		if err := l.setupLogFile(); err != nil {
			return nil, nil, err
		}
		l.stop = make(chan struct{})
		go l.periodicLogRotation()
	}

	l.AddHook(NewDesensitizer())

	return l, l.cleanup, nil
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	l := &Logger{Logger: logrus.New()}
	l.SetOutput(io.Discard)
	return l
}

// SetVersion sets the version for logging
func (l *Logger) SetVersion(v string) {
	l.version = v
}

// WithModule returns a child logger tagging every entry with the module name.
// The child shares output, level and hooks with its parent.
func (l *Logger) WithModule(name string) *Logger {
	fields := logrus.Fields{}
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[ModuleKey] = name
	return &Logger{Logger: l.Logger, version: l.version, fields: fields}
}

func (l *Logger) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
	if l.logFile != nil {
		_ = l.logFile.Close()
		l.logFile = nil
	}
}

// setupLogFile sets up the log file
func (l *Logger) setupLogFile() error {
	if err := os.MkdirAll(filepath.Dir(l.logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return l.rotateLog(time.Now())
}

// rotateLog switches output to the file for the given day
func (l *Logger) rotateLog(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	f, err := os.OpenFile(logFileName(l.logPath, now), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	l.logFile = f
	l.SetOutput(l.logFile)
	return nil
}

func logFileName(path string, now time.Time) string {
	return fmt.Sprintf("%s.%s.log", strings.TrimSuffix(path, ".log"), now.Format("2006-01-02"))
}

// periodicLogRotation rotates the log every 24 hours
func (l *Logger) periodicLogRotation() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			if err := l.rotateLog(now); err != nil {
				l.Logger.Errorf("Error rotating log: %v", err)
			}
		}
	}
}

// entryFromContext creates a new log entry with fields from context
func (l *Logger) entryFromContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	for k, v := range l.fields {
		fields[k] = v
	}

	if traceID := GetTraceID(ctx); traceID != "" {
		fields[TraceIDKey] = traceID
	}

	if l.version != "" {
		fields[VersionKey] = l.version
	}

	return l.Logger.WithContext(ctx).WithFields(fields)
}

// WithFields returns an entry with the given fields
func (l *Logger) WithFields(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	return l.entryFromContext(ctx).WithFields(fields)
}

// WithError returns an entry carrying err
func (l *Logger) WithError(ctx context.Context, err error) *logrus.Entry {
	return l.entryFromContext(ctx).WithError(err)
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, args ...any) {
	l.entryFromContext(ctx).Log(logrus.DebugLevel, args...)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, args ...any) {
	l.entryFromContext(ctx).Log(logrus.InfoLevel, args...)
}

// Warn logs a warn message
func (l *Logger) Warn(ctx context.Context, args ...any) {
	l.entryFromContext(ctx).Log(logrus.WarnLevel, args...)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, args ...any) {
	l.entryFromContext(ctx).Log(logrus.ErrorLevel, args...)
}

// Debugf logs a debug message with format
func (l *Logger) Debugf(ctx context.Context, format string, args ...any) {
	l.entryFromContext(ctx).Logf(logrus.DebugLevel, format, args...)
}

// Infof logs an info message with format
func (l *Logger) Infof(ctx context.Context, format string, args ...any) {
	l.entryFromContext(ctx).Logf(logrus.InfoLevel, format, args...)
}

// Warnf logs a warn message with format
func (l *Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.entryFromContext(ctx).Logf(logrus.WarnLevel, format, args...)
}

// Errorf logs an error message with format
func (l *Logger) Errorf(ctx context.Context, format string, args ...any) {
	l.entryFromContext(ctx).Logf(logrus.ErrorLevel, format, args...)
}

// AddHook adds a hook to the logger
func (l *Logger) AddHook(hook logrus.Hook) {
	if !l.hookExists(hook) {
		l.Logger.AddHook(hook)
	}
}

// hookExists checks if hook already exists
func (l *Logger) hookExists(hook logrus.Hook) bool {
	for _, h := range l.Hooks {
		for _, existingHook := range h {
			if existingHook == hook {
				return true
			}
		}
	}
	return false
}
