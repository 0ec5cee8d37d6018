// Package logging provides structured file logging for rudder components.
//
// Every process gets one session log file under ~/.rudder/logs/, named by a
// generated session ID. Component loggers share that file and tag each entry,
// so one browsing session produces one interleaved, greppable log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is a minimum-severity filter for a Logger.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

func (lv Level) String() string {
	switch lv {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "OFF"
	}
}

// ParseLevel maps a config-file level name onto a Level. Unknown names get
// LevelInfo and an error so callers can log-and-continue.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown logging level: %q", s)
	}
}

// Logger writes timestamped, component-tagged entries to a shared sink.
// Component children created with WithComponent share the parent's file,
// mutex, and session ID.
type Logger struct {
	component string
	sessionID string
	logPath   string

	mu    *sync.Mutex
	out   io.Writer
	file  *os.File
	min   Level
	close *sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	logDir     string
	logDirOnce sync.Once
	logDirErr  error
)

// SessionID returns the process-wide session ID, generating it on first use.
func SessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// Dir returns the log directory (~/.rudder/logs), creating it if needed.
func Dir() (string, error) {
	logDirOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			logDirErr = fmt.Errorf("failed to resolve home directory: %w", err)
			return
		}
		logDir = filepath.Join(home, ".rudder", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			logDirErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return logDir, logDirErr
}

// New creates a file-backed logger for the given component, writing to
// ~/.rudder/logs/<session-id>-rudder.log. If the file cannot be opened the
// returned logger falls back to stderr and the error reports why; the logger
// is always usable.
func New(component string) (*Logger, error) {
	dir, err := Dir()
	if err != nil {
		return fallback(component, err), err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-rudder.log", SessionID()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return fallback(component, err), err
	}

	return &Logger{
		component: component,
		sessionID: SessionID(),
		logPath:   path,
		mu:        &sync.Mutex{},
		out:       file,
		file:      file,
		min:       LevelDebug,
		close:     &sync.Once{},
	}, nil
}

// NewWriter creates a logger that writes to w. Used by tests and by callers
// that route rudder logs into their own sink.
func NewWriter(component string, w io.Writer) *Logger {
	return &Logger{
		component: component,
		sessionID: SessionID(),
		mu:        &sync.Mutex{},
		out:       w,
		min:       LevelDebug,
		close:     &sync.Once{},
	}
}

// Nop returns a logger that discards everything. The zero choice for library
// callers that do not want rudder's log file.
func Nop() *Logger {
	return &Logger{
		component: "nop",
		mu:        &sync.Mutex{},
		out:       io.Discard,
		min:       levelOff,
		close:     &sync.Once{},
	}
}

func fallback(component string, cause error) *Logger {
	l := &Logger{
		component: component,
		sessionID: SessionID(),
		mu:        &sync.Mutex{},
		out:       os.Stderr,
		min:       LevelDebug,
		close:     &sync.Once{},
	}
	l.Warnf("file logging unavailable, writing to stderr: %v", cause)
	return l
}

// WithComponent returns a child logger tagged with the given component name,
// sharing this logger's sink, level, and session.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component: component,
		sessionID: l.sessionID,
		logPath:   l.logPath,
		mu:        l.mu,
		out:       l.out,
		file:      l.file,
		min:       l.min,
		close:     l.close,
	}
}

// SetLevel sets the minimum severity this logger emits.
func (l *Logger) SetLevel(min Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min = min
}

func (l *Logger) emit(lv Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lv < l.min {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.out, "[%s] [%s] [%s] %s\n", ts, l.component, lv, fmt.Sprintf(format, v...))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) { l.emit(LevelDebug, format, v...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...interface{}) { l.emit(LevelInfo, format, v...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, v ...interface{}) { l.emit(LevelWarn, format, v...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...interface{}) { l.emit(LevelError, format, v...) }

// SessionID returns the session ID this logger stamps into its file name.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Path returns the log file path, or "" when the logger is not file-backed.
func (l *Logger) Path() string {
	return l.logPath
}

// Writer exposes the underlying sink, for handing to libraries that want an
// io.Writer (engine driver output, for example).
func (l *Logger) Writer() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out
}

// Close closes the log file if this logger owns one. Safe to call more than
// once; children share the same close guard.
func (l *Logger) Close() error {
	var err error
	l.close.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
