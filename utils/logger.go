package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type logLevel string

const (
	levelInfo    logLevel = "info"
	levelSuccess logLevel = "success"
	levelWarning logLevel = "warning"
	levelError   logLevel = "error"
	levelDebug   logLevel = "debug"
)

var levelColors = map[logLevel]*color.Color{
	levelInfo:    color.New(color.FgBlue),
	levelSuccess: color.New(color.FgGreen),
	levelWarning: color.New(color.FgYellow),
	levelError:   color.New(color.FgRed),
	levelDebug:   color.New(color.FgMagenta),
}

// Logger writes leveled, colored output to the console and tees every
// line to a timestamped logfile.
type Logger struct {
	verbose bool
	file    *os.File
	mu      sync.Mutex
}

// NewLogger returns a logger teeing to a fresh file under logs/ in the
// working directory.
func NewLogger(verbose bool) *Logger {
	return NewLoggerAt("logs", verbose)
}

// NewLoggerAt returns a logger teeing to a fresh file under dir. Console
// output still works when the directory cannot be created.
func NewLoggerAt(dir string, verbose bool) *Logger {
	logger := &Logger{verbose: verbose}

	if err := os.MkdirAll(dir, 0755); err == nil {
		name := fmt.Sprintf("breachsim_%s.log", time.Now().Format("20060102_150405"))
		if file, err := os.Create(filepath.Join(dir, name)); err == nil {
			logger.file = file
		}
	}

	return logger
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

func (l *Logger) log(level logLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s: %s\n", timestamp, strings.ToUpper(string(level)), message)

	if c := levelColors[level]; c != nil {
		c.Print(line)
	} else {
		fmt.Print(line)
	}

	if l.file != nil {
		l.file.WriteString(line)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(levelInfo, format, args...)
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.log(levelSuccess, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(levelWarning, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(levelError, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbose {
		l.log(levelDebug, format, args...)
	}
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(levelError, format, args...)
	os.Exit(1)
}
