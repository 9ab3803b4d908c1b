package main

import (
	"log"
	"os"
	"sync"

	"github.com/fatih/color"
)

// LogLevel represents the verbosity level
type LogLevel int

const (
	LogLevelQuiet LogLevel = iota
	LogLevelNormal
	LogLevelVerbose
)

var (
	currentLogLevel = LogLevelNormal
	logLevelMutex   sync.RWMutex
)

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logLevelMutex.Lock()
	defer logLevelMutex.Unlock()
	currentLogLevel = level
}

// GetLogLevel returns the current log level
func GetLogLevel() LogLevel {
	logLevelMutex.RLock()
	defer logLevelMutex.RUnlock()
	return currentLogLevel
}

// ColorLogger provides colored, leveled logging
type ColorLogger struct {
	normal     *log.Logger
	verbose    *log.Logger
	errorLog   *log.Logger
	warnLog    *log.Logger
	successLog *log.Logger
}

// NewColorLogger creates a new colored logger
func NewColorLogger(prefix string, c *color.Color) *ColorLogger {
	flags := log.Ltime | log.Lmsgprefix
	return &ColorLogger{
		normal:     log.New(os.Stderr, c.Sprint(prefix), flags),
		verbose:    log.New(os.Stderr, c.Sprint(prefix), flags),
		errorLog:   log.New(os.Stderr, color.RedString(prefix), flags),
		warnLog:    log.New(os.Stderr, color.YellowString(prefix), flags),
		successLog: log.New(os.Stderr, color.GreenString(prefix), flags),
	}
}

// Printf logs at normal level
func (cl *ColorLogger) Printf(format string, v ...interface{}) {
	if GetLogLevel() >= LogLevelNormal {
		cl.normal.Printf(format, v...)
	}
}

// Verbosef logs at verbose level
func (cl *ColorLogger) Verbosef(format string, v ...interface{}) {
	if GetLogLevel() >= LogLevelVerbose {
		cl.verbose.Printf(format, v...)
	}
}

// Errorf always logs
func (cl *ColorLogger) Errorf(format string, v ...interface{}) {
	cl.errorLog.Printf(format, v...)
}

// Warnf logs at normal level
func (cl *ColorLogger) Warnf(format string, v ...interface{}) {
	if GetLogLevel() >= LogLevelNormal {
		cl.warnLog.Printf(format, v...)
	}
}

// Successf logs at normal level
func (cl *ColorLogger) Successf(format string, v ...interface{}) {
	if GetLogLevel() >= LogLevelNormal {
		cl.successLog.Printf(format, v...)
	}
}
