// Package logging provides component loggers with levels, progress lines
// and step timing.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type Level int

const (
	FATAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

func (l Level) String() string {
	switch l {
	case FATAL:
		return "fatal"
	case ERROR:
		return "error"
	case WARNING:
		return "warn"
	case INFO:
		return "info"
	case DEBUG:
		return "debug"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel parses debug, info, warn, error or fatal.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "fatal":
		return FATAL, nil
	case "error":
		return ERROR, nil
	case "warn", "warning":
		return WARNING, nil
	case "info":
		return INFO, nil
	case "debug":
		return DEBUG, nil
	}
	return INFO, errors.Errorf("unknown log level %q", s)
}

type Record struct {
	Level     Level
	Component string
	Message   string
}

const (
	CLEARLINE = "\x1b[2K"
)

type Logger struct {
	Component string
}

func NewLogger(component string) *Logger {
	return &Logger{component}
}

func (l *Logger) Print(args ...interface{}) {
	defaultLogBroker.record(Record{INFO, l.Component, fmt.Sprint(args...)})
}

func (l *Logger) Printf(msg string, args ...interface{}) {
	defaultLogBroker.record(Record{INFO, l.Component, fmt.Sprintf(msg, args...)})
}

func (l *Logger) Debugf(msg string, args ...interface{}) {
	defaultLogBroker.record(Record{DEBUG, l.Component, fmt.Sprintf(msg, args...)})
}

// Fatal logs the message and exits with exit code 1.
func (l *Logger) Fatal(args ...interface{}) {
	defaultLogBroker.record(Record{FATAL, l.Component, fmt.Sprint(args...)})
	exit(1)
}

func (l *Logger) Fatalf(msg string, args ...interface{}) {
	defaultLogBroker.record(Record{FATAL, l.Component, fmt.Sprintf(msg, args...)})
	exit(1)
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	defaultLogBroker.record(Record{ERROR, l.Component, fmt.Sprintf(msg, args...)})
}

func (l *Logger) Warn(args ...interface{}) {
	defaultLogBroker.record(Record{WARNING, l.Component, fmt.Sprint(args...)})
}

func (l *Logger) Warnf(msg string, args ...interface{}) {
	defaultLogBroker.record(Record{WARNING, l.Component, fmt.Sprintf(msg, args...)})
}

func (l *Logger) Printfl(level Level, msg string, args ...interface{}) {
	defaultLogBroker.record(Record{level, l.Component, fmt.Sprintf(msg, args...)})
}

// Progress prints a status line that is replaced by the next record or
// progress line. Progress lines are not printed in quiet mode.
func (l *Logger) Progress(msg string) {
	defaultLogBroker.progress(msg)
}

// StartStep starts the timer for a step. Pass the returned name to
// StopStep.
func (l *Logger) StartStep(msg string) string {
	defaultLogBroker.startStep(Step{l.Component, msg})
	return msg
}

func (l *Logger) StopStep(msg string) {
	defaultLogBroker.stopStep(Step{l.Component, msg})
}

type Step struct {
	Component string
	Name      string
}

// LogBroker writes all records of all loggers. Records are written
// synchronously.
type LogBroker struct {
	mu           sync.Mutex
	out          io.Writer
	level        Level
	quiet        bool
	newline      bool
	lastProgress string
	steps        map[Step]time.Time
}

func (l *LogBroker) record(record Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if record.Level > l.level {
		return
	}
	l.printRecord(record)
}

func (l *LogBroker) progress(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quiet {
		return
	}
	l.printProgress(msg)
}

func (l *LogBroker) startStep(step Step) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps[step] = time.Now()
	if !l.quiet {
		l.printProgress(step.Name)
	}
}

func (l *LogBroker) stopStep(step Step) {
	l.mu.Lock()
	defer l.mu.Unlock()
	startTime, ok := l.steps[step]
	if !ok {
		return
	}
	delete(l.steps, step)
	l.lastProgress = ""
	if INFO > l.level {
		return
	}
	duration := time.Since(startTime)
	l.printRecord(Record{INFO, step.Component, step.Name + " took: " + duration.String()})
}

func (l *LogBroker) printPrefix() {
	fmt.Fprint(l.out, "[", time.Now().Format(time.Stamp), "] ")
}

func (l *LogBroker) printComponent(component string) {
	if component != "" {
		fmt.Fprint(l.out, "[", component, "] ")
	}
}

func (l *LogBroker) printRecord(record Record) {
	if !l.newline {
		fmt.Fprint(l.out, CLEARLINE)
	}
	l.printPrefix()
	l.printComponent(record.Component)
	if record.Level != INFO {
		fmt.Fprint(l.out, "[", record.Level, "] ")
	}
	fmt.Fprintln(l.out, record.Message)
	l.newline = true
	if l.lastProgress != "" && !l.quiet {
		l.printProgress(l.lastProgress)
	}
}

func (l *LogBroker) printProgress(progress string) {
	l.printPrefix()
	fmt.Fprint(l.out, progress)
	fmt.Fprint(l.out, "\r")
	l.lastProgress = progress
	l.newline = false
}

var defaultLogBroker = &LogBroker{
	out:     os.Stderr,
	level:   INFO,
	newline: true,
	steps:   make(map[Step]time.Time),
}

var exit = os.Exit

// SetQuiet disables progress output and all records below WARNING.
func SetQuiet(quiet bool) {
	defaultLogBroker.mu.Lock()
	defer defaultLogBroker.mu.Unlock()
	defaultLogBroker.quiet = quiet
	if quiet && defaultLogBroker.level > WARNING {
		defaultLogBroker.level = WARNING
	}
}

func SetLevel(level Level) {
	defaultLogBroker.mu.Lock()
	defer defaultLogBroker.mu.Unlock()
	defaultLogBroker.level = level
}

// SetOutput sets the destination of all loggers.
func SetOutput(w io.Writer) {
	defaultLogBroker.mu.Lock()
	defer defaultLogBroker.mu.Unlock()
	defaultLogBroker.out = w
	defaultLogBroker.newline = true
	defaultLogBroker.lastProgress = ""
}
