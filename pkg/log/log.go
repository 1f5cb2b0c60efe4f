// Copyright 2026 The ptremap Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log implements the leveled logger used by ptectl and its packages.
//
// Formatting is deferred to an Emitter, so disabled levels cost a single
// atomic load.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the log level.
type Level uint32

// Levels are ordered from always-on to most verbose.
const (
	// Warning is always emitted.
	Warning Level = iota

	// Info is emitted by default.
	Info

	// Debug is emitted only with --debug.
	Debug
)

// String implements fmt.Stringer.String.
func (l Level) String() string {
	switch l {
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	default:
		return fmt.Sprintf("Invalid level: %d", l)
	}
}

// Emitter is the final destination for logs.
type Emitter interface {
	// Emit renders and writes one log statement. depth counts the stack
	// frames between the logging call site and Emit.
	Emit(depth int, level Level, timestamp time.Time, format string, v ...any)
}

// Writer writes emitted lines to Next. Lines that fail to write are counted
// and reported once the destination recovers.
type Writer struct {
	// Next is where output is written.
	Next io.Writer

	mu      sync.Mutex
	dropped atomic.Int32
}

// Write writes out the given bytes, appending a trailing newline if needed.
func (w *Writer) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if d := w.dropped.Load(); d > 0 {
		if _, err := fmt.Fprintf(w.Next, "\n*** Dropped %d log messages ***\n", d); err == nil {
			w.dropped.Store(0)
		}
	}

	n, err := w.Next.Write(data)
	if err != nil {
		w.dropped.Add(1)
		return n, err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		if _, err := w.Next.Write([]byte{'\n'}); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Emit emits the message without any decoration.
func (w *Writer) Emit(_ int, _ Level, _ time.Time, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// MultiEmitter is an emitter that emits to multiple Emitters.
type MultiEmitter []Emitter

// Emit emits to all emitters.
func (m *MultiEmitter) Emit(depth int, level Level, timestamp time.Time, format string, v ...any) {
	for _, e := range *m {
		e.Emit(1+depth, level, timestamp, format, v...)
	}
}

// Logger is the interface satisfied by BasicLogger and the rate-limited
// wrappers, so callers can take either.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warningf(format string, v ...any)
	IsLogging(level Level) bool
}

// BasicLogger is the default implementation of Logger.
type BasicLogger struct {
	Level
	Emitter
}

// Debugf implements Logger.Debugf.
func (l *BasicLogger) Debugf(format string, v ...any) {
	l.logAtDepth(1, Debug, format, v...)
}

// Infof implements Logger.Infof.
func (l *BasicLogger) Infof(format string, v ...any) {
	l.logAtDepth(1, Info, format, v...)
}

// Warningf implements Logger.Warningf.
func (l *BasicLogger) Warningf(format string, v ...any) {
	l.logAtDepth(1, Warning, format, v...)
}

func (l *BasicLogger) logAtDepth(depth int, level Level, format string, v ...any) {
	if l.IsLogging(level) {
		l.Emit(1+depth, level, time.Now(), format, v...)
	}
}

// IsLogging implements Logger.IsLogging.
func (l *BasicLogger) IsLogging(level Level) bool {
	return atomic.LoadUint32((*uint32)(&l.Level)) >= uint32(level)
}

// SetLevel sets the logging level.
func (l *BasicLogger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.Level), uint32(level))
}

var (
	// logMu serializes SetTarget.
	logMu sync.Mutex

	// log is the global logger.
	log atomic.Pointer[BasicLogger]
)

// Log retrieves the global logger.
func Log() *BasicLogger {
	return log.Load()
}

// SetTarget replaces the global emitter, keeping the current level.
func SetTarget(target Emitter) {
	logMu.Lock()
	defer logMu.Unlock()
	log.Store(&BasicLogger{Level: Log().Level, Emitter: target})
}

// SetLevel sets the global log level.
func SetLevel(newLevel Level) {
	Log().SetLevel(newLevel)
}

// Debugf logs to the global logger.
func Debugf(format string, v ...any) {
	Log().logAtDepth(1, Debug, format, v...)
}

// Infof logs to the global logger.
func Infof(format string, v ...any) {
	Log().logAtDepth(1, Info, format, v...)
}

// Warningf logs to the global logger.
func Warningf(format string, v ...any) {
	Log().logAtDepth(1, Warning, format, v...)
}

// IsLogging returns whether the global logger is logging at level.
func IsLogging(level Level) bool {
	return Log().IsLogging(level)
}

func init() {
	log.Store(&BasicLogger{Level: Info, Emitter: GoogleEmitter{&Writer{Next: os.Stderr}}})
}
