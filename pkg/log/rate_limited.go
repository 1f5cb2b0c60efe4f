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

package log

import (
	"time"

	"golang.org/x/time/rate"
)

// limited drops messages beyond one per interval. Messages the wrapped
// logger would filter out by level do not consume a token.
type limited struct {
	next  Logger
	limit *rate.Limiter
}

func (l *limited) emit(level Level, f func(string, ...any), format string, v []any) {
	if l.next.IsLogging(level) && l.limit.Allow() {
		f(format, v...)
	}
}

// Debugf implements Logger.Debugf.
func (l *limited) Debugf(format string, v ...any) {
	l.emit(Debug, l.next.Debugf, format, v)
}

// Infof implements Logger.Infof.
func (l *limited) Infof(format string, v ...any) {
	l.emit(Info, l.next.Infof, format, v)
}

// Warningf implements Logger.Warningf.
func (l *limited) Warningf(format string, v ...any) {
	l.emit(Warning, l.next.Warningf, format, v)
}

// IsLogging implements Logger.IsLogging.
func (l *limited) IsLogging(level Level) bool {
	return l.next.IsLogging(level)
}

// RateLimitedLogger returns a Logger that forwards at most one message per
// interval to logger.
func RateLimitedLogger(logger Logger, every time.Duration) Logger {
	return &limited{next: logger, limit: rate.NewLimiter(rate.Every(every), 1)}
}

// BasicRateLimitedLogger is RateLimitedLogger over the global logger.
func BasicRateLimitedLogger(every time.Duration) Logger {
	return RateLimitedLogger(Log(), every)
}
