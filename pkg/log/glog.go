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
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// GoogleEmitter is a wrapper that emits logs in a format compatible with
// package github.com/golang/glog:
//
//	Lmmdd hh:mm:ss.uuuuuu pid file:line] msg
type GoogleEmitter struct {
	// Emitter is the underlying emitter.
	Emitter
}

var pid = os.Getpid()

// levelLetter returns the single-character glog severity for level.
func levelLetter(level Level) byte {
	switch level {
	case Debug:
		return 'D'
	case Info:
		return 'I'
	default:
		return 'W'
	}
}

// callerLocation returns "file:line" for the frame depth levels above the
// caller, or "???:0" when unavailable.
func callerLocation(depth int) string {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return "???:0"
	}
	if slash := strings.LastIndexByte(file, '/'); slash >= 0 {
		file = file[slash+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Emit emits the message, google-style.
func (g GoogleEmitter) Emit(depth int, level Level, timestamp time.Time, format string, args ...any) {
	_, month, day := timestamp.Date()
	hour, minute, second := timestamp.Clock()
	header := fmt.Sprintf("%c%02d%02d %02d:%02d:%02d.%06d %7d %s] ",
		levelLetter(level), int(month), day, hour, minute, second,
		timestamp.Nanosecond()/1000, pid, callerLocation(depth+1))

	// The header may contain '%' only through the file name, which is never
	// the case for Go sources; escape anyway to keep args aligned.
	g.Emitter.Emit(depth+1, level, timestamp, strings.ReplaceAll(header, "%", "%%")+format, args...)
}
