/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package intercept

import (
	"context"
	"log"
	"time"
)

// LogLevel gates which statements LogInterceptor prints: a
// runtime-mutable filter rather than a single on/off debug flag.
type LogLevel int

const (
	LogOff LogLevel = iota
	LogErrors
	LogAll
)

// LogInterceptor prints the query, args and elapsed time for each
// statement, colored for terminal output (yellow statement id, green
// query, dim args, red timing).
type LogInterceptor struct {
	Level  LogLevel
	Logger *log.Logger
}

// NewLogInterceptor returns a LogInterceptor at LogAll using the
// standard logger, debug-on by default.
func NewLogInterceptor() *LogInterceptor {
	return &LogInterceptor{Level: LogAll, Logger: log.New(log.Writer(), "[dynsql] ", log.Flags())}
}

// Before records the start time; it never short-circuits.
func (l *LogInterceptor) Before(_ context.Context, task *Task) (bool, error) {
	task.StartedAt = time.Now()
	return true, nil
}

// After prints the statement once it has a result, respecting Level.
func (l *LogInterceptor) After(_ context.Context, task *Task, result *Result) error {
	if l.Level == LogOff {
		return nil
	}
	if l.Level == LogErrors && (result == nil || result.Err == nil) {
		return nil
	}
	spent := time.Since(task.StartedAt)
	l.Logger.Printf("\x1b[33m[%s]\x1b[0m \x1b[32m%s\x1b[0m \x1b[2m%v\x1b[0m \x1b[31m%v\x1b[0m\n",
		task.StatementID, task.Query, task.Args, spent)
	return nil
}
