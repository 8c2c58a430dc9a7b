/*
   Copyright 2025 The DIRPX Authors.

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

// Package logging holds the process-wide diagnostic sink used by tuneref.
//
// Library code never builds its own logger: it calls Log() and logs through
// whatever the embedding binary installed with SetLogger. Until then all
// output is discarded.
package logging

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// Verbosity levels for logr's V(). Errors and V(0) info are always emitted.
const (
	DEBUG = 1
	TRACE = 2
)

var current atomic.Pointer[logr.Logger]

func init() {
	d := logr.Discard()
	current.Store(&d)
}

// Log returns the process-wide logger.
func Log() logr.Logger {
	return *current.Load()
}

// SetLogger replaces the process-wide logger. Safe for concurrent use.
func SetLogger(l logr.Logger) {
	current.Store(&l)
}

// NewZapLogger builds a console zap logger at the given level
// ("debug", "info", "warn", "error") wrapped as a logr.Logger.
func NewZapLogger(level string) (logr.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return logr.Discard(), fmt.Errorf("logging: invalid level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("logging: build zap logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// NewTestLogger installs a verbose stderr logger, for test suites.
func NewTestLogger() logr.Logger {
	l := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: TRACE})
	SetLogger(l)
	return l
}
