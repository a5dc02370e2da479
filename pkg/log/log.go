// Copyright 2025 walteh LLC
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
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/dd-diff/pkg/blockdiff"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Console text
const (
	ProgramName = "dd-diff"
	Tagline     = "A DD that only writes changed blocks."
	Copyright   = "Copyright (C) 2025 walteh LLC"
)

// 🎯 Logger writes the user-facing console protocol and mirrors it to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger. Diagnostics go to diag through a zerolog console writer.
func New(console, diag io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = diag
		w.NoColor = color.NoColor
	})).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger and its zerolog logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	ctx = l.zlog.WithContext(ctx)
	return context.WithValue(ctx, contextKey{}, l)
}

// SetLevel changes the diagnostic level.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zlog = l.zlog.Level(level)
}

// Zerolog returns the diagnostic logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// Console returns the writer progress lines should go to.
func (l *Logger) Console() io.Writer {
	return l.console
}

// 📝 Banner prints the two startup lines
func (l *Logger) Banner() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", color.New(color.Bold, color.FgCyan).Sprint(ProgramName), Tagline)
	fmt.Fprintln(l.console, Copyright)
}

// 📝 Usage prints the usage line
func (l *Logger) Usage() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "Usage: %s <input_path> <output_path> [block_size]\n", ProgramName)
}

// 📝 Error prints a one-line error message and logs the cause
func (l *Logger) Error(msg string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Err(cause).Msg(msg)
}

// 📊 Summary prints a table describing a finished run
func (l *Logger) Summary(stats *blockdiff.Stats, dryRun bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if color.NoColor {
		pterm.DisableStyling()
	}

	changed := "Blocks rewritten"
	if dryRun {
		changed = "Blocks to rewrite"
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Metric", "Value"},
		{"Source size", humanize.IBytes(uint64(stats.Total))},
		{"Blocks read", fmt.Sprint(stats.Blocks)},
		{changed, fmt.Sprint(stats.BlocksChanged)},
		{"Bytes compared", humanize.IBytes(uint64(stats.BytesCompared))},
		{"Bytes written", humanize.IBytes(uint64(stats.BytesWritten))},
	}).Srender()
	if err != nil {
		return errors.Errorf("rendering summary: %w", err)
	}

	fmt.Fprintf(l.console, "\n%s\n", table)

	l.zlog.Info().
		Int64("total", stats.Total).
		Int("blocks", stats.Blocks).
		Int("blocks_changed", stats.BlocksChanged).
		Int64("bytes_compared", stats.BytesCompared).
		Int64("bytes_written", stats.BytesWritten).
		Bool("dry_run", dryRun).
		Msg("run complete")
	return nil
}
