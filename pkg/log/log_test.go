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
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/dd-diff/pkg/blockdiff"
	"gitlab.com/tozd/go/errors"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "banner",
			op: func(t *testing.T, logger *Logger) {
				logger.Banner()
			},
			wantLogs: []string{
				"dd-diff A DD that only writes changed blocks.",
				"Copyright (C) 2025 walteh LLC",
			},
		},
		{
			name: "usage",
			op: func(t *testing.T, logger *Logger) {
				logger.Usage()
			},
			wantLogs: []string{
				"Usage: dd-diff <input_path> <output_path> [block_size]",
			},
		},
		{
			name: "error",
			op: func(t *testing.T, logger *Logger) {
				logger.Error("Error opening input file.", errors.New("no such file"))
			},
			wantLogs: []string{
				"Error opening input file.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, io.Discard, zerolog.InfoLevel)

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, lines[i], "log line %d should match", i)
			}
		})
	}
}

func TestLoggerErrorGoesToDiagnostics(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	console := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	logger := New(console, diag, zerolog.WarnLevel)

	logger.Error("Error opening output file.", errors.New("permission denied"))

	assert.Contains(t, diag.String(), "permission denied", "cause should be logged")
	assert.NotContains(t, console.String(), "permission denied", "cause should not reach the console")
}

func TestLoggerSetLevel(t *testing.T) {
	logger := New(io.Discard, io.Discard, zerolog.WarnLevel)
	assert.Equal(t, zerolog.WarnLevel, logger.Zerolog().GetLevel())

	logger.SetLevel(zerolog.DebugLevel)
	assert.Equal(t, zerolog.DebugLevel, logger.Zerolog().GetLevel())
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, io.Discard, zerolog.InfoLevel)

	ctx := NewContext(context.Background(), logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")
	assert.Equal(t, zerolog.InfoLevel, zerolog.Ctx(ctx).GetLevel(), "zerolog logger should be in context")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestSummary(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	stats := &blockdiff.Stats{
		Total:         3 << 20,
		Blocks:        48,
		BlocksChanged: 2,
		BytesCompared: 3 << 20,
		BytesWritten:  128 << 10,
	}

	tests := []struct {
		name   string
		dryRun bool
		want   []string
	}{
		{
			name: "write_run",
			want: []string{"Source size", "3.0 MiB", "Blocks read", "48", "Blocks rewritten", "2", "Bytes written", "128 KiB"},
		},
		{
			name:   "dry_run",
			dryRun: true,
			want:   []string{"Blocks to rewrite"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, io.Discard, zerolog.InfoLevel)

			require.NoError(t, logger.Summary(stats, tt.dryRun))

			out := buf.String()
			assert.True(t, strings.HasPrefix(out, "\n"), "summary should start on a fresh line")
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}
