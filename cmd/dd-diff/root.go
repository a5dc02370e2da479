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

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/dd-diff/pkg/blockdiff"
	"github.com/walteh/dd-diff/pkg/config"
	"github.com/walteh/dd-diff/pkg/log"
	"github.com/walteh/dd-diff/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// Failure kinds, each mapped to one console message and exit status 1.
var (
	errUsage      = errors.Base("usage")
	errAlloc      = errors.Base("allocation failed")
	errOpenInput  = errors.Base("opening input failed")
	errOpenOutput = errors.Base("opening output failed")
	errConfig     = errors.Base("loading config failed")
)

// runError tags a cause with one of the failure kinds above
type runError struct {
	kind  error
	cause error
}

func (e *runError) Error() string   { return fmt.Sprintf("%s: %s", e.kind, e.cause) }
func (e *runError) Unwrap() []error { return []error{e.kind, e.cause} }

func fail(kind, cause error) error {
	return &runError{kind: kind, cause: cause}
}

func causeOf(err error) error {
	var re *runError
	if errors.As(err, &re) {
		return re.cause
	}
	return err
}

// 🎮 Handler runs one dd-diff invocation
type Handler struct {
	fs     billy.Filesystem
	stdout io.Writer
	stderr io.Writer

	configFile string
	debug      bool
	dryRun     bool
	summary    bool
	quiet      bool
}

// 🏭 NewHandler creates a handler reading and writing files through fs
func NewHandler(fs billy.Filesystem, stdout, stderr io.Writer) *Handler {
	return &Handler{
		fs:     fs,
		stdout: stdout,
		stderr: stderr,
	}
}

// 🏃 Execute parses args, runs the copy and returns the process exit status
func (h *Handler) Execute(ctx context.Context, args []string) int {
	logger := log.New(h.stdout, h.stderr, zerolog.WarnLevel)
	logger.Banner()

	cmd := h.newCommand(logger)
	cmd.SetArgs(args)
	cmd.SetOut(h.stdout)
	cmd.SetErr(h.stderr)

	return exitCode(logger, cmd.ExecuteContext(ctx))
}

func (h *Handler) newCommand(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   log.ProgramName + " <input_path> <output_path> [block_size]",
		Short: "Copy a file onto an existing one, writing only the blocks that differ",
		Long: `dd-diff compares input_path against output_path block by block and
rewrites only the blocks of output_path that differ. output_path must already
exist; it is never created, truncated or extended.

block_size defaults to 65536 bytes. 0 or a non-numeric value selects the default.
Arguments starting with '-' are read as flags; put -- before the paths to
pass them as is, e.g. dd-diff -- -in.img out.img.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 && len(args) != 3 {
				return fail(errUsage, errors.Errorf("expected 2 or 3 arguments, got %d", len(args)))
			}
			return nil
		},
		Version:       GetVersionInfo().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if h.debug {
				logger.SetLevel(zerolog.DebugLevel)
			}
			ctx := log.NewContext(cmd.Context(), logger)

			opts, summary, err := h.options(ctx, args)
			if err != nil {
				return err
			}
			return h.run(ctx, args[0], args[1], opts, summary)
		},
	}

	cmd.SetVersionTemplate(FormatVersion())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fail(errUsage, err)
	})

	cmd.Flags().StringVarP(&h.configFile, "config", "c", "", "config file path (.yaml, .yml, .hcl or .json)")
	cmd.Flags().BoolVarP(&h.debug, "debug", "d", false, "enable debug logging on stderr")
	cmd.Flags().BoolVar(&h.dryRun, "dry-run", false, "compare only, never write to output_path")
	cmd.Flags().BoolVar(&h.summary, "summary", false, "print a summary table when done")
	cmd.Flags().BoolVarP(&h.quiet, "quiet", "q", false, "do not print progress lines")

	return cmd
}

// options merges the positional block size, the config file and the flags.
func (h *Handler) options(ctx context.Context, args []string) (blockdiff.Options, bool, error) {
	opts := blockdiff.Options{
		DryRun:   h.dryRun,
		Progress: log.FromContext(ctx).Console(),
	}
	summary, quiet := h.summary, h.quiet

	if h.configFile != "" {
		cfg, err := config.Load(ctx, h.fs, h.configFile)
		if err != nil {
			return opts, false, fail(errConfig, err)
		}
		zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("loaded config")

		bs, err := cfg.BlockSizeBytes()
		if err != nil {
			return opts, false, fail(errConfig, err)
		}
		opts.BlockSize = bs
		opts.ProgressInterval = cfg.ProgressInterval
		opts.DryRun = opts.DryRun || cfg.DryRun
		summary = summary || cfg.Summary
		quiet = quiet || cfg.Quiet
	}

	if len(args) == 3 {
		bs, err := blockdiff.ParseBlockSize(args[2])
		if err != nil {
			return opts, false, fail(errUsage, err)
		}
		opts.BlockSize = bs
	}

	if quiet {
		opts.Progress = nil
	}

	return opts, summary, nil
}

func (h *Handler) run(ctx context.Context, in, out string, opts blockdiff.Options, summary bool) error {
	logger := log.FromContext(ctx)

	copier, err := blockdiff.New(opts)
	if err != nil {
		if errors.Is(err, blockdiff.ErrAllocation) {
			return fail(errAlloc, err)
		}
		return fail(errUsage, err)
	}
	logger.Zerolog().Debug().Int("block_size", copier.BlockSize()).Msg("allocated block buffers")

	src, err := storage.OpenSource(ctx, h.fs, in)
	if err != nil {
		return fail(errOpenInput, err)
	}
	defer src.Close()

	dst, err := storage.OpenTarget(ctx, h.fs, out, opts.DryRun)
	if err != nil {
		return fail(errOpenOutput, err)
	}
	defer func() {
		if err := dst.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", out).Msg("closing output")
		}
	}()

	stats, err := copier.Run(ctx, src, dst)
	if err != nil {
		return errors.Errorf("copying %s to %s: %w", in, out, err)
	}

	if summary {
		return logger.Summary(stats, opts.DryRun)
	}
	return nil
}

// exitCode prints the message for err and maps it to a process exit status.
func exitCode(logger *log.Logger, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		logger.Usage()
	case errors.Is(err, errAlloc):
		logger.Error("Error: could not allocate memory.", err)
	case errors.Is(err, errOpenInput):
		logger.Error("Error opening input file.", err)
	case errors.Is(err, errOpenOutput):
		logger.Error("Error opening output file.", err)
	case errors.Is(err, errConfig):
		logger.Error(fmt.Sprintf("Error loading config: %v", causeOf(err)), err)
	case errors.Is(err, context.Canceled):
		logger.Error("\nInterrupted.", err)
	default:
		logger.Error(fmt.Sprintf("Error: %v", err), err)
	}
	return 1
}
