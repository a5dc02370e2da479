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

package blockdiff

import (
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 Stats describes a finished (or interrupted) run
type Stats struct {
	Total         int64 // source length in bytes
	Position      int64 // source offset after the last block read
	Blocks        int   // blocks read from the source
	BlocksChanged int   // blocks that differed (rewritten unless dry run)
	BytesCompared int64
	BytesWritten  int64
}

// 🎯 Copier rewrites the blocks of a target that differ from a source
type Copier struct {
	opts   Options
	srcBuf []byte
	dstBuf []byte
}

// 🏭 New validates opts and allocates both block buffers.
//
// Allocation failures are reported as ErrAllocation before any stream is touched.
func New(opts Options) (*Copier, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, errors.Errorf("validating options: %w", err)
	}

	srcBuf, err := allocBlock(opts.BlockSize)
	if err != nil {
		return nil, err
	}
	dstBuf, err := allocBlock(opts.BlockSize)
	if err != nil {
		return nil, err
	}

	return &Copier{
		opts:   opts,
		srcBuf: srcBuf,
		dstBuf: dstBuf,
	}, nil
}

// BlockSize returns the effective block size.
func (c *Copier) BlockSize() int {
	return c.opts.BlockSize
}

// allocBlock turns a recoverable allocation panic (an impossible length) into
// ErrAllocation. A real out-of-memory condition is fatal to the Go runtime and
// never reaches the recover.
func allocBlock(size int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = errors.Errorf("allocating %d bytes: %v: %w", size, r, ErrAllocation)
		}
	}()
	return make([]byte, size), nil
}

// 🔄 Run walks src and dst in lockstep and overwrites every block of dst that
// differs from src.
//
// Both streams are positioned at one shared offset at the start of every
// block. On a mismatch the first min(srcRead, dstRead) bytes of the source
// block are written and the offset advances by that amount; otherwise it
// advances by the bytes read from src. dst is never written past its end.
//
// Read and write failures inside the loop end the run like end of input and
// are only logged. A cancelled ctx stops the run between blocks and is
// returned as an error together with the stats gathered so far.
func (c *Copier) Run(ctx context.Context, src io.ReadSeeker, dst io.ReadWriteSeeker) (*Stats, error) {
	logger := zerolog.Ctx(ctx)

	total, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Errorf("seeking to end of source: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Errorf("rewinding source: %w", err)
	}

	logger.Debug().
		Int64("total", total).
		Int("block_size", c.opts.BlockSize).
		Bool("dry_run", c.opts.DryRun).
		Msg("starting block comparison")

	stats := &Stats{Total: total}
	progress := NewProgress(c.opts.Progress, total, c.opts.ProgressInterval)
	progress.Start()
	defer progress.Finish()

	var offset, srcPos int64
	for {
		if err := ctx.Err(); err != nil {
			return stats, errors.Errorf("stopped at offset %d: %w", offset, err)
		}

		if srcPos != offset {
			if _, err := src.Seek(offset, io.SeekStart); err != nil {
				logger.Warn().Err(err).Int64("offset", offset).Msg("seeking source, treating as end of input")
				return stats, nil
			}
		}

		inRead, srcErr := readBlock(src, c.srcBuf)
		srcPos = offset + int64(inRead)
		if srcErr != nil {
			logger.Warn().Err(srcErr).Int64("offset", offset).Msg("reading source, treating as end of input")
		}
		if inRead == 0 {
			return stats, nil
		}

		stats.Blocks++
		stats.Position = srcPos
		progress.Tick(srcPos)

		if _, err := dst.Seek(offset, io.SeekStart); err != nil {
			logger.Warn().Err(err).Int64("offset", offset).Msg("seeking target, treating as end of input")
			return stats, nil
		}
		outRead, err := readBlock(dst, c.dstBuf)
		if err != nil {
			logger.Warn().Err(err).Int64("offset", offset).Int("read", outRead).Msg("reading target")
		}

		n := min(inRead, outRead)
		stats.BytesCompared += int64(n)

		if bytes.Equal(c.srcBuf[:n], c.dstBuf[:n]) {
			offset += int64(inRead)
			if srcErr != nil {
				return stats, nil
			}
			continue
		}

		stats.BlocksChanged++
		logger.Debug().Int64("offset", offset).Int("length", n).Msg("block differs")

		if !c.opts.DryRun {
			written, err := c.rewrite(dst, offset, c.srcBuf[:n])
			stats.BytesWritten += int64(written)
			if err != nil {
				logger.Warn().Err(err).Int64("offset", offset).Int("written", written).Msg("rewriting block, stopping")
				return stats, nil
			}
		}

		offset += int64(n)
		if srcErr != nil {
			return stats, nil
		}
	}
}

func (c *Copier) rewrite(dst io.WriteSeeker, offset int64, p []byte) (int, error) {
	if _, err := dst.Seek(offset, io.SeekStart); err != nil {
		return 0, errors.Errorf("seeking target to %d: %w", offset, err)
	}
	n, err := dst.Write(p)
	if err != nil {
		return n, errors.Errorf("writing %d bytes at %d: %w", len(p), offset, err)
	}
	return n, nil
}

// readBlock fills buf as far as r allows. Reaching the end of r is not an error.
func readBlock(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}
