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
	"io"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🎨 Defaults
const (
	DefaultBlockSize        = 65536   // bytes per block when none is given
	MaxBlockSize            = 1 << 30 // largest block we agree to allocate twice
	DefaultProgressInterval = 25      // iterations between progress lines
)

var (
	ErrNegativeBlockSize = errors.Base("block size must not be negative")
	ErrBlockSizeTooLarge = errors.Base("block size exceeds maximum")
	ErrAllocation        = errors.Base("could not allocate memory")
)

// 🔧 Options configures a Copier
type Options struct {
	// BlockSize is the unit of comparison and rewrite. Zero selects DefaultBlockSize.
	BlockSize int
	// ProgressInterval is the number of blocks between progress lines. Zero selects DefaultProgressInterval.
	ProgressInterval int
	// DryRun compares every block but never writes to the target.
	DryRun bool
	// Progress receives the carriage-return progress lines. Nil disables them.
	Progress io.Writer
}

// 🔍 Validate checks the block size bounds
func (o Options) Validate() error {
	if o.BlockSize < 0 {
		return errors.Errorf("%d: %w", o.BlockSize, ErrNegativeBlockSize)
	}
	if o.BlockSize > MaxBlockSize {
		return errors.Errorf("%d > %d: %w", o.BlockSize, MaxBlockSize, ErrBlockSizeTooLarge)
	}
	if o.ProgressInterval < 0 {
		return errors.Errorf("progress interval must not be negative, got %d", o.ProgressInterval)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.BlockSize == 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.ProgressInterval == 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	return o
}

// 📝 ParseBlockSize parses a block size given on the command line.
//
// Like C atoi it skips leading whitespace, accepts one sign and reads digits
// up to the first non-digit, so "12abc" is 12. A value without leading digits
// or a literal zero selects DefaultBlockSize. Negative values and values above
// MaxBlockSize are rejected.
func ParseBlockSize(s string) (int, error) {
	digits := leadingInteger(s)
	n, err := strconv.Atoi(digits)
	switch {
	case errors.Is(err, strconv.ErrRange):
		if strings.HasPrefix(digits, "-") {
			return 0, errors.Errorf("%s: %w", digits, ErrNegativeBlockSize)
		}
		return 0, errors.Errorf("%s: %w", digits, ErrBlockSizeTooLarge)
	case err != nil, n == 0:
		return DefaultBlockSize, nil
	}
	if err := (Options{BlockSize: n}).Validate(); err != nil {
		return 0, err
	}
	return n, nil
}

// leadingInteger returns the optionally signed run of digits s starts with,
// after leading whitespace. It is empty when s has no leading digits.
func leadingInteger(s string) string {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return ""
	}
	return s[:end]
}
