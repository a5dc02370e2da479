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
	"fmt"
	"io"
)

// 📊 Progress prints in-place progress lines every interval blocks
type Progress struct {
	w        io.Writer
	total    int64
	interval int
	counter  int
	last     int64
}

// 🏭 NewProgress creates a progress reporter. A nil writer counts but never prints.
func NewProgress(w io.Writer, total int64, interval int) *Progress {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Progress{
		w:        w,
		total:    total,
		interval: interval,
	}
}

// Start prints the initial line at position zero.
func (p *Progress) Start() {
	p.print(0)
}

// Tick records the position after a block and prints once the interval is reached.
func (p *Progress) Tick(pos int64) {
	p.counter++
	p.last = pos
	if p.counter >= p.interval {
		p.print(pos)
		p.counter = 0
	}
}

// Finish prints the last known position.
func (p *Progress) Finish() {
	p.print(p.last)
}

func (p *Progress) print(pos int64) {
	if p.w == nil {
		return
	}
	fmt.Fprint(p.w, FormatProgress(pos, p.total))
}

// 📝 FormatProgress formats a carriage-return prefixed progress line without a newline
func FormatProgress(pos, total int64) string {
	return fmt.Sprintf("\rProcessing position %d of %d (%f%%)", pos, total, Percent(pos, total))
}

// Percent returns pos as a percentage of total. An empty total reports 0.
func Percent(pos, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(pos) * 100 / float64(total)
}
