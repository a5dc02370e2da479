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

// Package config loads optional dd-diff run settings from YAML, HCL or JSON.
package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/walteh/dd-diff/pkg/blockdiff"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config holds the settings a run may take from a file
type Config struct {
	BlockSize        Size `json:"block_size,omitempty" yaml:"block_size,omitempty"`               // bytes, humanized sizes like "4KiB" accepted
	ProgressInterval int  `json:"progress_interval,omitempty" yaml:"progress_interval,omitempty"` // blocks between progress lines
	DryRun           bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Summary          bool `json:"summary,omitempty" yaml:"summary,omitempty"`
	Quiet            bool `json:"quiet,omitempty" yaml:"quiet,omitempty"`
}

// 📏 Size is a byte count written either as a bare number or a humanized string
type Size string

// UnmarshalYAML accepts any scalar.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("block_size must be a scalar, line %d", value.Line)
	}
	*s = Size(value.Value)
	return nil
}

// UnmarshalJSON accepts a JSON number or string.
func (s *Size) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Size(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errors.Errorf("block_size must be a number or a string: %w", err)
	}
	*s = Size(num.String())
	return nil
}

// 🎯 Load reads and validates the configuration at path
func Load(ctx context.Context, fs billy.Filesystem, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.ProgressInterval < 0 {
		return errors.Errorf("progress_interval must not be negative, got %d", cfg.ProgressInterval)
	}
	if _, err := cfg.BlockSizeBytes(); err != nil {
		return err
	}
	return nil
}

// BlockSizeBytes returns the configured block size, or 0 when none is set.
func (cfg *Config) BlockSizeBytes() (int, error) {
	if cfg.BlockSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(string(cfg.BlockSize))
	if err != nil {
		return 0, errors.Errorf("parsing block_size %q: %w", cfg.BlockSize, err)
	}
	if n > blockdiff.MaxBlockSize {
		return 0, errors.Errorf("block_size %s: %w", cfg.BlockSize, blockdiff.ErrBlockSizeTooLarge)
	}
	return int(n), nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	bs := string(cfg.BlockSize)
	if bs == "" {
		bs = "default"
	}
	return fmt.Sprintf("block_size=%s progress_interval=%d dry_run=%t summary=%t quiet=%t",
		bs, cfg.ProgressInterval, cfg.DryRun, cfg.Summary, cfg.Quiet)
}
