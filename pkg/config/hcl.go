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

package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Size helpers so block sizes can be written as expressions
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"KiB": cty.NumberIntVal(1 << 10),
			"MiB": cty.NumberIntVal(1 << 20),
		},
	}

	type hclConfig struct {
		BlockSize        hcl.Expression `hcl:"block_size,optional"`
		ProgressInterval int            `hcl:"progress_interval,optional"`
		DryRun           bool           `hcl:"dry_run,optional"`
		Summary          bool           `hcl:"summary,optional"`
		Quiet            bool           `hcl:"quiet,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		ProgressInterval: hclCfg.ProgressInterval,
		DryRun:           hclCfg.DryRun,
		Summary:          hclCfg.Summary,
		Quiet:            hclCfg.Quiet,
	}

	if hclCfg.BlockSize != nil {
		v, diags := hclCfg.BlockSize.Value(evalCtx)
		if diags.HasErrors() {
			return nil, errors.Errorf("evaluating block_size: %s", diags.Error())
		}
		if !v.IsNull() {
			bs, err := ctyToSize(v)
			if err != nil {
				return nil, err
			}
			cfg.BlockSize = Size(bs)
		}
	}

	return cfg, nil
}

// ctyToSize accepts either a number of bytes or a humanized string.
func ctyToSize(v cty.Value) (string, error) {
	switch {
	case v.Type().Equals(cty.String):
		return v.AsString(), nil
	case v.Type().Equals(cty.Number):
		bf := v.AsBigFloat()
		if !bf.IsInt() || bf.Sign() < 0 {
			return "", errors.Errorf("block_size must be a non-negative whole number, got %s", bf.Text('f', -1))
		}
		return bf.Text('f', 0), nil
	default:
		return "", errors.Errorf("block_size must be a number or a string, got %s", v.Type().FriendlyName())
	}
}
