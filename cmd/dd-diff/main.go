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

// Command dd-diff copies a file onto an existing one, writing only the blocks that differ.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/walteh/dd-diff/pkg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := NewHandler(storage.Default(), os.Stdout, os.Stderr).Execute(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}
