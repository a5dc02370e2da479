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

// Package storage opens the source and target streams of a copy.
package storage

import (
	"context"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💾 Default returns the host filesystem. Paths are used as given.
func Default() billy.Filesystem {
	return osfs.Default
}

// 📂 OpenSource opens path read-only
func OpenSource(ctx context.Context, fs billy.Filesystem, path string) (billy.File, error) {
	f, err := fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Errorf("opening source %q: %w", path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("opened source")
	return f, nil
}

// 🎯 Target is an open target stream holding an exclusive lock while writable
type Target struct {
	billy.File
	locked bool
}

// 📂 OpenTarget opens an existing path for reading and writing.
//
// The file is never created or truncated. With readOnly set it is opened
// O_RDONLY and left unlocked.
func OpenTarget(ctx context.Context, fs billy.Filesystem, path string, readOnly bool) (*Target, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}

	f, err := fs.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.Errorf("opening target %q: %w", path, err)
	}

	t := &Target{File: f}
	if !readOnly {
		if err := f.Lock(); err != nil {
			f.Close()
			return nil, errors.Errorf("locking target %q: %w", path, err)
		}
		t.locked = true
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Bool("read_only", readOnly).Msg("opened target")
	return t, nil
}

// Close releases the lock, if held, and closes the file.
func (t *Target) Close() error {
	if t.locked {
		t.locked = false
		if err := t.File.Unlock(); err != nil {
			t.File.Close()
			return errors.Errorf("unlocking target: %w", err)
		}
	}
	if err := t.File.Close(); err != nil {
		return errors.Errorf("closing target: %w", err)
	}
	return nil
}
