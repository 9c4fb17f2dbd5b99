// Copyright 2025 Poiesic Systems
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


package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// BatchInfo describes one registered corpus: where its artifacts live
// and how it was built.
type BatchInfo struct {
	Id          string
	Name        string
	Description string
	DocCount    int
	ChunkCount  int
	CreatedAt   time.Time
	VectorDir   string
	LexicalPath string
}

// Registry tracks the built corpora ("batches") of one installation in
// a BadgerDB store: id, description, artifact locations, and which
// batch is the default query target.
type Registry struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the registry store at the specified path.
// Creates the directory if it doesn't exist. With inMemory set, path is
// ignored and nothing is persisted; used by tests.
func Open(filePath string, inMemory bool) (*Registry, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "registry")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Registry{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the registry store.
func (r *Registry) Close() error {
	return r.db.Close()
}

// withTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (r *Registry) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := r.db.NewTransaction(isWrite)
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return err
	}
	if isWrite {
		return tx.Commit()
	}
	return nil
}

// Register stores a batch record. A zero CreatedAt is stamped with the
// current time. The first registered batch becomes the default.
func (r *Registry) Register(info BatchInfo) error {
	if info.Id == "" {
		return ErrInvalidBatchId
	}
	if info.Name == "" {
		info.Name = info.Id
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}

	return r.withTx(func(tx *badger.Txn) error {
		bs := make([]byte, BatchInfoMUS.Size(info))
		BatchInfoMUS.Marshal(info, bs)
		if err := tx.Set(makeBatchKey(info.Id), bs); err != nil {
			return err
		}

		// First batch becomes the default
		_, err := tx.Get(defaultBatchKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return tx.Set(defaultBatchKey(), []byte(info.Id))
		}
		return err
	}, true)
}

// Get returns the batch record for id.
func (r *Registry) Get(id string) (*BatchInfo, error) {
	var info BatchInfo
	err := r.withTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBatchKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("batch %q: %w", id, ErrBatchNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			info, _, err = BatchInfoMUS.Unmarshal(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// List returns all registered batches sorted by id.
func (r *Registry) List() ([]BatchInfo, error) {
	var batches []BatchInfo
	err := r.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(batchPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				info, _, err := BatchInfoMUS.Unmarshal(val)
				if err != nil {
					return err
				}
				batches = append(batches, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].Id < batches[j].Id
	})
	return batches, nil
}

// SetDefault marks an existing batch as the default query target.
func (r *Registry) SetDefault(id string) error {
	return r.withTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeBatchKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("batch %q: %w", id, ErrBatchNotFound)
			}
			return err
		}
		return tx.Set(defaultBatchKey(), []byte(id))
	}, true)
}

// Default returns the default batch record.
func (r *Registry) Default() (*BatchInfo, error) {
	var id string
	err := r.withTx(func(tx *badger.Txn) error {
		item, err := tx.Get(defaultBatchKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoDefaultBatch
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Remove deletes a batch record. Artifact files on disk are not
// touched. Removing the default batch clears the default.
func (r *Registry) Remove(id string) error {
	return r.withTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeBatchKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("batch %q: %w", id, ErrBatchNotFound)
			}
			return err
		}
		if err := tx.Delete(makeBatchKey(id)); err != nil {
			return err
		}

		item, err := tx.Get(defaultBatchKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var current string
		if err := item.Value(func(val []byte) error {
			current = string(val)
			return nil
		}); err != nil {
			return err
		}
		if current == id {
			return tx.Delete(defaultBatchKey())
		}
		return nil
	}, true)
}
