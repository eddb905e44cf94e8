// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badgerstore retains synthesized traces in embedded BadgerDB.
//
// The synthesizer itself owns no state; this store keeps past traces
// queryable by trace id and by flow id. Entries carry a TTL so retention
// is bounded without an external sweeper.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianAtlas/services/topology/engine"
	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// Key prefixes. Trace bodies live under tracePrefix; flowPrefix holds a
// secondary index from flow id to trace ids.
const (
	tracePrefix = "trace:"
	flowPrefix  = "flow:"
)

// DefaultRetention bounds how long a stored trace stays queryable.
const DefaultRetention = 24 * time.Hour

// Config holds configuration for the trace store.
type Config struct {
	// Path is the directory for database files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Retention is the TTL applied to stored traces.
	// Zero selects DefaultRetention; negative disables expiry.
	Retention time.Duration

	// Logger receives BadgerDB's internal log output. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: durable writes and 24-hour
// retention.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
		Retention:  DefaultRetention,
	}
}

// InMemoryConfig returns a configuration for tests: no disk I/O, no
// expiry.
func InMemoryConfig() Config {
	return Config{
		InMemory:  true,
		Retention: -1,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is the BadgerDB-backed trace retention store.
//
// Thread Safety: safe for concurrent use; BadgerDB transactions provide
// isolation.
type Store struct {
	db        *badger.DB
	retention time.Duration
}

// Open creates the trace store with the given configuration.
//
// Description:
//
//	Opens a BadgerDB database at the configured path (created if
//	missing), or in memory. The caller owns the store and must call
//	Close on shutdown.
//
// Outputs:
//
//	*Store - The opened store.
//	error - Non-nil if the path is missing for persistent mode or the
//	database cannot be opened.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent trace store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create trace store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open trace store: %w", err)
	}

	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}
	return &Store{db: db, retention: retention}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a trace under its trace id and indexes it by flow id.
//
// The trace body and its index entry are written in one transaction, so
// a flow listing never dangles. Both entries share the store's TTL.
func (s *Store) Put(ctx context.Context, trace *engine.Trace) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if trace == nil || trace.TraceID == "" {
		return errors.New("trace must carry a trace id")
	}

	body, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("encode trace %s: %w", trace.TraceID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(tracePrefix+trace.TraceID), body)
		index := badger.NewEntry(flowKey(trace.FlowID, trace.TraceID), []byte(trace.TraceID))
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
			index = index.WithTTL(s.retention)
		}
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		return txn.SetEntry(index)
	})
}

// Get returns a stored trace by id.
//
// Outputs:
//
//	*engine.Trace - The decoded trace.
//	error - A registry NotFoundError (kind "trace") when the id is
//	unknown or the entry has expired.
func (s *Store) Get(ctx context.Context, traceID string) (*engine.Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	var trace engine.Trace
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tracePrefix + traceID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &trace)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &registry.NotFoundError{Kind: "trace", ID: traceID}
	}
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", traceID, err)
	}
	return &trace, nil
}

// ListByFlow returns up to limit traces recorded for a flow, in index
// order. A limit <= 0 means no limit.
func (s *Store) ListByFlow(ctx context.Context, flowID string, limit int) ([]*engine.Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	ids := make([]string, 0)
	prefix := flowKey(flowID, "")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(ids) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list traces for flow %s: %w", flowID, err)
	}

	traces := make([]*engine.Trace, 0, len(ids))
	for _, id := range ids {
		trace, err := s.Get(ctx, id)
		if err != nil {
			// The body can expire between the index scan and the read.
			if errors.Is(err, registry.ErrNotFound) {
				continue
			}
			return nil, err
		}
		traces = append(traces, trace)
	}
	return traces, nil
}

// Count returns the number of retained traces. Used by the stats
// endpoint; iterates keys only.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(tracePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count traces: %w", err)
	}
	return count, nil
}

// flowKey builds the secondary index key for a (flow, trace) pair.
func flowKey(flowID, traceID string) []byte {
	return []byte(flowPrefix + flowID + ":" + traceID)
}
