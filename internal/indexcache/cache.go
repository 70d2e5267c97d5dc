// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package indexcache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/similarity"
)

// formatVersion is bumped whenever storedIndex changes shape.
const formatVersion = 1

const indexKeyPrefix = "index:"

var (
	// ErrNotFound means no index is stored under the requested build ID.
	ErrNotFound = errors.New("index not cached")

	// ErrCorrupt means a stored entry could not be decoded or verified.
	ErrCorrupt = errors.New("cached index is corrupt")
)

// Config configures the cache.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory, for tests.
	InMemory bool
}

// Metadata describes a stored index.
type Metadata struct {
	Version         int           `json:"version"`
	BuildID         string        `json:"build_id"`
	StoreID         string        `json:"store_id"`
	MinCommonRaters int           `json:"min_common_raters"`
	Neighbors       int           `json:"neighbors"`
	MoviesIndexed   int           `json:"movies_indexed"`
	Entries         int           `json:"entries"`
	BuiltAt         time.Time     `json:"built_at"`
	BuildDuration   time.Duration `json:"build_duration"`
	SavedAt         time.Time     `json:"saved_at"`
	Checksum        string        `json:"checksum"`
	SizeBytes       int64         `json:"size_bytes"`
}

// storedFile is the value written under each key.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// storedIndex is the payload: neighbor lists in ascending movie order.
type storedIndex struct {
	Movies []catalog.MovieID
	Lists  [][]similarity.Neighbor
}

// Cache is a BadgerDB-backed similarity index store. It is safe for
// concurrent use.
type Cache struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens or creates the cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("index cache path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create index cache directory: %w", err)
		}
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	return &Cache{
		db:     db,
		logger: logger.With().Str("component", "indexcache").Logger(),
	}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get restores the index built from storeID with cfg. It returns
// ErrNotFound on a miss and ErrCorrupt for an unusable entry.
func (c *Cache) Get(ctx context.Context, storeID string, cfg similarity.Config) (*similarity.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buildID := similarity.ExpectedBuildID(storeID, cfg)

	var sf storedFile
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKeyPrefix + buildID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get index: %w", err)
		}
		return item.Value(func(val []byte) error {
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&sf); err != nil {
				return fmt.Errorf("%w: decode envelope: %v", ErrCorrupt, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	meta := sf.Metadata
	if meta.Version != formatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrCorrupt, meta.Version, formatVersion)
	}
	if meta.BuildID != buildID || meta.StoreID != storeID {
		return nil, fmt.Errorf("%w: entry describes index %s of store %s", ErrCorrupt, meta.BuildID, meta.StoreID)
	}

	payload, err := decompress(sf.CompressedData, meta.Checksum)
	if err != nil {
		return nil, err
	}
	if len(payload.Movies) != len(payload.Lists) {
		return nil, fmt.Errorf("%w: %d movies but %d lists", ErrCorrupt, len(payload.Movies), len(payload.Lists))
	}

	lists := make(map[catalog.MovieID][]similarity.Neighbor, len(payload.Movies))
	for i, m := range payload.Movies {
		lists[m] = payload.Lists[i]
	}

	// Workers is not part of the identity; keep the caller's.
	ix, err := similarity.NewIndex(storeID, cfg, lists)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	c.logger.Debug().
		Str("build_id", buildID).
		Int("entries", meta.Entries).
		Time("built_at", meta.BuiltAt).
		Msg("restored similarity index")

	return ix, nil
}

// Put stores ix under its build ID, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, ix *similarity.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	movies := ix.Movies()
	payload := storedIndex{
		Movies: movies,
		Lists:  make([][]similarity.Neighbor, len(movies)),
	}
	for i, m := range movies {
		payload.Lists[i] = ix.Neighbors(m, 0)
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(payload); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress index: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	stats := ix.Stats()
	sf := storedFile{
		Metadata: Metadata{
			Version:         formatVersion,
			BuildID:         ix.BuildID(),
			StoreID:         ix.StoreID(),
			MinCommonRaters: stats.MinCommonRaters,
			Neighbors:       stats.Neighbors,
			MoviesIndexed:   stats.MoviesIndexed,
			Entries:         stats.Entries,
			BuiltAt:         stats.BuiltAt,
			BuildDuration:   stats.BuildDuration,
			SavedAt:         time.Now(),
			Checksum:        hex.EncodeToString(hash[:]),
			SizeBytes:       int64(compressed.Len()),
		},
		CompressedData: compressed.Bytes(),
	}

	var value bytes.Buffer
	if err := gob.NewEncoder(&value).Encode(sf); err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(indexKeyPrefix+ix.BuildID()), value.Bytes())
	})
	if err != nil {
		return fmt.Errorf("store index: %w", err)
	}

	c.logger.Info().
		Str("build_id", ix.BuildID()).
		Int64("size_bytes", sf.Metadata.SizeBytes).
		Int("entries", stats.Entries).
		Msg("persisted similarity index")

	return nil
}

// List returns the metadata of every stored index.
func (c *Cache) List(ctx context.Context) ([]Metadata, error) {
	var out []Metadata
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var sf storedFile
				if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&sf); err != nil {
					return nil // skip unreadable entries
				}
				out = append(out, sf.Metadata)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Prune deletes every stored index except keep and returns how many were
// removed.
func (c *Cache) Prune(ctx context.Context, keep string) (int, error) {
	var stale [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		keepKey := indexKeyPrefix + keep
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if key := it.Item().KeyCopy(nil); string(key) != keepKey {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune index cache: %w", err)
	}
	return len(stale), nil
}

// decompress inflates data and checks it against checksum.
func decompress(data []byte, checksum string) (*storedIndex, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrCorrupt, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("%w: read decompressed data: %v", ErrCorrupt, err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrCorrupt, checksum, got)
	}

	var payload storedIndex
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode index: %v", ErrCorrupt, err)
	}
	return &payload, nil
}
