package cache

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// schemaVersion is recorded under schemaVersionKey and checked on open
// (§6 "Persisted state"); a mismatch reinitializes the store rather than
// attempting a migration, since the cache is a best-effort accelerator.
const schemaVersion = "1"

const (
	entryPrefix       = "e:"
	schemaVersionKey  = "__schema_version__"
	lastCleanupKey    = "__last_cleanup__"
)

// Options configures a Store's eviction policy, mirroring the §6
// environment knobs.
type Options struct {
	MaxTotalBytes   int64
	MaxEntryBytes   int64
	MaxAge          time.Duration
	CleanupInterval time.Duration
}

// DefaultOptions applies the spec's suggested defaults.
func DefaultOptions() Options {
	return Options{
		MaxTotalBytes:   20 << 30, // 20 GiB
		MaxEntryBytes:   2 << 30,  // 2 GiB
		MaxAge:          30 * 24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// Store is the persisted, content-addressed Chunk Cache of §4.4. It is
// safe for concurrent Get/Put from multiple requests: badger transactions
// give readers either the full prior value or the full new value, and
// chunk assembly reads a consistent snapshot via a single read
// transaction.
type Store struct {
	db   *badger.DB
	opts Options

	cleanupMu   sync.Mutex
	lastCleanup time.Time

	logger zerolog.Logger
}

// Open opens (creating if needed) a badger-backed Store at dir.
func Open(dir string, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("cache: open %q: %w", dir, err)
	}
	s := &Store{db: db, opts: opts, logger: log.With().Str("component", "cache").Logger()}
	if err := s.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) checkSchema() error {
	var needsInit bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaVersionKey))
		if err == badger.ErrKeyNotFound {
			needsInit = true
			return nil
		}
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if string(v) != schemaVersion {
			needsInit = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: checking schema version: %w", err)
	}
	if needsInit {
		s.logger.Warn().Msg("cache schema version mismatch or absent; reinitializing store")
		if err := s.Clear(); err != nil {
			return err
		}
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(schemaVersionKey), []byte(schemaVersion))
		})
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Get implements §4.4's get: a fresh non-chunk entry if present, else
// assembly from chunks sharing base_key == key. Assembly does not
// materialize a new non-chunk entry, so repeated Gets of an
// incompletely-downloaded resource remain cheap to re-run once the
// missing chunks land.
//
// A failed Get is treated as a miss by callers (§7 "Cache errors degrade
// gracefully"); Get itself still returns the error so callers can log it.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, found, err := s.getDirect(key)
	if err != nil {
		return nil, err
	}
	if found {
		if time.Since(e.Meta.CreatedAt) > s.opts.MaxAge && s.opts.MaxAge > 0 {
			return nil, nil // stale: unreachable per invariant (e)
		}
		s.touch(key)
		return &e, nil
	}
	return s.assemble(key)
}

func (s *Store) getDirect(key string) (Entry, bool, error) {
	var e Entry
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entryPrefix + key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		e, err = decode(raw)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return e, found, err
}

// touch updates last_accessed_at on a hit without re-deriving the whole
// record from callers, following the spec's single-store correction of
// the "last_accessed_at updates a nonexistent store" bug (see DESIGN.md
// Open Question decisions).
func (s *Store) touch(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entryPrefix + key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		e, err := decode(raw)
		if err != nil {
			return err
		}
		e.Meta.LastAccessedAt = time.Now()
		enc, err := encode(e)
		if err != nil {
			return err
		}
		return txn.Set([]byte(entryPrefix+key), enc)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to update last_accessed_at")
	}
}

// assemble scans for chunk entries sharing base_key == key, sorts by
// chunk_index, and concatenates. It reads all matching entries inside a
// single badger read transaction, which is badger's consistent
// point-in-time snapshot — a concurrent writer adding new chunks during
// the scan is invisible to it, satisfying the "consistent snapshot"
// concurrency invariant of §4.4.
func (s *Store) assemble(baseKey string) (*Entry, error) {
	type chunk struct {
		index int
		bytes []byte
	}
	var chunks []chunk
	var formatKind, sourceID, datasetID string

	prefix := []byte(entryPrefix + baseKey + "/chunk-")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			e, err := decode(raw)
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk{index: e.Meta.ChunkIndex, bytes: e.Bytes})
			formatKind, sourceID, datasetID = e.Meta.FormatKind, e.Meta.SourceID, e.Meta.DatasetID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache: assemble %q: %w", baseKey, err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].index < chunks[j].index })

	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c.bytes)
	}
	now := time.Now()
	return &Entry{
		Meta: Meta{
			Key: baseKey, Kind: KindBlob, FormatKind: formatKind,
			SourceID: sourceID, DatasetID: datasetID,
			SizeBytes: int64(buf.Len()), CreatedAt: now, LastAccessedAt: now,
		},
		Bytes: buf.Bytes(),
	}, nil
}

// Put stores a logical, non-chunk entry, refusing oversized payloads and
// running a rate-limited cleanup pass first.
func (s *Store) Put(ctx context.Context, key string, data []byte, meta Meta) error {
	if s.opts.MaxEntryBytes > 0 && int64(len(data)) > s.opts.MaxEntryBytes {
		return fmt.Errorf("cache: entry %q (%d bytes) exceeds max entry size %d", key, len(data), s.opts.MaxEntryBytes)
	}
	s.CleanupIfDue(ctx)

	now := time.Now()
	meta.Key = key
	meta.Kind = KindBlob
	meta.SizeBytes = int64(len(data))
	meta.CreatedAt = now
	meta.LastAccessedAt = now

	enc, err := encode(Entry{Meta: meta, Bytes: data})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(entryPrefix+key), enc)
	})
}

// PutChunked splits data into chunkSize fragments and stores each as a
// KindChunk entry under baseKey. It does not write a logical blob entry;
// future Gets of baseKey are satisfied by assembly.
func (s *Store) PutChunked(ctx context.Context, baseKey string, data []byte, meta Meta, chunkSize int) error {
	s.CleanupIfDue(ctx)
	now := time.Now()
	for i := 0; i*chunkSize < len(data); i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := s.putChunk(baseKey, i, data[start:end], meta, now); err != nil {
			return err
		}
	}
	return nil
}

// PutChunk stores a single already-fetched fragment at a known index,
// used by the Chunked Range Downloader when chunks are fetched one at a
// time via Range requests rather than split from an in-memory whole.
func (s *Store) PutChunk(ctx context.Context, baseKey string, index int, data []byte, meta Meta) error {
	s.CleanupIfDue(ctx)
	return s.putChunk(baseKey, index, data, meta, time.Now())
}

func (s *Store) putChunk(baseKey string, index int, data []byte, meta Meta, now time.Time) error {
	m := meta
	m.Kind = KindChunk
	m.BaseKey = baseKey
	m.ChunkIndex = index
	m.SizeBytes = int64(len(data))
	m.CreatedAt = now
	m.LastAccessedAt = now
	key := fmt.Sprintf("%s/chunk-%d", baseKey, index)
	m.Key = key
	enc, err := encode(Entry{Meta: m, Bytes: data})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(entryPrefix+key), enc)
	})
}

// ChunkIndicesPresent returns the set of chunk_index values
// already stored under baseKey, used by the §4.3 resume check.
func (s *Store) ChunkIndicesPresent(baseKey string) (map[int]bool, error) {
	present := make(map[int]bool)
	prefix := []byte(entryPrefix + baseKey + "/chunk-")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			e, err := decode(raw)
			if err != nil {
				return err
			}
			present[e.Meta.ChunkIndex] = true
		}
		return nil
	})
	return present, err
}

// Delete removes a single entry by key. It is not transitive over
// base_key: deleting a logical key does not remove its chunks.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(entryPrefix + key))
	})
}

// Stats summarizes the store's current occupancy.
type Stats struct {
	EntryCount int
	TotalBytes int64
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.forEachEntry(func(m Meta) error {
		st.EntryCount++
		st.TotalBytes += m.SizeBytes
		return nil
	})
	return st, err
}

// List returns metadata for every entry currently resident, for
// administration/observability.
func (s *Store) List() ([]Meta, error) {
	var out []Meta
	err := s.forEachEntry(func(m Meta) error {
		out = append(out, m)
		return nil
	})
	return out, err
}

// Clear removes every entry, including the schema-version marker.
func (s *Store) Clear() error {
	return s.db.DropAll()
}

func (s *Store) forEachEntry(fn func(Meta) error) error {
	prefix := []byte(entryPrefix)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			e, err := decode(raw)
			if err != nil {
				continue // corrupt record: skip rather than abort enumeration
			}
			if err := fn(e.Meta); err != nil {
				return err
			}
		}
		return nil
	})
}
