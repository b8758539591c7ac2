// Package leveldb opens the wallet's embedded LevelDB database and hands out
// namespaced buckets to the durable stores (attestations, history, registration,
// account-server attempts).
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"walletcore/pkg/platform/sentinel"
)

const bucketSeparator = ":"

// DB owns one LevelDB database file set.
type DB struct {
	db   *leveldb.DB
	mu   sync.Mutex
	open map[string]*Bucket
}

// Open opens (or creates) the database at dir/name.
func Open(dir, name string) (*DB, error) {
	db, err := leveldb.OpenFile(filepath.Join(dir, name), &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", name, err)
	}
	return &DB{db: db, open: make(map[string]*Bucket)}, nil
}

// Close closes the database. Buckets become unusable.
func (d *DB) Close() error {
	return d.db.Close()
}

// Bucket returns the key namespace called name. Names are case-insensitive
// and may not contain the separator.
func (d *DB) Bucket(name string) (*Bucket, error) {
	if name == "" || strings.Contains(name, bucketSeparator) {
		return nil, fmt.Errorf("invalid bucket name %q", name)
	}
	name = strings.ToLower(name)

	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.open[name]; ok {
		return b, nil
	}
	b := &Bucket{db: d.db, prefix: []byte(name + bucketSeparator)}
	d.open[name] = b
	return b, nil
}

// Bucket is a prefix-scoped view of the database.
type Bucket struct {
	db     *leveldb.DB
	prefix []byte
}

func (b *Bucket) key(k string) []byte {
	out := make([]byte, 0, len(b.prefix)+len(k))
	out = append(out, b.prefix...)
	return append(out, k...)
}

// Put stores raw bytes under k.
func (b *Bucket) Put(k string, v []byte) error {
	return b.db.Put(b.key(k), v, nil)
}

// Get returns the raw value of k or sentinel.ErrNotFound.
func (b *Bucket) Get(k string) ([]byte, error) {
	v, err := b.db.Get(b.key(k), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, sentinel.ErrNotFound
	}
	return v, err
}

// Delete removes k. Missing keys are not an error.
func (b *Bucket) Delete(k string) error {
	return b.db.Delete(b.key(k), nil)
}

// PutJSON marshals v and stores it under k.
func (b *Bucket) PutJSON(k string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", k, err)
	}
	return b.Put(k, raw)
}

// GetJSON loads k into v.
func (b *Bucket) GetJSON(k string, v any) error {
	raw, err := b.Get(k)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", k, err)
	}
	return nil
}

// ForEach visits every entry in key order. Returning an error stops the walk.
func (b *Bucket) ForEach(fn func(key string, value []byte) error) error {
	iter := b.db.NewIterator(util.BytesPrefix(b.prefix), nil)
	defer iter.Release()
	for iter.Next() {
		k := string(iter.Key()[len(b.prefix):])
		// Iterator buffers are reused; copy before handing out.
		v := append([]byte(nil), iter.Value()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Clear deletes every key in the bucket atomically.
func (b *Bucket) Clear() error {
	batch := new(leveldb.Batch)
	iter := b.db.NewIterator(util.BytesPrefix(b.prefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	return b.db.Write(batch, nil)
}

// Batch collects writes that are applied atomically by Commit.
type Batch struct {
	bucket *Bucket
	batch  *leveldb.Batch
}

func (b *Bucket) Batch() *Batch {
	return &Batch{bucket: b, batch: new(leveldb.Batch)}
}

func (b *Batch) PutJSON(k string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", k, err)
	}
	b.batch.Put(b.bucket.key(k), raw)
	return nil
}

func (b *Batch) Delete(k string) {
	b.batch.Delete(b.bucket.key(k))
}

func (b *Batch) Commit() error {
	return b.bucket.db.Write(b.batch, nil)
}
