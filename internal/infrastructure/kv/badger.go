package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// On-disk layout. Every logical key K is stored escaped as E(K), where 0x00
// becomes 0x01 0x01 and 0x01 becomes 0x01 0x02, so E(K) never holds a 0x00.
// The header entry E(K) names the type in its first value byte; hash fields live
// at E(K)\x00h\x00field and set members at E(K)\x00s\x00member. Writing any part
// of K also rewrites its header, so a transaction that read the header
// conflicts with every later writer of K.
const (
	typeHash   byte = 'h'
	typeSet    byte = 's'
	typeString byte = 'v'
	sep        byte = 0
	escape     byte = 1
)

// BadgerConfig configures OpenBadger
type BadgerConfig struct {
	Path           string
	InMemory       bool
	SyncWrites     bool
	Logger         *slog.Logger
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns settings for a persistent store at path
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns settings for a throwaway in-memory store
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

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

// BadgerClient implements Client over an embedded Badger database.
// Atomic relies on Badger's serializable snapshot isolation.
type BadgerClient struct {
	db     *badger.DB
	logger *slog.Logger

	stopGC chan struct{}
	gcDone chan struct{}
	once   sync.Once
}

var _ Client = (*BadgerClient)(nil)

// OpenBadger opens or creates the database described by cfg
func OpenBadger(cfg BadgerConfig) (*BadgerClient, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("badger: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %w", ErrUnavailable, err)
	}

	c := &BadgerClient{db: db, logger: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.stopGC = make(chan struct{})
		c.gcDone = make(chan struct{})
		go c.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return c, nil
}

func (c *BadgerClient) runGC(interval time.Duration, ratio float64) {
	defer close(c.gcDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopGC:
			return
		case <-ticker.C:
			err := c.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && c.logger != nil {
				c.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

func (c *BadgerClient) view(ctx context.Context, fn func(r *badgerReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.View(func(txn *badger.Txn) error {
		return fn(&badgerReader{txn: txn})
	})
}

func (c *BadgerClient) HGetAll(ctx context.Context, key string) (m map[string]string, err error) {
	err = c.view(ctx, func(r *badgerReader) error {
		m, err = r.HGetAll(ctx, key)
		return err
	})
	return m, err
}

func (c *BadgerClient) HGetAllMany(ctx context.Context, keys []string) (out []map[string]string, err error) {
	err = c.view(ctx, func(r *badgerReader) error {
		out, err = r.HGetAllMany(ctx, keys)
		return err
	})
	return out, err
}

func (c *BadgerClient) Get(ctx context.Context, key string) (v string, ok bool, err error) {
	err = c.view(ctx, func(r *badgerReader) error {
		v, ok, err = r.Get(ctx, key)
		return err
	})
	return v, ok, err
}

func (c *BadgerClient) SMembers(ctx context.Context, key string) (m []string, err error) {
	err = c.view(ctx, func(r *badgerReader) error {
		m, err = r.SMembers(ctx, key)
		return err
	})
	return m, err
}

func (c *BadgerClient) SCard(ctx context.Context, key string) (n int64, err error) {
	err = c.view(ctx, func(r *badgerReader) error {
		n, err = r.SCard(ctx, key)
		return err
	})
	return n, err
}

func (c *BadgerClient) Exists(ctx context.Context, key string) (ok bool, err error) {
	err = c.view(ctx, func(r *badgerReader) error {
		ok, err = r.Exists(ctx, key)
		return err
	})
	return ok, err
}

// ScanKeys iterates the prefix and keeps keys whose remainder contains substr
func (c *BadgerClient) ScanKeys(ctx context.Context, prefix, substr string) ([]string, error) {
	seen := make(map[string]struct{})
	err := c.view(ctx, func(r *badgerReader) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = escapeKey(prefix)
		it := r.txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			raw := item.Key()
			isHeader := true
			if i := bytes.IndexByte(raw, sep); i >= 0 {
				raw = raw[:i]
				isHeader = false
			}
			logical := unescapeKey(raw)
			if _, ok := seen[logical]; ok || !strings.Contains(logical[len(prefix):], substr) {
				continue
			}
			if isHeader {
				// hashes and sets are reported through their children, strings by header
				isString := false
				if err := item.Value(func(v []byte) error {
					isString = len(v) > 0 && v[0] == typeString
					return nil
				}); err != nil {
					return fmt.Errorf("%w: read %s: %w", ErrUnavailable, logical, err)
				}
				if !isString {
					continue
				}
			}
			seen[logical] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Atomic runs fn in one read-write transaction and commits its batch.
// Reads of the watch keys are recorded so concurrent writers abort the commit.
func (c *BadgerClient) Atomic(ctx context.Context, watch []string, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := c.db.NewTransaction(true)
	defer txn.Discard()

	r := &badgerReader{txn: txn}
	for _, k := range watch {
		if _, err := r.header(k); err != nil {
			return err
		}
	}

	b := &Batch{}
	if err := fn(ctx, r, b); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	for _, o := range b.ops {
		if err := applyBadger(txn, o); err != nil {
			return fmt.Errorf("%w: stage write: %w", ErrUnavailable, err)
		}
	}
	if err := txn.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return ErrTxConflict
		}
		return fmt.Errorf("%w: commit: %w", ErrCommitUnknown, err)
	}
	return nil
}

func (c *BadgerClient) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.db.IsClosed() {
		return fmt.Errorf("%w: badger database closed", ErrUnavailable)
	}
	return nil
}

// Close stops value log GC and closes the database
func (c *BadgerClient) Close() error {
	c.once.Do(func() {
		if c.stopGC != nil {
			close(c.stopGC)
			<-c.gcDone
		}
	})
	return c.db.Close()
}

func escapeKey(key string) []byte {
	out := make([]byte, 0, len(key)+3)
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case sep:
			out = append(out, escape, 1)
		case escape:
			out = append(out, escape, 2)
		default:
			out = append(out, key[i])
		}
	}
	return out
}

func unescapeKey(raw []byte) string {
	if bytes.IndexByte(raw, escape) < 0 {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == escape && i+1 < len(raw) {
			i++
			out = append(out, raw[i]-1)
			continue
		}
		out = append(out, raw[i])
	}
	return string(out)
}

func headerKey(key string) []byte {
	return escapeKey(key)
}

func childPrefix(key string, t byte) []byte {
	return append(escapeKey(key), sep, t, sep)
}

func childKey(key string, t byte, name string) []byte {
	return append(childPrefix(key, t), name...)
}

func applyBadger(txn *badger.Txn, o op) error {
	switch o.kind {
	case opHSet:
		if err := txn.Set(headerKey(o.key), []byte{typeHash}); err != nil {
			return err
		}
		for f, v := range o.fields {
			if err := txn.Set(childKey(o.key, typeHash, f), []byte(v)); err != nil {
				return err
			}
		}
	case opSAdd:
		if err := txn.Set(headerKey(o.key), []byte{typeSet}); err != nil {
			return err
		}
		for _, m := range o.members {
			if err := txn.Set(childKey(o.key, typeSet, m), []byte{}); err != nil {
				return err
			}
		}
	case opSRem:
		if err := txn.Set(headerKey(o.key), []byte{typeSet}); err != nil {
			return err
		}
		for _, m := range o.members {
			if err := txn.Delete(childKey(o.key, typeSet, m)); err != nil {
				return err
			}
		}
	case opSet:
		return txn.Set(headerKey(o.key), append([]byte{typeString}, o.value...))
	case opDel:
		for _, k := range o.keys {
			if err := deleteLogical(txn, k); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteLogical(txn *badger.Txn, key string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = append(escapeKey(key), sep)
	it := txn.NewIterator(opts)
	var children [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		children = append(children, it.Item().KeyCopy(nil))
	}
	it.Close()
	for _, k := range children {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return txn.Delete(headerKey(key))
}

type badgerReader struct {
	txn *badger.Txn
}

// header returns the type byte of key, or 0 when absent
func (r *badgerReader) header(key string) (byte, error) {
	item, err := r.txn.Get(headerKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: get %s: %w", ErrUnavailable, key, err)
	}
	var t byte
	err = item.Value(func(v []byte) error {
		if len(v) > 0 {
			t = v[0]
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
	}
	return t, nil
}

func (r *badgerReader) children(key string, t byte, withValues bool, fn func(name string, value []byte)) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	prefix := childPrefix(key, t)
	opts.Prefix = prefix
	it := r.txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		name := string(item.Key()[len(prefix):])
		var value []byte
		if withValues {
			v, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
			}
			value = v
		}
		fn(name, value)
	}
	return nil
}

func (r *badgerReader) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m := make(map[string]string)
	err := r.children(key, typeHash, true, func(name string, value []byte) {
		m[name] = string(value)
	})
	return m, err
}

func (r *badgerReader) HGetAllMany(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		m, err := r.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (r *badgerReader) Get(_ context.Context, key string) (string, bool, error) {
	item, err := r.txn.Get(headerKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrUnavailable, key, err)
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
	}
	if len(v) == 0 || v[0] != typeString {
		return "", false, nil
	}
	return string(v[1:]), true, nil
}

func (r *badgerReader) SMembers(_ context.Context, key string) ([]string, error) {
	members := []string{}
	err := r.children(key, typeSet, false, func(name string, _ []byte) {
		members = append(members, name)
	})
	return members, err
}

func (r *badgerReader) SCard(_ context.Context, key string) (int64, error) {
	var n int64
	err := r.children(key, typeSet, false, func(string, []byte) { n++ })
	return n, err
}

func (r *badgerReader) Exists(_ context.Context, key string) (bool, error) {
	t, err := r.header(key)
	if err != nil || t == 0 {
		return false, err
	}
	if t == typeString {
		return true, nil
	}
	found := false
	err = r.children(key, t, false, func(string, []byte) { found = true })
	return found, err
}
