// Package kv is the storage seam of the registry: a small hash/set/string
// contract with optimistic atomic batches, implemented over Redis and Badger.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrTxConflict is returned by Atomic when a watched key changed before commit.
	ErrTxConflict = errors.New("kv: transaction aborted, watched key modified")
	// ErrUnavailable wraps transport and engine failures on reads and pre-commit steps.
	ErrUnavailable = errors.New("kv: store unavailable")
	// ErrCommitUnknown wraps failures raised while a batch was being committed;
	// the batch may or may not have been applied.
	ErrCommitUnknown = errors.New("kv: commit status unknown")
)

// Reader is the read half of the contract. Missing hashes read as empty maps,
// missing sets as empty slices.
type Reader interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HGetAllMany returns one map per key, in key order
	HGetAllMany(ctx context.Context, keys []string) ([]map[string]string, error)
	Get(ctx context.Context, key string) (string, bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// TxFunc reads through r and queues writes on b. Queued writes are not
// visible to r; they are committed together after TxFunc returns nil.
type TxFunc func(ctx context.Context, r Reader, b *Batch) error

// Client is the injected store handle shared by every service.
type Client interface {
	Reader
	// ScanKeys returns the distinct keys under prefix whose remainder contains substr.
	ScanKeys(ctx context.Context, prefix, substr string) ([]string, error)
	// Atomic runs fn with the watch keys guarded and commits its batch all-or-nothing.
	Atomic(ctx context.Context, watch []string, fn TxFunc) error
	Ping(ctx context.Context) error
	Close() error
}

type opKind int

const (
	opHSet opKind = iota
	opSAdd
	opSRem
	opSet
	opDel
)

type op struct {
	kind    opKind
	key     string
	fields  map[string]string
	members []string
	value   string
	keys    []string
}

// Batch collects writes for a single atomic commit.
type Batch struct {
	ops []op
}

// HSet writes the given fields of a hash, leaving other fields untouched.
func (b *Batch) HSet(key string, fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	b.ops = append(b.ops, op{kind: opHSet, key: key, fields: cp})
}

func (b *Batch) SAdd(key string, members ...string) {
	if len(members) == 0 {
		return
	}
	b.ops = append(b.ops, op{kind: opSAdd, key: key, members: append([]string(nil), members...)})
}

func (b *Batch) SRem(key string, members ...string) {
	if len(members) == 0 {
		return
	}
	b.ops = append(b.ops, op{kind: opSRem, key: key, members: append([]string(nil), members...)})
}

func (b *Batch) Set(key, value string) {
	b.ops = append(b.ops, op{kind: opSet, key: key, value: value})
}

func (b *Batch) Del(keys ...string) {
	if len(keys) == 0 {
		return
	}
	b.ops = append(b.ops, op{kind: opDel, keys: append([]string(nil), keys...)})
}

// Len reports the number of queued writes.
func (b *Batch) Len() int {
	return len(b.ops)
}
