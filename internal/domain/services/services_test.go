package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/infrastructure/kv"
)

var testNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	mr         *miniredis.Miniredis
	store      kv.Client
	opts       Options
	households InterfaceHouseholdService
	residents  InterfaceResidentService
	users      InterfaceUserService
	search     InterfaceSearchService
	stats      InterfaceStatsService
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	store := kv.NewRedisClient(kv.RedisOptions{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })
	return newEnvOn(t, mr, store, mutate...)
}

func newEnvOn(t *testing.T, mr *miniredis.Miniredis, store kv.Client, mutate ...func(*Options)) *testEnv {
	t.Helper()
	opts := Options{Now: func() time.Time { return testNow }}
	for _, m := range mutate {
		m(&opts)
	}
	return &testEnv{
		mr:         mr,
		store:      store,
		opts:       opts,
		households: NewHouseholdService(store, opts),
		residents:  NewResidentService(store, opts),
		users:      NewUserService(store, opts),
		search:     NewSearchService(store),
		stats:      NewStatsService(store, opts),
	}
}

// keysWithPrefix lists the keys currently in miniredis under prefix
func (e *testEnv) keysWithPrefix(prefix string) []string {
	var out []string
	for _, k := range e.mr.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (e *testEnv) members(t *testing.T, key string) []string {
	t.Helper()
	ids, err := e.store.SMembers(context.Background(), key)
	require.NoError(t, err)
	sort.Strings(ids)
	return ids
}

func (e *testEnv) createHousehold(t *testing.T, h models.Household) string {
	t.Helper()
	if h.AddressLine1 == "" {
		h.AddressLine1 = "1 Rizal St"
	}
	id, err := e.households.CreateHousehold(context.Background(), &h)
	require.NoError(t, err)
	return id
}

func (e *testEnv) createResident(t *testing.T, r models.Resident) string {
	t.Helper()
	if r.FirstName == "" {
		r.FirstName = "Juan"
	}
	if r.LastName == "" {
		r.LastName = "Dela Cruz"
	}
	if r.BirthDate == "" {
		r.BirthDate = "1990-01-01"
	}
	if r.Gender == "" {
		r.Gender = "Male"
	}
	if r.CivilStatus == "" {
		r.CivilStatus = "Single"
	}
	id, err := e.residents.CreateResident(context.Background(), &r)
	require.NoError(t, err)
	return id
}

// interleavingClient injects a concurrent writer into the first transaction.
// before runs ahead of the transaction; concurrent runs after the body has
// read its snapshot and before the batch commits.
type interleavingClient struct {
	kv.Client
	before     func()
	concurrent func()
	fired      bool
}

func (c *interleavingClient) Atomic(ctx context.Context, watch []string, fn kv.TxFunc) error {
	if c.before != nil {
		before := c.before
		c.before = nil
		before()
	}
	return c.Client.Atomic(ctx, watch, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		if err := fn(ctx, r, b); err != nil {
			return err
		}
		if !c.fired && c.concurrent != nil {
			c.fired = true
			c.concurrent()
		}
		return nil
	})
}

func strPtr(s string) *string { return &s }
