package services

import (
	"context"
	"sort"

	"barangay-registry/internal/domain/codec"
	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/infrastructure/kv"
)

// sortedMembers reads a set and orders it so pages are stable between calls
func sortedMembers(ctx context.Context, r kv.Reader, key string) ([]string, error) {
	ids, err := r.SMembers(ctx, key)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func pageIDs(ids []string, q models.PaginationQuery) []string {
	start := q.Offset()
	if start >= len(ids) {
		return nil
	}
	end := len(ids)
	if q.Limit < end-start {
		end = start + q.Limit
	}
	return ids[start:end]
}

func recordKeys(ids []string, keyOf func(string) string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = keyOf(id)
	}
	return out
}

// loadHouseholds resolves ids in order, dropping ids whose record is gone
func loadHouseholds(ctx context.Context, r kv.Reader, ids []string) ([]models.Household, error) {
	maps, err := r.HGetAllMany(ctx, recordKeys(ids, keys.Household))
	if err != nil {
		return nil, err
	}
	out := make([]models.Household, 0, len(maps))
	for _, m := range maps {
		if h := codec.DecodeHousehold(m); h != nil {
			out = append(out, *h)
		}
	}
	return out, nil
}

// loadResidents resolves ids in order, dropping ids whose record is gone
func loadResidents(ctx context.Context, r kv.Reader, ids []string) ([]models.Resident, error) {
	maps, err := r.HGetAllMany(ctx, recordKeys(ids, keys.Resident))
	if err != nil {
		return nil, err
	}
	out := make([]models.Resident, 0, len(maps))
	for _, m := range maps {
		if res := codec.DecodeResident(m); res != nil {
			out = append(out, *res)
		}
	}
	return out, nil
}

// loadUsers resolves ids to safe views, dropping ids whose record is gone
func loadUsers(ctx context.Context, r kv.Reader, ids []string) ([]models.User, error) {
	maps, err := r.HGetAllMany(ctx, recordKeys(ids, keys.User))
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(maps))
	for _, m := range maps {
		if u := codec.DecodeUser(m); u != nil {
			out = append(out, u.User)
		}
	}
	return out, nil
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return append([]string{}, tags...)
}
