package services

import (
	"context"
	"time"

	"barangay-registry/internal/domain/codec"
	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/code"
	"barangay-registry/internal/infrastructure/kv"
)

// InterfaceHouseholdService defines the household record store
type InterfaceHouseholdService interface {
	CreateHousehold(ctx context.Context, h *models.Household) (string, error)
	GetHouseholdByID(ctx context.Context, id string) (*models.Household, error)
	GetHouseholdWithResidents(ctx context.Context, id string) (*models.HouseholdWithResidents, error)
	UpdateHousehold(ctx context.Context, id string, patch models.HouseholdPatch) (*models.Household, error)
	DeleteHousehold(ctx context.Context, id string) error
	GetAllHouseholds(ctx context.Context, q models.PaginationQuery) (models.PaginationResult[models.Household], error)
	GetHouseholdsByTag(ctx context.Context, tag string) ([]models.Household, error)
}

// HouseholdService stores households and keeps their indexes in the same batch
type HouseholdService struct {
	Store kv.Client
	Index InterfaceIndexService
	Guard InterfaceIntegrityService
	opts  Options
}

// NewHouseholdService creates a household service
func NewHouseholdService(store kv.Client, opts Options) InterfaceHouseholdService {
	opts = opts.withDefaults()
	return &HouseholdService{
		Store: store,
		Index: NewIndexService(opts),
		Guard: NewIntegrityService(store, opts),
		opts:  opts,
	}
}

// 1 CreateHousehold stores a new household and returns its id
func (s *HouseholdService) CreateHousehold(ctx context.Context, in *models.Household) (id string, err error) {
	start := time.Now()
	defer func() { observe(entityHousehold, "create", id, start, err) }()

	h := *in
	h.CategoryTags = cloneTags(in.CategoryTags)
	h.Barangay = s.opts.Barangay
	if h.City == "" {
		h.City = DefaultCity
	}
	if h.Province == "" {
		h.Province = DefaultProvince
	}
	if err := validateStruct(entityHousehold, &h); err != nil {
		return "", err
	}
	if h.ID == "" {
		h.ID = keys.NewHouseholdID()
	}
	now := s.opts.now()
	h.CreatedAt, h.UpdatedAt = now, now

	recordKey := keys.Household(h.ID)
	err = s.Store.Atomic(ctx, []string{recordKey}, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		exists, err := r.Exists(ctx, recordKey)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict(code.ErrHouseholdAlreadyExist, entityHousehold, h.ID, "id already in use")
		}
		b.HSet(recordKey, codec.EncodeHousehold(&h))
		b.SAdd(keys.HouseholdIDs, h.ID)
		s.Index.IndexHousehold(b, &h)
		return nil
	})
	if err != nil {
		return "", apperr.FromStore(entityHousehold, h.ID, err)
	}
	return h.ID, nil
}

// 2 GetHouseholdByID returns the household, or nil when it does not exist
func (s *HouseholdService) GetHouseholdByID(ctx context.Context, id string) (h *models.Household, err error) {
	start := time.Now()
	defer func() { observe(entityHousehold, "get", id, start, err) }()

	m, err := s.Store.HGetAll(ctx, keys.Household(id))
	if err != nil {
		return nil, apperr.FromStore(entityHousehold, id, err)
	}
	return codec.DecodeHousehold(m), nil
}

// 3 GetHouseholdWithResidents returns the household joined with its resolved residents
func (s *HouseholdService) GetHouseholdWithResidents(ctx context.Context, id string) (out *models.HouseholdWithResidents, err error) {
	start := time.Now()
	defer func() { observe(entityHousehold, "get_with_residents", id, start, err) }()

	m, err := s.Store.HGetAll(ctx, keys.Household(id))
	if err != nil {
		return nil, apperr.FromStore(entityHousehold, id, err)
	}
	h := codec.DecodeHousehold(m)
	if h == nil {
		return nil, nil
	}
	ids, err := sortedMembers(ctx, s.Store, keys.ResidentsOfHousehold(id))
	if err != nil {
		return nil, apperr.FromStore(entityHousehold, id, err)
	}
	residents, err := loadResidents(ctx, s.Store, ids)
	if err != nil {
		return nil, apperr.FromStore(entityHousehold, id, err)
	}
	return &models.HouseholdWithResidents{Household: *h, Residents: residents}, nil
}

// 4 UpdateHousehold merges patch into the stored household and re-keys changed index entries
func (s *HouseholdService) UpdateHousehold(ctx context.Context, id string, patch models.HouseholdPatch) (updated *models.Household, err error) {
	start := time.Now()
	defer func() { observe(entityHousehold, "update", id, start, err) }()

	recordKey := keys.Household(id)
	err = s.Store.Atomic(ctx, []string{recordKey}, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		m, err := r.HGetAll(ctx, recordKey)
		if err != nil {
			return err
		}
		before := codec.DecodeHousehold(m)
		if before == nil {
			return apperr.NotFound(code.ErrHouseholdNotFound, entityHousehold, id)
		}

		after := *before
		after.CategoryTags = cloneTags(before.CategoryTags)
		patch.Apply(&after)
		after.UpdatedAt = s.opts.now()
		if err := validateStruct(entityHousehold, &after); err != nil {
			return err
		}

		b.HSet(recordKey, codec.EncodeHousehold(&after))
		s.Index.ReindexHousehold(b, before, &after)
		updated = &after
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(entityHousehold, id, err)
	}
	return updated, nil
}

// 5 DeleteHousehold removes a household that no resident references
func (s *HouseholdService) DeleteHousehold(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe(entityHousehold, "delete", id, start, err) }()

	recordKey := keys.Household(id)
	membersKey := keys.ResidentsOfHousehold(id)
	err = s.Store.Atomic(ctx, []string{recordKey, membersKey}, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		m, err := r.HGetAll(ctx, recordKey)
		if err != nil {
			return err
		}
		before := codec.DecodeHousehold(m)
		if before == nil {
			return apperr.NotFound(code.ErrHouseholdNotFound, entityHousehold, id)
		}
		if err := s.Guard.CheckDeletable(ctx, r, id); err != nil {
			return err
		}

		s.Index.UnindexHousehold(b, before)
		b.SRem(keys.HouseholdIDs, id)
		b.Del(recordKey, membersKey)
		return nil
	})
	return apperr.FromStore(entityHousehold, id, err)
}

// 6 GetAllHouseholds returns one page of households ordered by id
func (s *HouseholdService) GetAllHouseholds(ctx context.Context, q models.PaginationQuery) (page models.PaginationResult[models.Household], err error) {
	start := time.Now()
	defer func() { observe(entityHousehold, "list", "", start, err) }()

	q = q.Normalize()
	ids, err := sortedMembers(ctx, s.Store, keys.HouseholdIDs)
	if err != nil {
		return page, apperr.FromStore(entityHousehold, "", err)
	}
	items, err := loadHouseholds(ctx, s.Store, pageIDs(ids, q))
	if err != nil {
		return page, apperr.FromStore(entityHousehold, "", err)
	}
	return models.NewPaginationResult(items, len(ids), q), nil
}

// 7 GetHouseholdsByTag returns the households filed under tag
func (s *HouseholdService) GetHouseholdsByTag(ctx context.Context, tag string) (out []models.Household, err error) {
	start := time.Now()
	defer func() { observe(entityHousehold, "by_tag", tag, start, err) }()

	ids, err := sortedMembers(ctx, s.Store, keys.HouseholdTag(tag))
	if err != nil {
		return nil, apperr.FromStore(entityHousehold, "", err)
	}
	out, err = loadHouseholds(ctx, s.Store, ids)
	if err != nil {
		return nil, apperr.FromStore(entityHousehold, "", err)
	}
	return out, nil
}
