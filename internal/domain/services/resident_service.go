package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"barangay-registry/internal/domain/codec"
	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/code"
	"barangay-registry/internal/infrastructure/kv"
	"barangay-registry/internal/infrastructure/metrics"
	"barangay-registry/pkg/logger"
)

// InterfaceResidentService defines the resident service interface
type InterfaceResidentService interface {
	CreateResident(ctx context.Context, r *models.Resident) (string, error)
	GetResidentByID(ctx context.Context, id string) (*models.Resident, error)
	UpdateResident(ctx context.Context, id string, patch models.ResidentPatch) (*models.Resident, error)
	DeleteResident(ctx context.Context, id string) error
	GetAllResidents(ctx context.Context, q models.PaginationQuery) (models.PaginationResult[models.Resident], error)
	GetResidentsByHousehold(ctx context.Context, householdID string) ([]models.Resident, error)
	GetResidentsByTag(ctx context.Context, tag string) ([]models.Resident, error)
	GetResidentsByAge(ctx context.Context, age int) ([]models.Resident, error)
	ReindexAges(ctx context.Context) (int, error)
}

// ResidentService stores residents together with their name, age, household and tag entries
type ResidentService struct {
	Store kv.Client
	Index InterfaceIndexService
	Guard InterfaceIntegrityService
	opts  Options
}

// NewResidentService creates a resident service
func NewResidentService(store kv.Client, opts Options) InterfaceResidentService {
	opts = opts.withDefaults()
	return &ResidentService{
		Store: store,
		Index: NewIndexService(opts),
		Guard: NewIntegrityService(store, opts),
		opts:  opts,
	}
}

// 1 CreateResident stores a new resident and files it under its current age
func (s *ResidentService) CreateResident(ctx context.Context, in *models.Resident) (id string, err error) {
	start := time.Now()
	defer func() { observe(entityResident, "create", id, start, err) }()

	r := *in
	r.CategoryTags = cloneTags(in.CategoryTags)
	if err := validateStruct(entityResident, &r); err != nil {
		return "", err
	}
	if r.ID == "" {
		r.ID = keys.NewResidentID()
	}
	now := s.opts.now()
	r.CreatedAt, r.UpdatedAt = now, now
	s.stampAge(&r, now)

	recordKey := keys.Resident(r.ID)
	watch := append([]string{recordKey}, s.Guard.HouseholdRefWatchKeys(r.HouseholdID)...)
	err = s.Store.Atomic(ctx, watch, func(ctx context.Context, rd kv.Reader, b *kv.Batch) error {
		exists, err := rd.Exists(ctx, recordKey)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict(code.ErrResidentAlreadyExist, entityResident, r.ID, "id already in use")
		}
		if err := s.Guard.CheckHouseholdRef(ctx, rd, r.HouseholdID); err != nil {
			return err
		}
		b.HSet(recordKey, codec.EncodeResident(&r))
		b.SAdd(keys.ResidentIDs, r.ID)
		s.Index.IndexResident(b, &r)
		return nil
	})
	if err != nil {
		return "", apperr.FromStore(entityResident, r.ID, err)
	}
	return r.ID, nil
}

// 2 GetResidentByID returns the resident, or nil when it does not exist
func (s *ResidentService) GetResidentByID(ctx context.Context, id string) (r *models.Resident, err error) {
	start := time.Now()
	defer func() { observe(entityResident, "get", id, start, err) }()

	m, err := s.Store.HGetAll(ctx, keys.Resident(id))
	if err != nil {
		return nil, apperr.FromStore(entityResident, id, err)
	}
	return codec.DecodeResident(m), nil
}

// 3 UpdateResident merges patch and moves the index entries whose key changed
func (s *ResidentService) UpdateResident(ctx context.Context, id string, patch models.ResidentPatch) (updated *models.Resident, err error) {
	start := time.Now()
	defer func() { observe(entityResident, "update", id, start, err) }()

	recordKey := keys.Resident(id)
	watch := []string{recordKey}
	if patch.HouseholdID != nil {
		watch = append(watch, s.Guard.HouseholdRefWatchKeys(*patch.HouseholdID)...)
	}
	err = s.Store.Atomic(ctx, watch, func(ctx context.Context, rd kv.Reader, b *kv.Batch) error {
		m, err := rd.HGetAll(ctx, recordKey)
		if err != nil {
			return err
		}
		before := codec.DecodeResident(m)
		if before == nil {
			return apperr.NotFound(code.ErrResidentNotFound, entityResident, id)
		}

		after := *before
		after.CategoryTags = cloneTags(before.CategoryTags)
		patch.Apply(&after)
		now := s.opts.now()
		after.UpdatedAt = now
		if err := validateStruct(entityResident, &after); err != nil {
			return err
		}
		if after.HouseholdID != before.HouseholdID {
			if err := s.Guard.CheckHouseholdRef(ctx, rd, after.HouseholdID); err != nil {
				return err
			}
		}
		s.stampAge(&after, now)

		b.HSet(recordKey, codec.EncodeResident(&after))
		s.Index.ReindexResident(b, before, &after)
		updated = &after
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(entityResident, id, err)
	}
	return updated, nil
}

// 4 DeleteResident removes the resident and every index entry pointing at it
func (s *ResidentService) DeleteResident(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe(entityResident, "delete", id, start, err) }()

	recordKey := keys.Resident(id)
	err = s.Store.Atomic(ctx, []string{recordKey}, func(ctx context.Context, rd kv.Reader, b *kv.Batch) error {
		m, err := rd.HGetAll(ctx, recordKey)
		if err != nil {
			return err
		}
		before := codec.DecodeResident(m)
		if before == nil {
			return apperr.NotFound(code.ErrResidentNotFound, entityResident, id)
		}
		s.Index.UnindexResident(b, before)
		b.SRem(keys.ResidentIDs, id)
		b.Del(recordKey)
		return nil
	})
	return apperr.FromStore(entityResident, id, err)
}

// 5 GetAllResidents returns one page of residents ordered by id
func (s *ResidentService) GetAllResidents(ctx context.Context, q models.PaginationQuery) (page models.PaginationResult[models.Resident], err error) {
	start := time.Now()
	defer func() { observe(entityResident, "list", "", start, err) }()

	q = q.Normalize()
	ids, err := sortedMembers(ctx, s.Store, keys.ResidentIDs)
	if err != nil {
		return page, apperr.FromStore(entityResident, "", err)
	}
	items, err := loadResidents(ctx, s.Store, pageIDs(ids, q))
	if err != nil {
		return page, apperr.FromStore(entityResident, "", err)
	}
	return models.NewPaginationResult(items, len(ids), q), nil
}

// 6 GetResidentsByHousehold returns the members of a household
func (s *ResidentService) GetResidentsByHousehold(ctx context.Context, householdID string) (out []models.Resident, err error) {
	start := time.Now()
	defer func() { observe(entityResident, "by_household", householdID, start, err) }()

	return s.listIndex(ctx, keys.ResidentsOfHousehold(householdID))
}

// 7 GetResidentsByTag returns the residents filed under tag
func (s *ResidentService) GetResidentsByTag(ctx context.Context, tag string) (out []models.Resident, err error) {
	start := time.Now()
	defer func() { observe(entityResident, "by_tag", tag, start, err) }()

	return s.listIndex(ctx, keys.ResidentTag(tag))
}

// 8 GetResidentsByAge returns the residents filed under age. Entries reflect
// the age at the last write or reindex.
func (s *ResidentService) GetResidentsByAge(ctx context.Context, age int) (out []models.Resident, err error) {
	start := time.Now()
	defer func() { observe(entityResident, "by_age", "", start, err) }()

	return s.listIndex(ctx, keys.ResidentAge(age))
}

// 9 ReindexAges refiles every resident whose stored age no longer matches
// today and returns how many moved. A resident changed concurrently is left
// for the next run.
func (s *ResidentService) ReindexAges(ctx context.Context) (moved int, err error) {
	start := time.Now()
	defer func() { observe(entityResident, "reindex_ages", "", start, err) }()

	ids, err := sortedMembers(ctx, s.Store, keys.ResidentIDs)
	if err != nil {
		return 0, apperr.FromStore(entityResident, "", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		changed, err := s.reindexAge(ctx, id)
		if errors.Is(err, kv.ErrTxConflict) {
			logger.L().Warn("resident changed during age reindex, skipped", slog.String("id", id))
			continue
		}
		if err != nil {
			return moved, apperr.FromStore(entityResident, id, err)
		}
		if changed {
			moved++
		}
	}
	metrics.AddReindexed(moved)
	return moved, nil
}

func (s *ResidentService) reindexAge(ctx context.Context, id string) (changed bool, err error) {
	recordKey := keys.Resident(id)
	err = s.Store.Atomic(ctx, []string{recordKey}, func(ctx context.Context, rd kv.Reader, b *kv.Batch) error {
		m, err := rd.HGetAll(ctx, recordKey)
		if err != nil {
			return err
		}
		before := codec.DecodeResident(m)
		if before == nil {
			return nil
		}
		age, ok := models.AgeAt(before.BirthDate, s.opts.now())
		if !ok || (before.IndexedAge != nil && *before.IndexedAge == age) {
			return nil
		}
		after := *before
		after.IndexedAge = &age
		b.HSet(recordKey, map[string]string{"indexedAge": codec.EncodeResident(&after)["indexedAge"]})
		s.Index.ReindexResident(b, before, &after)
		changed = true
		return nil
	})
	return changed, err
}

func (s *ResidentService) listIndex(ctx context.Context, key string) ([]models.Resident, error) {
	ids, err := sortedMembers(ctx, s.Store, key)
	if err != nil {
		return nil, apperr.FromStore(entityResident, "", err)
	}
	out, err := loadResidents(ctx, s.Store, ids)
	if err != nil {
		return nil, apperr.FromStore(entityResident, "", err)
	}
	return out, nil
}

// stampAge records the age r is filed under as of now
func (s *ResidentService) stampAge(r *models.Resident, now time.Time) {
	if age, ok := models.AgeAt(r.BirthDate, now); ok {
		r.IndexedAge = &age
		return
	}
	r.IndexedAge = nil
}
