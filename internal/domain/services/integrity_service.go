package services

import (
	"context"

	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/code"
	"barangay-registry/internal/infrastructure/kv"
)

// InterfaceIntegrityService guards the household to resident relationship
type InterfaceIntegrityService interface {
	CanDelete(ctx context.Context, householdID string) (bool, int64, error)
	CheckDeletable(ctx context.Context, r kv.Reader, householdID string) error
	CheckHouseholdRef(ctx context.Context, r kv.Reader, householdID string) error
	HouseholdRefWatchKeys(householdID string) []string
}

// IntegrityService refuses household deletion while residents reference it
// and, when enabled, resident writes naming a missing household. There is no
// cascade.
type IntegrityService struct {
	store       kv.Client
	validateRef bool
}

// NewIntegrityService creates an integrity guard
func NewIntegrityService(store kv.Client, opts Options) InterfaceIntegrityService {
	return &IntegrityService{store: store, validateRef: opts.ValidateHouseholdRef}
}

// 1 CanDelete reports whether a household has no residents, with the blocking count
func (s *IntegrityService) CanDelete(ctx context.Context, householdID string) (bool, int64, error) {
	n, err := s.store.SCard(ctx, keys.ResidentsOfHousehold(householdID))
	if err != nil {
		return false, 0, apperr.FromStore(entityHousehold, householdID, err)
	}
	return n == 0, n, nil
}

// 2 CheckDeletable returns a Conflict carrying the resident count when the household is referenced
func (s *IntegrityService) CheckDeletable(ctx context.Context, r kv.Reader, householdID string) error {
	n, err := r.SCard(ctx, keys.ResidentsOfHousehold(householdID))
	if err != nil {
		return err
	}
	if n > 0 {
		e := apperr.Conflict(code.ErrHouseholdHasResidents, entityHousehold, householdID,
			"cannot delete household because it still has %d residents", n)
		e.Count = n
		return e
	}
	return nil
}

// 3 CheckHouseholdRef validates a resident's household reference when enabled
func (s *IntegrityService) CheckHouseholdRef(ctx context.Context, r kv.Reader, householdID string) error {
	if !s.validateRef || householdID == "" {
		return nil
	}
	ok, err := r.Exists(ctx, keys.Household(householdID))
	if err != nil {
		return err
	}
	if !ok {
		e := apperr.Validation(entityResident, []string{"householdId"}, "household %s does not exist", householdID)
		e.Code = code.ErrResidentHouseholdMissing
		return e
	}
	return nil
}

// 4 HouseholdRefWatchKeys lists keys to watch so a concurrent household delete aborts the write
func (s *IntegrityService) HouseholdRefWatchKeys(householdID string) []string {
	if !s.validateRef || householdID == "" {
		return nil
	}
	return []string{keys.Household(householdID)}
}
