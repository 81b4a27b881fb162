package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/code"
)

func TestHouseholdRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.households.CreateHousehold(ctx, &models.Household{
		AddressLine1:  "123 Main St",
		Barangay:      "Somewhere Else",
		MonthlyIncome: 15000.5,
		CategoryTags:  []string{"Senior", "4Ps"},
		Notes:         "corner lot",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^hh:[0-9a-f-]{36}$`, id)

	got, err := env.households.GetHouseholdByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "123 Main St", got.AddressLine1)
	assert.Equal(t, DefaultBarangay, got.Barangay)
	assert.Equal(t, DefaultCity, got.City)
	assert.Equal(t, DefaultProvince, got.Province)
	assert.Equal(t, 15000.5, got.MonthlyIncome)
	assert.Equal(t, []string{"Senior", "4Ps"}, got.CategoryTags)
	assert.Equal(t, "corner lot", got.Notes)
	assert.True(t, got.CreatedAt.Equal(testNow))
	assert.True(t, got.UpdatedAt.Equal(testNow))

	assert.Equal(t, []string{id}, env.members(t, keys.HouseholdIDs))
	assert.Equal(t, []string{id}, env.members(t, "households:index:address:123 main st "))
	assert.Equal(t, []string{id}, env.members(t, "households:index:barangay:kabacsanan"))
	assert.Equal(t, []string{id}, env.members(t, "households:index:tag:senior"))
	assert.Equal(t, []string{id}, env.members(t, "households:index:tag:4ps"))
}

func TestGetMissingHouseholdIsNotAnError(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.households.GetHouseholdByID(context.Background(), "hh:missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	joined, err := env.households.GetHouseholdWithResidents(context.Background(), "hh:missing")
	require.NoError(t, err)
	assert.Nil(t, joined)
}

func TestCreateHouseholdRequiresAddress(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.households.CreateHousehold(context.Background(), &models.Household{MonthlyIncome: 100})
	require.ErrorIs(t, err, apperr.ErrValidation)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "addressLine1")
	assert.Empty(t, env.mr.Keys())
}

func TestCreateHouseholdRejectsTakenID(t *testing.T) {
	env := newTestEnv(t)
	env.createHousehold(t, models.Household{BaseModel: models.BaseModel{ID: "hh:fixed"}})

	_, err := env.households.CreateHousehold(context.Background(), &models.Household{
		BaseModel:    models.BaseModel{ID: "hh:fixed"},
		AddressLine1: "9 Other St",
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, code.ErrHouseholdAlreadyExist, apperr.CodeOf(err))
	assert.Empty(t, env.keysWithPrefix("households:index:address:9 other"))
}

func TestUpdateHouseholdMovesChangedIndexes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createHousehold(t, models.Household{
		AddressLine1: "12 Rizal St",
		AddressLine2: "Purok 1",
		CategoryTags: []string{"senior", "pwd"},
	})

	later := testNow.Add(time.Hour)
	env.households.(*HouseholdService).opts.Now = func() time.Time { return later }

	tags := []string{"PWD", "solo parent"}
	updated, err := env.households.UpdateHousehold(ctx, id, models.HouseholdPatch{
		AddressLine2: strPtr(""),
		CategoryTags: &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "12 Rizal St", updated.AddressLine1)
	assert.Equal(t, "", updated.AddressLine2)
	assert.Equal(t, []string{"PWD", "solo parent"}, updated.CategoryTags)
	assert.True(t, updated.CreatedAt.Equal(testNow))
	assert.True(t, updated.UpdatedAt.Equal(later))

	assert.Empty(t, env.members(t, "households:index:address:12 rizal st purok 1"))
	assert.Equal(t, []string{id}, env.members(t, "households:index:address:12 rizal st "))
	assert.Empty(t, env.members(t, "households:index:tag:senior"))
	assert.Equal(t, []string{id}, env.members(t, "households:index:tag:pwd"))
	assert.Equal(t, []string{id}, env.members(t, "households:index:tag:solo parent"))

	stored, err := env.households.GetHouseholdByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestUpdateMissingHousehold(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.households.UpdateHousehold(context.Background(), "hh:missing", models.HouseholdPatch{Notes: strPtr("x")})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, code.ErrHouseholdNotFound, apperr.CodeOf(err))
	assert.Empty(t, env.mr.Keys())
}

func TestUpdateHouseholdRejectsBlankAddress(t *testing.T) {
	env := newTestEnv(t)
	id := env.createHousehold(t, models.Household{AddressLine1: "5 Luna St"})

	_, err := env.households.UpdateHousehold(context.Background(), id, models.HouseholdPatch{AddressLine1: strPtr("")})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := env.households.GetHouseholdByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "5 Luna St", got.AddressLine1)
}

func TestDeleteHouseholdBlockedByResidents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hid := env.createHousehold(t, models.Household{CategoryTags: []string{"senior"}})
	r1 := env.createResident(t, models.Resident{HouseholdID: hid})
	r2 := env.createResident(t, models.Resident{HouseholdID: hid, FirstName: "Maria"})

	ok, count, err := env.households.(*HouseholdService).Guard.CanDelete(ctx, hid)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 2, count)

	err = env.households.DeleteHousehold(ctx, hid)
	require.ErrorIs(t, err, apperr.ErrConflict)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.EqualValues(t, 2, appErr.Count)
	assert.Equal(t, code.ErrHouseholdHasResidents, appErr.Code)
	assert.False(t, appErr.Retryable)

	still, err := env.households.GetHouseholdByID(ctx, hid)
	require.NoError(t, err)
	assert.NotNil(t, still)

	require.NoError(t, env.residents.DeleteResident(ctx, r1))
	require.NoError(t, env.residents.DeleteResident(ctx, r2))
	require.NoError(t, env.households.DeleteHousehold(ctx, hid))

	assert.Empty(t, env.mr.Keys())
}

func TestDeleteMissingHousehold(t *testing.T) {
	env := newTestEnv(t)

	err := env.households.DeleteHousehold(context.Background(), "hh:missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteHouseholdConflictsWithConcurrentResident(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hid := env.createHousehold(t, models.Household{})

	racing := &interleavingClient{Client: env.store}
	racing.concurrent = func() {
		env.createResident(t, models.Resident{HouseholdID: hid})
	}
	svc := NewHouseholdService(racing, env.opts)

	err := svc.DeleteHousehold(ctx, hid)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.True(t, apperr.IsRetryable(err))

	got, err := env.households.GetHouseholdByID(ctx, hid)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, env.members(t, keys.ResidentsOfHousehold(hid)), 1)
}

func TestBlankTagsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.households.CreateHousehold(ctx, &models.Household{AddressLine1: "9 Luna St", CategoryTags: []string{"  ", "Senior"}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"categoryTags[0]"}, appErr.Fields)
	assert.Empty(t, env.mr.Keys())

	id := env.createHousehold(t, models.Household{CategoryTags: []string{"Senior", "4Ps"}})
	_, err = env.households.UpdateHousehold(ctx, id, models.HouseholdPatch{CategoryTags: &[]string{"4Ps", "\t"}})
	require.ErrorIs(t, err, apperr.ErrValidation)

	rid := env.createResident(t, models.Resident{CategoryTags: []string{"PWD"}})
	_, err = env.residents.UpdateResident(ctx, rid, models.ResidentPatch{CategoryTags: &[]string{" "}})
	require.ErrorIs(t, err, apperr.ErrValidation)

	// stored tags and tag index keys agree
	got, err := env.households.GetHouseholdByID(ctx, id)
	require.NoError(t, err)
	want := []string{}
	for _, tag := range got.CategoryTags {
		want = append(want, keys.HouseholdTag(tag))
	}
	assert.ElementsMatch(t, want, env.keysWithPrefix(keys.HouseholdTagPrefix))
	assert.Equal(t, []string{keys.ResidentTag("pwd")}, env.keysWithPrefix(keys.ResidentTagPrefix))
}

func TestGetAllHouseholdsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		env.createHousehold(t, models.Household{AddressLine1: fmt.Sprintf("%d Mabini St", i)})
	}

	seen := map[string]bool{}
	for page, want := range map[int]int{1: 10, 2: 10, 3: 3, 4: 0} {
		res, err := env.households.GetAllHouseholds(ctx, models.PaginationQuery{Page: page, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, res.Items, want, "page %d", page)
		assert.Equal(t, 23, res.Total)
		assert.Equal(t, 3, res.TotalPages)
		assert.Equal(t, page, res.Page)
		assert.Equal(t, 10, res.Limit)
		for _, h := range res.Items {
			assert.False(t, seen[h.ID], "household %s listed twice", h.ID)
			seen[h.ID] = true
		}
	}
	assert.Len(t, seen, 23)
}

func TestGetAllHouseholdsFarPageIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createHousehold(t, models.Household{})

	for _, q := range []models.PaginationQuery{
		{Page: math.MaxInt/4 + 2, Limit: 4},
		{Page: math.MaxInt, Limit: math.MaxInt},
		{Page: 2, Limit: math.MaxInt},
	} {
		res, err := env.households.GetAllHouseholds(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, res.Items, "page %d limit %d", q.Page, q.Limit)
		assert.Equal(t, 1, res.Total)
		assert.Equal(t, 1, res.TotalPages)
	}

	res, err := env.households.GetAllHouseholds(ctx, models.PaginationQuery{Page: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}

func TestGetAllHouseholdsDefaultsAndDanglingIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createHousehold(t, models.Household{})
	_, err := env.mr.SAdd(keys.HouseholdIDs, "hh:ghost")
	require.NoError(t, err)

	res, err := env.households.GetAllHouseholds(ctx, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 10, res.Limit)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestHouseholdTagIndexSymmetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createHousehold(t, models.Household{CategoryTags: []string{"Senior"}})
	b := env.createHousehold(t, models.Household{CategoryTags: []string{"senior", "4ps"}})
	env.createHousehold(t, models.Household{CategoryTags: []string{"4ps"}})

	got, err := env.households.GetHouseholdsByTag(ctx, "SENIOR")
	require.NoError(t, err)
	ids := []string{}
	for _, h := range got {
		ids = append(ids, h.ID)
	}
	assert.ElementsMatch(t, []string{a, b}, ids)

	require.NoError(t, env.households.DeleteHousehold(ctx, a))
	empty := []string{}
	_, err = env.households.UpdateHousehold(ctx, b, models.HouseholdPatch{CategoryTags: &empty})
	require.NoError(t, err)

	assert.Empty(t, env.keysWithPrefix(keys.HouseholdTag("senior")))
	got, err = env.households.GetHouseholdsByTag(ctx, "senior")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetHouseholdWithResidents(t *testing.T) {
	env := newTestEnv(t)
	hid := env.createHousehold(t, models.Household{})
	rid := env.createResident(t, models.Resident{HouseholdID: hid})
	env.createResident(t, models.Resident{FirstName: "Other"})

	got, err := env.households.GetHouseholdWithResidents(context.Background(), hid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, hid, got.ID)
	require.Len(t, got.Residents, 1)
	assert.Equal(t, rid, got.Residents[0].ID)
}
