package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
)

func householdIDs(hs []models.Household) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.ID)
	}
	return out
}

func TestSearchCoverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	maria := env.createResident(t, models.Resident{FirstName: "Maria", LastName: "Santos", Occupation: "Farmer"})
	env.createResident(t, models.Resident{FirstName: "Pedro", LastName: "Reyes", Occupation: "Santos Trading"})
	tagged := env.createResident(t, models.Resident{FirstName: "Ana", LastName: "Cruz", CategoryTags: []string{"Santos Scholar"}})

	results, err := env.search.SearchResidents(ctx, "SANTOS")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{maria, tagged}, residentIDs(results))

	// occupation is never indexed
	results, err = env.search.SearchResidents(ctx, "farmer")
	require.NoError(t, err)
	assert.Empty(t, results)

	// matches inside the full name, across the first/last separator
	results, err = env.search.SearchResidents(ctx, "a san")
	require.NoError(t, err)
	assert.Equal(t, []string{maria}, residentIDs(results))
}

func TestSearchHouseholds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mainSt := env.createHousehold(t, models.Household{AddressLine1: "12 Main St", AddressLine2: "Purok 3"})
	tagged := env.createHousehold(t, models.Household{AddressLine1: "4 Luna Ave", CategoryTags: []string{"Mainland relocation"}})
	env.createHousehold(t, models.Household{AddressLine1: "7 Rizal St", Notes: "main road"})

	results, err := env.search.SearchHouseholds(ctx, "main")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mainSt, tagged}, householdIDs(results))

	results, err = env.search.SearchHouseholds(ctx, "st purok")
	require.NoError(t, err)
	assert.Equal(t, []string{mainSt}, householdIDs(results))

	// the barangay index is not searched
	results, err = env.search.SearchHouseholds(ctx, "kabacsanan")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTreatsGlobCharactersLiterally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	star := env.createHousehold(t, models.Household{AddressLine1: "Unit *5 Tower"})
	env.createHousehold(t, models.Household{AddressLine1: "Unit 15 Tower"})

	results, err := env.search.SearchHouseholds(ctx, "*5")
	require.NoError(t, err)
	assert.Equal(t, []string{star}, householdIDs(results))

	results, err = env.search.SearchHouseholds(ctx, "[1]")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCombined(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hid := env.createHousehold(t, models.Household{AddressLine1: "3 Bonifacio St"})
	rid := env.createResident(t, models.Resident{FirstName: "Andres", LastName: "Bonifacio", HouseholdID: hid})

	res, err := env.search.Search(ctx, "Bonifacio")
	require.NoError(t, err)
	assert.Equal(t, "Bonifacio", res.Query)
	assert.Equal(t, []string{rid}, residentIDs(res.Residents))
	assert.Equal(t, []string{hid}, householdIDs(res.Households))

	res, err = env.search.Search(ctx, "nothing matches this")
	require.NoError(t, err)
	assert.Empty(t, res.Residents)
	assert.Empty(t, res.Households)
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.search.Search(ctx, "   ")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = env.search.SearchHouseholds(ctx, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = env.search.SearchResidents(ctx, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearchSkipsDanglingIndexEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createResident(t, models.Resident{FirstName: "Lapu", LastName: "Lapu"})
	_, err := env.mr.SAdd("residents:index:name:lapu lapu", "res:ghost")
	require.NoError(t, err)

	results, err := env.search.SearchResidents(ctx, "lapu")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, residentIDs(results))
}
