package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay-registry/internal/domain/models"
)

func TestStatsExample(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hid := env.createHousehold(t, models.Household{MonthlyIncome: 75000})
	env.createResident(t, models.Resident{HouseholdID: hid, BirthDate: "2015-01-01", Gender: "Female", CivilStatus: "Single"})
	env.createResident(t, models.Resident{HouseholdID: hid, BirthDate: "2000-01-01", Gender: "Male", CivilStatus: "Married", Occupation: "Driver"})
	env.createResident(t, models.Resident{HouseholdID: hid, BirthDate: "1955-01-01", Gender: "Female", CivilStatus: "Widowed"})

	hs, err := env.stats.GetHouseholdStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, hs.TotalHouseholds)
	assert.Equal(t, 3, hs.TotalResidents)
	assert.Equal(t, 3.0, hs.AverageHouseholdSize)
	assert.Equal(t, map[string]int{
		"Below 10k": 0, "10k-20k": 0, "20k-50k": 0, "50k-100k": 1, "Above 100k": 0,
	}, hs.IncomeGroups)
	assert.Equal(t, map[string]int{"1": 0, "2-3": 1, "4-5": 0, "6+": 0}, hs.HouseholdSizeDistribution)
	assert.Zero(t, hs.EmptyHouseholds)

	rs, err := env.stats.GetDemographicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Total)
	assert.Equal(t, map[string]int{"Female": 2, "Male": 1}, rs.GenderDistribution)
	assert.Equal(t, map[string]int{"0-17": 1, "18-30": 1, "31-45": 0, "46-60": 0, "61+": 1}, rs.AgeGroups)
	assert.Equal(t, map[string]int{"Single": 1, "Married": 1, "Widowed": 1}, rs.CivilStatusDistribution)
	assert.Equal(t, map[string]int{"Driver": 1}, rs.OccupationDistribution)
}

func TestHouseholdStatsBuckets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, income := range []float64{0, 9999.99, 10000, 49999, 100000} {
		env.createHousehold(t, models.Household{MonthlyIncome: income})
	}
	big := env.createHousehold(t, models.Household{MonthlyIncome: 20000})
	for i := 0; i < 6; i++ {
		env.createResident(t, models.Resident{HouseholdID: big})
	}
	single := env.createHousehold(t, models.Household{MonthlyIncome: 20000})
	env.createResident(t, models.Resident{HouseholdID: single})
	_, err := env.mr.SAdd("residents:household:"+single, "res:ghost")
	require.NoError(t, err)

	hs, err := env.stats.GetHouseholdStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, hs.TotalHouseholds)
	assert.Equal(t, 7, hs.TotalResidents)
	assert.InDelta(t, 1.0, hs.AverageHouseholdSize, 1e-9)
	assert.Equal(t, map[string]int{
		"Below 10k": 2, "10k-20k": 1, "20k-50k": 3, "50k-100k": 0, "Above 100k": 1,
	}, hs.IncomeGroups)
	assert.Equal(t, map[string]int{"1": 1, "2-3": 0, "4-5": 0, "6+": 1}, hs.HouseholdSizeDistribution)
	assert.Equal(t, 5, hs.EmptyHouseholds)
}

func TestStatsOnEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hs, err := env.stats.GetHouseholdStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, hs.TotalHouseholds)
	assert.Zero(t, hs.AverageHouseholdSize)
	assert.Equal(t, map[string]int{"1": 0, "2-3": 0, "4-5": 0, "6+": 0}, hs.HouseholdSizeDistribution)

	rs, err := env.stats.GetDemographicStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, rs.Total)
	assert.Empty(t, rs.GenderDistribution)
}
