package services

import (
	"context"
	"time"

	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/infrastructure/kv"
)

// Income buckets of the household stats, by monthly income
const (
	IncomeBelow10k  = "Below 10k"
	Income10kTo20k  = "10k-20k"
	Income20kTo50k  = "20k-50k"
	Income50kTo100k = "50k-100k"
	IncomeAbove100k = "Above 100k"
)

// InterfaceStatsService defines the aggregate statistics service
type InterfaceStatsService interface {
	GetHouseholdStats(ctx context.Context) (*models.HouseholdStats, error)
	GetDemographicStats(ctx context.Context) (*models.ResidentStats, error)
}

// StatsService aggregates over every stored record. Ids whose record is gone are skipped.
type StatsService struct {
	Store kv.Client
	opts  Options
}

// NewStatsService creates a stats service
func NewStatsService(store kv.Client, opts Options) InterfaceStatsService {
	return &StatsService{Store: store, opts: opts.withDefaults()}
}

// 1 GetHouseholdStats buckets households by income and resident count
func (s *StatsService) GetHouseholdStats(ctx context.Context) (stats *models.HouseholdStats, err error) {
	start := time.Now()
	defer func() { observe(entityStats, "households", "", start, err) }()

	ids, err := sortedMembers(ctx, s.Store, keys.HouseholdIDs)
	if err != nil {
		return nil, apperr.FromStore(entityStats, "", err)
	}
	households, err := loadHouseholds(ctx, s.Store, ids)
	if err != nil {
		return nil, apperr.FromStore(entityStats, "", err)
	}
	sizes, err := s.householdSizes(ctx, households)
	if err != nil {
		return nil, apperr.FromStore(entityStats, "", err)
	}

	stats = &models.HouseholdStats{
		TotalHouseholds: len(households),
		IncomeGroups: map[string]int{
			IncomeBelow10k: 0, Income10kTo20k: 0, Income20kTo50k: 0, Income50kTo100k: 0, IncomeAbove100k: 0,
		},
		HouseholdSizeDistribution: map[string]int{"1": 0, "2-3": 0, "4-5": 0, "6+": 0},
	}
	for i, h := range households {
		stats.IncomeGroups[incomeGroup(h.MonthlyIncome)]++
		stats.TotalResidents += sizes[i]
		if sizes[i] == 0 {
			stats.EmptyHouseholds++
			continue
		}
		stats.HouseholdSizeDistribution[sizeGroup(sizes[i])]++
	}
	stats.AverageHouseholdSize = float64(stats.TotalResidents) / float64(max(1, stats.TotalHouseholds))
	return stats, nil
}

// 2 GetDemographicStats distributes residents by gender, age, civil status and occupation.
// Ages are computed at call time, not read from the age index.
func (s *StatsService) GetDemographicStats(ctx context.Context) (stats *models.ResidentStats, err error) {
	start := time.Now()
	defer func() { observe(entityStats, "residents", "", start, err) }()

	ids, err := sortedMembers(ctx, s.Store, keys.ResidentIDs)
	if err != nil {
		return nil, apperr.FromStore(entityStats, "", err)
	}
	residents, err := loadResidents(ctx, s.Store, ids)
	if err != nil {
		return nil, apperr.FromStore(entityStats, "", err)
	}

	now := s.opts.now()
	stats = &models.ResidentStats{
		Total:                   len(residents),
		GenderDistribution:      map[string]int{},
		AgeGroups:               map[string]int{"0-17": 0, "18-30": 0, "31-45": 0, "46-60": 0, "61+": 0},
		CivilStatusDistribution: map[string]int{},
		OccupationDistribution:  map[string]int{},
	}
	for _, r := range residents {
		stats.GenderDistribution[r.Gender]++
		if age, ok := models.AgeAt(r.BirthDate, now); ok {
			stats.AgeGroups[ageGroup(age)]++
		}
		stats.CivilStatusDistribution[r.CivilStatus]++
		if r.Occupation != "" {
			stats.OccupationDistribution[r.Occupation]++
		}
	}
	return stats, nil
}

// householdSizes counts the resolvable members of each household with one
// batched read of every member record
func (s *StatsService) householdSizes(ctx context.Context, households []models.Household) ([]int, error) {
	var (
		memberKeys []string
		owner      []int
	)
	for i, h := range households {
		members, err := s.Store.SMembers(ctx, keys.ResidentsOfHousehold(h.ID))
		if err != nil {
			return nil, err
		}
		for _, id := range members {
			memberKeys = append(memberKeys, keys.Resident(id))
			owner = append(owner, i)
		}
	}
	sizes := make([]int, len(households))
	if len(memberKeys) == 0 {
		return sizes, nil
	}
	records, err := s.Store.HGetAllMany(ctx, memberKeys)
	if err != nil {
		return nil, err
	}
	for j, m := range records {
		if len(m) > 0 {
			sizes[owner[j]]++
		}
	}
	return sizes, nil
}

func incomeGroup(income float64) string {
	switch {
	case income < 10000:
		return IncomeBelow10k
	case income < 20000:
		return Income10kTo20k
	case income < 50000:
		return Income20kTo50k
	case income < 100000:
		return Income50kTo100k
	default:
		return IncomeAbove100k
	}
}

func sizeGroup(n int) string {
	switch {
	case n <= 1:
		return "1"
	case n <= 3:
		return "2-3"
	case n <= 5:
		return "4-5"
	default:
		return "6+"
	}
}

func ageGroup(age int) string {
	switch {
	case age <= 17:
		return "0-17"
	case age <= 30:
		return "18-30"
	case age <= 45:
		return "31-45"
	case age <= 60:
		return "46-60"
	default:
		return "61+"
	}
}
