package models

// HouseholdStats summarizes every stored household
type HouseholdStats struct {
	TotalHouseholds           int            `json:"totalHouseholds"`
	IncomeGroups              map[string]int `json:"incomeGroups"`
	HouseholdSizeDistribution map[string]int `json:"householdSizeDistribution"`
	AverageHouseholdSize      float64        `json:"averageHouseholdSize"`
	TotalResidents            int            `json:"totalResidents"`
	// EmptyHouseholds counts households with no resolvable residents; they fall in no size bucket
	EmptyHouseholds           int            `json:"emptyHouseholds"`
}

// ResidentStats summarizes every stored resident
type ResidentStats struct {
	Total                   int            `json:"total"`
	GenderDistribution      map[string]int `json:"genderDistribution"`
	AgeGroups               map[string]int `json:"ageGroups"`
	CivilStatusDistribution map[string]int `json:"civilStatusDistribution"`
	OccupationDistribution  map[string]int `json:"occupationDistribution"`
}

// SearchResult is the combined free-text search answer
type SearchResult struct {
	Query      string      `json:"query"`
	Residents  []Resident  `json:"residents"`
	Households []Household `json:"households"`
}
