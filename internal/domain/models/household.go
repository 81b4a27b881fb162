package models

// Household is a dwelling unit registered in the barangay
type Household struct {
	BaseModel
	AddressLine1  string   `json:"addressLine1" validate:"required"`
	AddressLine2  string   `json:"addressLine2"`
	Barangay      string   `json:"barangay"` // deployment constant, not caller-settable
	City          string   `json:"city"`
	Province      string   `json:"province"`
	ZipCode       string   `json:"zipCode"`
	MonthlyIncome float64  `json:"monthlyIncome" validate:"gte=0"`
	CategoryTags  []string `json:"categoryTags" validate:"dive,notblank"`
	Notes         string   `json:"notes"`
}

// HouseholdPatch is a partial update; nil fields are left unchanged
type HouseholdPatch struct {
	AddressLine1  *string   `json:"addressLine1,omitempty"`
	AddressLine2  *string   `json:"addressLine2,omitempty"`
	City          *string   `json:"city,omitempty"`
	Province      *string   `json:"province,omitempty"`
	ZipCode       *string   `json:"zipCode,omitempty"`
	MonthlyIncome *float64  `json:"monthlyIncome,omitempty"`
	CategoryTags  *[]string `json:"categoryTags,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
}

// Apply merges the patch into h
func (p HouseholdPatch) Apply(h *Household) {
	setString(&h.AddressLine1, p.AddressLine1)
	setString(&h.AddressLine2, p.AddressLine2)
	setString(&h.City, p.City)
	setString(&h.Province, p.Province)
	setString(&h.ZipCode, p.ZipCode)
	setString(&h.Notes, p.Notes)
	if p.MonthlyIncome != nil {
		h.MonthlyIncome = *p.MonthlyIncome
	}
	if p.CategoryTags != nil {
		h.CategoryTags = append([]string(nil), (*p.CategoryTags)...)
	}
}

// HouseholdWithResidents is a household joined with its resolved members
type HouseholdWithResidents struct {
	Household
	Residents []Resident `json:"residents"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
