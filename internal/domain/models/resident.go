package models

import (
	"time"
)

// Resident is a person living in the barangay
type Resident struct {
	BaseModel
	FirstName     string   `json:"firstName" validate:"required"`
	MiddleName    string   `json:"middleName"`
	LastName      string   `json:"lastName" validate:"required"`
	BirthDate     string   `json:"birthDate" validate:"required,birthdate"`
	Gender        string   `json:"gender" validate:"required"`
	CivilStatus   string   `json:"civilStatus" validate:"required"`
	Occupation    string   `json:"occupation"`
	ContactNumber string   `json:"contactNumber"`
	Email         string   `json:"email" validate:"omitempty,email"`
	ImageURL      string   `json:"imageUrl"`
	HouseholdID   string   `json:"householdId"`
	CategoryTags  []string `json:"categoryTags" validate:"dive,notblank"`
	IsHead        bool     `json:"isHead"` // informational, one head per household is not enforced

	// IndexedAge is the age the record is currently filed under in the age index
	IndexedAge *int `json:"-"`
}

// ResidentPatch is a partial update; nil fields are left unchanged.
// An empty HouseholdID detaches the resident from its household.
type ResidentPatch struct {
	FirstName     *string   `json:"firstName,omitempty"`
	MiddleName    *string   `json:"middleName,omitempty"`
	LastName      *string   `json:"lastName,omitempty"`
	BirthDate     *string   `json:"birthDate,omitempty"`
	Gender        *string   `json:"gender,omitempty"`
	CivilStatus   *string   `json:"civilStatus,omitempty"`
	Occupation    *string   `json:"occupation,omitempty"`
	ContactNumber *string   `json:"contactNumber,omitempty"`
	Email         *string   `json:"email,omitempty"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	HouseholdID   *string   `json:"householdId,omitempty"`
	CategoryTags  *[]string `json:"categoryTags,omitempty"`
	IsHead        *bool     `json:"isHead,omitempty"`
}

// Apply merges the patch into r
func (p ResidentPatch) Apply(r *Resident) {
	setString(&r.FirstName, p.FirstName)
	setString(&r.MiddleName, p.MiddleName)
	setString(&r.LastName, p.LastName)
	setString(&r.BirthDate, p.BirthDate)
	setString(&r.Gender, p.Gender)
	setString(&r.CivilStatus, p.CivilStatus)
	setString(&r.Occupation, p.Occupation)
	setString(&r.ContactNumber, p.ContactNumber)
	setString(&r.Email, p.Email)
	setString(&r.ImageURL, p.ImageURL)
	setString(&r.HouseholdID, p.HouseholdID)
	if p.CategoryTags != nil {
		r.CategoryTags = append([]string(nil), (*p.CategoryTags)...)
	}
	if p.IsHead != nil {
		r.IsHead = *p.IsHead
	}
}

var birthDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// ParseBirthDate accepts a calendar date or a full timestamp
func ParseBirthDate(s string) (time.Time, bool) {
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeAt returns completed years between birthDate and now.
// Birth dates in the future yield 0.
func AgeAt(birthDate string, now time.Time) (int, bool) {
	born, ok := ParseBirthDate(birthDate)
	if !ok {
		return 0, false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}
