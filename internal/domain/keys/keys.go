// Package keys builds every key of the registry key space. The layout is
// shared with other deployments of the registry and must not change.
package keys

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Id prefixes
const (
	HouseholdIDPrefix = "hh:"
	ResidentIDPrefix  = "res:"
	UserIDPrefix      = "user:"
)

const (
	HouseholdIDs = "households:ids"
	ResidentIDs  = "residents:ids"
	UserIDs      = "users:ids"

	HouseholdAddressPrefix  = "households:index:address:"
	HouseholdBarangayPrefix = "households:index:barangay:"
	HouseholdTagPrefix      = "households:index:tag:"

	ResidentNamePrefix      = "residents:index:name:"
	ResidentAgePrefix       = "residents:index:age:"
	ResidentTagPrefix       = "residents:index:tag:"
	ResidentHouseholdPrefix = "residents:household:"

	UsernamePrefix = "users:index:username:"
	EmailPrefix    = "users:index:email:"
)

// NewHouseholdID returns hh:{uuid}
func NewHouseholdID() string { return HouseholdIDPrefix + uuid.NewString() }

// NewResidentID returns res:{uuid}
func NewResidentID() string { return ResidentIDPrefix + uuid.NewString() }

// NewUserID returns user:{uuid}
func NewUserID() string { return UserIDPrefix + uuid.NewString() }

func Household(id string) string { return "households:" + id }
func Resident(id string) string  { return "residents:" + id }
func User(id string) string      { return "users:" + id }

// HouseholdAddress keys the address index. The separator space is kept even
// when line 2 is empty.
func HouseholdAddress(line1, line2 string) string {
	return HouseholdAddressPrefix + strings.ToLower(line1+" "+line2)
}

func HouseholdBarangay(barangay string) string {
	return HouseholdBarangayPrefix + strings.ToLower(barangay)
}

func HouseholdTag(tag string) string {
	return HouseholdTagPrefix + strings.ToLower(tag)
}

func ResidentName(first, last string) string {
	return ResidentNamePrefix + strings.ToLower(first+" "+last)
}

func ResidentAge(age int) string {
	return ResidentAgePrefix + strconv.Itoa(age)
}

func ResidentTag(tag string) string {
	return ResidentTagPrefix + strings.ToLower(tag)
}

// ResidentsOfHousehold keys the household membership set
func ResidentsOfHousehold(householdID string) string {
	return ResidentHouseholdPrefix + householdID
}

// Username and Email key unique pointers; values are stored verbatim.
func Username(username string) string { return UsernamePrefix + username }
func Email(email string) string       { return EmailPrefix + email }
