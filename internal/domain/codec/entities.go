package codec

import (
	"strconv"

	"barangay-registry/internal/domain/models"
)

// EncodeHousehold flattens h into its stored field map
func EncodeHousehold(h *models.Household) map[string]string {
	return map[string]string{
		"id":            h.ID,
		"addressLine1":  h.AddressLine1,
		"addressLine2":  h.AddressLine2,
		"barangay":      h.Barangay,
		"city":          h.City,
		"province":      h.Province,
		"zipCode":       h.ZipCode,
		"monthlyIncome": EncodeDecimal(h.MonthlyIncome),
		"categoryTags":  EncodeTags(h.CategoryTags),
		"notes":         h.Notes,
		"createdAt":     FormatTime(h.CreatedAt),
		"updatedAt":     FormatTime(h.UpdatedAt),
	}
}

// DecodeHousehold rebuilds a household; an empty map means absent and yields nil
func DecodeHousehold(m map[string]string) *models.Household {
	if len(m) == 0 {
		return nil
	}
	return &models.Household{
		BaseModel:     decodeBase(m),
		AddressLine1:  m["addressLine1"],
		AddressLine2:  m["addressLine2"],
		Barangay:      m["barangay"],
		City:          m["city"],
		Province:      m["province"],
		ZipCode:       m["zipCode"],
		MonthlyIncome: DecodeDecimal(m["monthlyIncome"]),
		CategoryTags:  DecodeTags(m["categoryTags"]),
		Notes:         m["notes"],
	}
}

// EncodeResident flattens r into its stored field map
func EncodeResident(r *models.Resident) map[string]string {
	m := map[string]string{
		"id":            r.ID,
		"firstName":     r.FirstName,
		"middleName":    r.MiddleName,
		"lastName":      r.LastName,
		"birthDate":     r.BirthDate,
		"gender":        r.Gender,
		"civilStatus":   r.CivilStatus,
		"occupation":    r.Occupation,
		"contactNumber": r.ContactNumber,
		"email":         r.Email,
		"imageUrl":      r.ImageURL,
		"householdId":   r.HouseholdID,
		"categoryTags":  EncodeTags(r.CategoryTags),
		"isHead":        EncodeBool(r.IsHead),
		"createdAt":     FormatTime(r.CreatedAt),
		"updatedAt":     FormatTime(r.UpdatedAt),
	}
	if r.IndexedAge != nil {
		m["indexedAge"] = strconv.Itoa(*r.IndexedAge)
	}
	return m
}

// DecodeResident rebuilds a resident; an empty map means absent and yields nil
func DecodeResident(m map[string]string) *models.Resident {
	if len(m) == 0 {
		return nil
	}
	r := &models.Resident{
		BaseModel:     decodeBase(m),
		FirstName:     m["firstName"],
		MiddleName:    m["middleName"],
		LastName:      m["lastName"],
		BirthDate:     m["birthDate"],
		Gender:        m["gender"],
		CivilStatus:   m["civilStatus"],
		Occupation:    m["occupation"],
		ContactNumber: m["contactNumber"],
		Email:         m["email"],
		ImageURL:      m["imageUrl"],
		HouseholdID:   m["householdId"],
		CategoryTags:  DecodeTags(m["categoryTags"]),
		IsHead:        DecodeBool(m["isHead"]),
	}
	if v, ok := m["indexedAge"]; ok {
		if age, err := strconv.Atoi(v); err == nil {
			r.IndexedAge = &age
		}
	}
	return r
}

// EncodeUser flattens u and its credentials into the stored field map
func EncodeUser(u *models.UserCredentials) map[string]string {
	lastLogin := ""
	if u.LastLogin != nil {
		lastLogin = FormatTime(*u.LastLogin)
	}
	return map[string]string{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"fullName":     u.FullName,
		"role":         u.Role,
		"passwordHash": u.PasswordHash,
		"passwordSalt": u.PasswordSalt,
		"lastLogin":    lastLogin,
		"createdAt":    FormatTime(u.CreatedAt),
		"updatedAt":    FormatTime(u.UpdatedAt),
	}
}

// DecodeUser rebuilds the credential-bearing record; an empty map yields nil
func DecodeUser(m map[string]string) *models.UserCredentials {
	if len(m) == 0 {
		return nil
	}
	u := &models.UserCredentials{
		User: models.User{
			BaseModel: decodeBase(m),
			Username:  m["username"],
			Email:     m["email"],
			FullName:  m["fullName"],
			Role:      m["role"],
		},
		PasswordHash: m["passwordHash"],
		PasswordSalt: m["passwordSalt"],
	}
	if v := m["lastLogin"]; v != "" {
		if t := ParseTime(v); !t.IsZero() {
			u.LastLogin = &t
		}
	}
	return u
}

func decodeBase(m map[string]string) models.BaseModel {
	return models.BaseModel{
		ID:        m["id"],
		CreatedAt: ParseTime(m["createdAt"]),
		UpdatedAt: ParseTime(m["updatedAt"]),
	}
}
