package services

import (
	"strings"
	"time"

	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/infrastructure/kv"
)

// InterfaceIndexService derives secondary index entries and queues their maintenance
type InterfaceIndexService interface {
	HouseholdIndexKeys(h *models.Household) []string
	ResidentIndexKeys(r *models.Resident) []string
	IndexHousehold(b *kv.Batch, h *models.Household)
	UnindexHousehold(b *kv.Batch, h *models.Household)
	ReindexHousehold(b *kv.Batch, before, after *models.Household)
	IndexResident(b *kv.Batch, r *models.Resident)
	UnindexResident(b *kv.Batch, r *models.Resident)
	ReindexResident(b *kv.Batch, before, after *models.Resident)
	IndexUser(b *kv.Batch, u *models.User)
	UnindexUser(b *kv.Batch, u *models.User)
	ReindexUser(b *kv.Batch, before, after *models.User)
}

// IndexService keeps every index entry symmetric with the record it points at.
// Set indexes hold record ids; user indexes are unique string pointers.
type IndexService struct {
	now func() time.Time
}

// NewIndexService creates an index service
func NewIndexService(opts Options) InterfaceIndexService {
	opts = opts.withDefaults()
	return &IndexService{now: opts.Now}
}

// 1 HouseholdIndexKeys lists the sets a household belongs to
func (s *IndexService) HouseholdIndexKeys(h *models.Household) []string {
	out := []string{
		keys.HouseholdAddress(h.AddressLine1, h.AddressLine2),
		keys.HouseholdBarangay(h.Barangay),
	}
	for _, tag := range normalizedTags(h.CategoryTags) {
		out = append(out, keys.HouseholdTag(tag))
	}
	return out
}

// 2 ResidentIndexKeys lists the sets a resident belongs to
func (s *IndexService) ResidentIndexKeys(r *models.Resident) []string {
	out := []string{keys.ResidentName(r.FirstName, r.LastName)}
	if age, ok := s.indexedAge(r); ok {
		out = append(out, keys.ResidentAge(age))
	}
	if r.HouseholdID != "" {
		out = append(out, keys.ResidentsOfHousehold(r.HouseholdID))
	}
	for _, tag := range normalizedTags(r.CategoryTags) {
		out = append(out, keys.ResidentTag(tag))
	}
	return out
}

// 3 IndexHousehold queues the entries of a new household
func (s *IndexService) IndexHousehold(b *kv.Batch, h *models.Household) {
	for _, k := range s.HouseholdIndexKeys(h) {
		b.SAdd(k, h.ID)
	}
}

// 4 UnindexHousehold queues removal of every entry of h
func (s *IndexService) UnindexHousehold(b *kv.Batch, h *models.Household) {
	for _, k := range s.HouseholdIndexKeys(h) {
		b.SRem(k, h.ID)
	}
}

// 5 ReindexHousehold retracts entries only before had and inserts entries only after has
func (s *IndexService) ReindexHousehold(b *kv.Batch, before, after *models.Household) {
	applyDelta(b, after.ID, s.HouseholdIndexKeys(before), s.HouseholdIndexKeys(after))
}

// 6 IndexResident queues the entries of a new resident
func (s *IndexService) IndexResident(b *kv.Batch, r *models.Resident) {
	for _, k := range s.ResidentIndexKeys(r) {
		b.SAdd(k, r.ID)
	}
}

// 7 UnindexResident queues removal of every entry of r
func (s *IndexService) UnindexResident(b *kv.Batch, r *models.Resident) {
	for _, k := range s.ResidentIndexKeys(r) {
		b.SRem(k, r.ID)
	}
}

// 8 ReindexResident moves name, age, household and tag entries as needed
func (s *IndexService) ReindexResident(b *kv.Batch, before, after *models.Resident) {
	applyDelta(b, after.ID, s.ResidentIndexKeys(before), s.ResidentIndexKeys(after))
}

// 9 IndexUser claims the username and email pointers
func (s *IndexService) IndexUser(b *kv.Batch, u *models.User) {
	b.Set(keys.Username(u.Username), u.ID)
	b.Set(keys.Email(u.Email), u.ID)
}

// 10 UnindexUser releases the username and email pointers
func (s *IndexService) UnindexUser(b *kv.Batch, u *models.User) {
	b.Del(keys.Username(u.Username), keys.Email(u.Email))
}

// 11 ReindexUser moves the pointers whose value changed
func (s *IndexService) ReindexUser(b *kv.Batch, before, after *models.User) {
	if before.Username != after.Username {
		b.Del(keys.Username(before.Username))
		b.Set(keys.Username(after.Username), after.ID)
	}
	if before.Email != after.Email {
		b.Del(keys.Email(before.Email))
		b.Set(keys.Email(after.Email), after.ID)
	}
}

// indexedAge is the age r is filed under. Records written before the age was
// stored were filed by calendar-year difference.
func (s *IndexService) indexedAge(r *models.Resident) (int, bool) {
	if r.IndexedAge != nil {
		return *r.IndexedAge, true
	}
	born, ok := models.ParseBirthDate(r.BirthDate)
	if !ok {
		return 0, false
	}
	return s.now().Year() - born.Year(), true
}

func applyDelta(b *kv.Batch, id string, before, after []string) {
	old := make(map[string]struct{}, len(before))
	for _, k := range before {
		old[k] = struct{}{}
	}
	next := make(map[string]struct{}, len(after))
	for _, k := range after {
		next[k] = struct{}{}
	}
	for _, k := range before {
		if _, keep := next[k]; !keep {
			b.SRem(k, id)
		}
	}
	for _, k := range after {
		if _, had := old[k]; !had {
			b.SAdd(k, id)
		}
	}
}

// normalizedTags lower-cases and de-duplicates tags, dropping blanks
func normalizedTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(t)
		if strings.TrimSpace(t) == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
