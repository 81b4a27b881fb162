package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/infrastructure/kv"
)

// InterfaceSearchService defines free-text substring search over index keys
type InterfaceSearchService interface {
	SearchHouseholds(ctx context.Context, query string) ([]models.Household, error)
	SearchResidents(ctx context.Context, query string) ([]models.Resident, error)
	Search(ctx context.Context, query string) (*models.SearchResult, error)
}

// SearchService matches the lower-cased query against the text of index keys.
// Households match on address and tag, residents on full name and tag.
type SearchService struct {
	Store kv.Client
}

// NewSearchService creates a search service
func NewSearchService(store kv.Client) InterfaceSearchService {
	return &SearchService{Store: store}
}

// 1 SearchHouseholds returns households whose address or a tag contains query
func (s *SearchService) SearchHouseholds(ctx context.Context, query string) (out []models.Household, err error) {
	start := time.Now()
	defer func() { observe(entitySearch, "households", "", start, err) }()

	term, err := searchTerm(query)
	if err != nil {
		return nil, err
	}
	ids, err := s.matchIDs(ctx, term, keys.HouseholdAddressPrefix, keys.HouseholdTagPrefix)
	if err != nil {
		return nil, apperr.FromStore(entitySearch, "", err)
	}
	out, err = loadHouseholds(ctx, s.Store, ids)
	if err != nil {
		return nil, apperr.FromStore(entitySearch, "", err)
	}
	return out, nil
}

// 2 SearchResidents returns residents whose full name or a tag contains query
func (s *SearchService) SearchResidents(ctx context.Context, query string) (out []models.Resident, err error) {
	start := time.Now()
	defer func() { observe(entitySearch, "residents", "", start, err) }()

	term, err := searchTerm(query)
	if err != nil {
		return nil, err
	}
	ids, err := s.matchIDs(ctx, term, keys.ResidentNamePrefix, keys.ResidentTagPrefix)
	if err != nil {
		return nil, apperr.FromStore(entitySearch, "", err)
	}
	out, err = loadResidents(ctx, s.Store, ids)
	if err != nil {
		return nil, apperr.FromStore(entitySearch, "", err)
	}
	return out, nil
}

// 3 Search runs both searches concurrently
func (s *SearchService) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	if _, err := searchTerm(query); err != nil {
		return nil, err
	}
	res := &models.SearchResult{Query: query}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res.Residents, err = s.SearchResidents(gCtx, query)
		return err
	})
	g.Go(func() error {
		var err error
		res.Households, err = s.SearchHouseholds(gCtx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// matchIDs unions the members of every index key under prefixes whose text contains term
func (s *SearchService) matchIDs(ctx context.Context, term string, prefixes ...string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, prefix := range prefixes {
		indexKeys, err := s.Store.ScanKeys(ctx, prefix, term)
		if err != nil {
			return nil, err
		}
		for _, k := range indexKeys {
			members, err := s.Store.SMembers(ctx, k)
			if err != nil {
				return nil, err
			}
			for _, id := range members {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// searchTerm lower-cases the query; a blank query is rejected
func searchTerm(query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", apperr.Validation(entitySearch, []string{"q"}, "search query is required")
	}
	return strings.ToLower(query), nil
}
