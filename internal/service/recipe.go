package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/cache"
	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/metrics"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
)

// RecipeService answers recipe searches
type RecipeService struct {
	db       *gorm.DB
	fetcher  *search.Fetcher
	cache    cache.PageCache
	pageSize int
}

// NewRecipeService creates a new RecipeService instance. A nil pageCache
// disables caching; a non-positive pageSize uses search.DefaultPageSize.
func NewRecipeService(db *gorm.DB, pageCache cache.PageCache, pageSize int) *RecipeService {
	if pageCache == nil {
		pageCache = cache.Noop{}
	}
	if pageSize <= 0 {
		pageSize = search.DefaultPageSize
	}
	return &RecipeService{
		db:       db,
		fetcher:  search.NewFetcher(db),
		cache:    pageCache,
		pageSize: pageSize,
	}
}

// WithFetcher replaces the fetcher, for deterministic sampling in tests.
func (s *RecipeService) WithFetcher(f *search.Fetcher) *RecipeService {
	s.fetcher = f
	return s
}

// PageSize returns the row cap of multi-row pages.
func (s *RecipeService) PageSize() int {
	return s.pageSize
}

// Search builds the plan for f and returns its page, from cache when possible.
// Storage failures are returned wrapping search.ErrStorage.
func (s *RecipeService) Search(ctx context.Context, f search.FilterRequest) (*search.Page, error) {
	plan := search.Build(f, s.pageSize)
	mode := plan.Mode.String()
	log := logging.Ctx(ctx)

	var key string
	if cache.Cacheable(plan) {
		key = cache.Key(plan)
		page, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("mode", mode).Msg("page cache read failed")
		}
		if ok {
			metrics.RecordSearch(mode, pageRows(page))
			return page, nil
		}
	}

	page, err := s.fetcher.Fetch(ctx, plan)
	if err != nil {
		metrics.StorageErrors.WithLabelValues(mode).Inc()
		return nil, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, page); err != nil {
			log.Warn().Err(err).Str("mode", mode).Msg("page cache write failed")
		}
	}

	metrics.RecordSearch(mode, pageRows(page))
	log.Debug().Str("mode", mode).Int("rows", pageRows(page)).Msg("search served")
	return page, nil
}

// GetRecipe retrieves a recipe by ID. A missing recipe returns nil without
// error.
func (s *RecipeService) GetRecipe(ctx context.Context, id uint) (*model.Recipe, error) {
	if id == 0 {
		return nil, nil
	}
	page, err := s.Search(ctx, search.FilterRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return page.Recipe, nil
}

// ListSites returns the distinct non-empty source sites in ascending order
func (s *RecipeService) ListSites(ctx context.Context) ([]string, error) {
	sites := []string{}
	err := s.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("site <> ?", "").
		Distinct("site").
		Order("site ASC").
		Pluck("site", &sites).Error
	if err != nil {
		metrics.StorageErrors.WithLabelValues("sites").Inc()
		return nil, fmt.Errorf("%w: sites query: %v", search.ErrStorage, err)
	}
	return sites, nil
}

func pageRows(p *search.Page) int {
	if p.Mode == search.ModeSingle {
		if p.Recipe != nil {
			return 1
		}
		return 0
	}
	return len(p.Recipes)
}
