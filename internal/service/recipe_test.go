package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

type fakeCache struct {
	pages  map[string]*search.Page
	gets   int
	sets   int
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: map[string]*search.Page{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (*search.Page, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	p, ok := c.pages[key]
	return p, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, page *search.Page) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.pages[key] = page
	return nil
}

func TestRecipeService_SearchCachesKeysetPages(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.SeedNumbered(t, db, 3, "Soup", "www.food.com", "leek")
	fc := newFakeCache()
	svc := NewRecipeService(db, fc, 0)
	ctx := context.Background()

	f := search.FilterRequest{TitleTerm: "soup"}
	first, err := svc.Search(ctx, f)
	require.NoError(t, err)
	assert.Len(t, first.Recipes, 3)
	assert.Equal(t, 1, fc.sets)

	// Served from cache even after the rows are gone.
	require.NoError(t, db.Where("1 = 1").Delete(&model.Recipe{}).Error)
	second, err := svc.Search(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, fc.gets)
	assert.Equal(t, 1, fc.sets)
}

func TestRecipeService_RandomNeverCached(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.SeedNumbered(t, db, 60, "Dish", "", "salt")
	fc := newFakeCache()
	svc := NewRecipeService(db, fc, 0)

	page, err := svc.Search(context.Background(), search.FilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, search.ModeRandom, page.Mode)
	assert.Len(t, page.Recipes, 50)
	assert.Zero(t, fc.gets)
	assert.Zero(t, fc.sets)
}

func TestRecipeService_CacheFailureFallsBackToStorage(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.SeedNumbered(t, db, 2, "Pie", "", "apple")
	fc := newFakeCache()
	fc.getErr = errors.New("connection refused")
	fc.setErr = errors.New("connection refused")
	svc := NewRecipeService(db, fc, 0)

	page, err := svc.Search(context.Background(), search.FilterRequest{TitleTerm: "pie"})
	require.NoError(t, err)
	assert.Len(t, page.Recipes, 2)
}

func TestRecipeService_PageSize(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.SeedNumbered(t, db, 12, "Bread", "", "flour")
	svc := NewRecipeService(db, nil, 5)
	assert.Equal(t, 5, svc.PageSize())

	page, err := svc.Search(context.Background(), search.FilterRequest{TitleTerm: "bread"})
	require.NoError(t, err)
	assert.Len(t, page.Recipes, 5)
	next, ok := page.NextAfterID()
	assert.True(t, ok)
	assert.Equal(t, page.Recipes[4].ID, next)

	assert.Equal(t, search.DefaultPageSize, NewRecipeService(db, nil, 0).PageSize())
}

func TestRecipeService_GetRecipe(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	seeded := testhelpers.SeedRecipes(t, db, model.Recipe{
		Title:       "Lentil Soup",
		Ingredients: model.StringList{"1 cup lentils"},
		Directions:  model.StepList{"Simmer."},
		NER:         model.StringList{"lentils"},
		Site:        "www.allrecipes.com",
	})
	svc := NewRecipeService(db, nil, 0)
	ctx := context.Background()

	got, err := svc.GetRecipe(ctx, seeded[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, seeded[0], *got)

	got, err = svc.GetRecipe(ctx, seeded[0].ID+100)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.GetRecipe(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecipeService_StorageError(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	require.NoError(t, db.Migrator().DropTable(&model.Recipe{}))
	svc := NewRecipeService(db, newFakeCache(), 0)

	page, err := svc.Search(context.Background(), search.FilterRequest{TitleTerm: "x"})
	assert.ErrorIs(t, err, search.ErrStorage)
	assert.Nil(t, page)

	_, err = svc.ListSites(context.Background())
	assert.ErrorIs(t, err, search.ErrStorage)
}

func TestRecipeService_ListSites(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.SeedNumbered(t, db, 2, "A", "www.food.com", "x")
	testhelpers.SeedNumbered(t, db, 1, "B", "MasterMeal", "x")
	testhelpers.SeedNumbered(t, db, 1, "C", "", "x")
	testhelpers.SeedNumbered(t, db, 1, "D", "allrecipes.com", "x")
	svc := NewRecipeService(db, nil, 0)

	sites, err := svc.ListSites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MasterMeal", "allrecipes.com", "www.food.com"}, sites)
}

func TestRecipeService_ListSitesEmpty(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := NewRecipeService(db, nil, 0)

	sites, err := svc.ListSites(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sites)
	assert.Empty(t, sites)
}
