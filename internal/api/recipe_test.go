package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

func setupRecipeTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLite(t)
	router := gin.New()
	router.Use(middleware.Recovery())
	SetupAPI(router, db, service.NewRecipeService(db, nil, 0))
	return router, db
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []model.RecipeSummary {
	t.Helper()
	var out []model.RecipeSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func seedKitchen(t *testing.T, db *gorm.DB) []model.Recipe {
	return testhelpers.SeedRecipes(t, db,
		model.Recipe{
			Title:       "Garlic Butter Shrimp",
			Ingredients: model.StringList{"1 lb shrimp", "4 cloves garlic", "1 tsp salt"},
			Directions:  model.StepList{"Melt butter.", "Add shrimp."},
			NER:         model.StringList{"shrimp", "garlic", "salt"},
			Site:        "www.food.com",
		},
		model.Recipe{
			Title:       "Roasted garlic",
			Ingredients: model.StringList{"2 heads garlic", "olive oil"},
			Directions:  model.StepList{"Roast."},
			NER:         model.StringList{"garlic", "olive oil"},
			Site:        "www.allrecipes.com",
		},
		model.Recipe{
			Title:       "Salted Caramel",
			Ingredients: model.StringList{"1 cup sugar", "1 tsp salt"},
			Directions:  model.StepList{"Cook sugar."},
			NER:         model.StringList{"sugar", "salt"},
			Site:        "www.food.com",
		},
	)
}

func TestSearchRecipes_TitleCaseInsensitive(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seedKitchen(t, db)

	for _, term := range []string{"garlic", "Garlic", "GARLIC"} {
		w := get(t, router, "/api/v1/recipes?title="+term)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "50", w.Header().Get(middleware.HeaderPageSize))
		assert.Empty(t, w.Header().Get(middleware.HeaderNextAfterID))

		recipes := decodeList(t, w)
		require.Len(t, recipes, 2, "term %q", term)
		for _, r := range recipes {
			assert.Contains(t, strings.ToLower(r.Title), "garlic")
		}
	}
}

func TestSearchRecipes_IngredientConjunction(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seedKitchen(t, db)

	w := get(t, router, "/api/v1/recipes?ingredients=garlic,salt")
	require.Equal(t, http.StatusOK, w.Code)

	recipes := decodeList(t, w)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Garlic Butter Shrimp", recipes[0].Title)
}

func TestSearchRecipes_ShoppingListAndSite(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seedKitchen(t, db)

	w := get(t, router, "/api/v1/recipes?shopping_list=salt&site=www.food.com")
	recipes := decodeList(t, w)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Garlic Butter Shrimp", recipes[0].Title)
	assert.Equal(t, "Salted Caramel", recipes[1].Title)
}

func TestSearchRecipes_ListOmitsDirections(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seedKitchen(t, db)

	w := get(t, router, "/api/v1/recipes?title=caramel")
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	for _, key := range []string{"id", "title", "ingredients", "ner", "site"} {
		assert.Contains(t, raw[0], key)
	}
	assert.NotContains(t, raw[0], "directions")
}

func TestSearchRecipes_SingleHit(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seeded := seedKitchen(t, db)

	w := get(t, router, fmt.Sprintf("/api/v1/recipes?id=%d&title=ignored", seeded[1].ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(middleware.HeaderPageSize))

	var got model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, seeded[1], got)
}

func TestSearchRecipes_SingleMissIsNull(t *testing.T) {
	router, _ := setupRecipeTestRouter(t)

	w := get(t, router, "/api/v1/recipes?id=42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestSearchRecipes_EmptyResultIsEmptyArray(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seedKitchen(t, db)

	w := get(t, router, "/api/v1/recipes?title=nothing-matches")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

// encodingCache stores pages as JSON, the way the Redis page cache does.
type encodingCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *encodingCache) Get(_ context.Context, key string) (*search.Page, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	var page search.Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

func (c *encodingCache) Set(_ context.Context, key string, page *search.Page) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func TestSearchRecipes_CachedEmptyResultIsEmptyArray(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupSQLite(t)
	seedKitchen(t, db)

	router := gin.New()
	pageCache := &encodingCache{entries: map[string][]byte{}}
	SetupAPI(router, db, service.NewRecipeService(db, pageCache, 0))

	for i := 0; i < 2; i++ {
		w := get(t, router, "/api/v1/recipes?title=nothing-matches")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()), "request %d", i+1)
	}
	assert.Len(t, pageCache.entries, 1)
}

func TestSearchRecipes_LargeIDs(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	testhelpers.SeedNumbered(t, db, 3, "Soup", "", "water")

	w := get(t, router, "/api/v1/recipes?id=5000000000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))

	w = get(t, router, "/api/v1/recipes?title=soup&after_id=5000000000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = get(t, router, "/api/v1/recipes/5000000000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestSearchRecipes_EmptyListFilterIsBrowse(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	testhelpers.SeedNumbered(t, db, 70, "Dish", "", "salt")

	for _, path := range []string{"/api/v1/recipes", "/api/v1/recipes?ingredients=", "/api/v1/recipes?ingredients=,%20,"} {
		w := get(t, router, path)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeList(t, w), 50, path)
		assert.Empty(t, w.Header().Get(middleware.HeaderNextAfterID), path)
	}
}

func TestSearchRecipes_KeysetPagination(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	ids := testhelpers.SeedNumbered(t, db, 110, "Garlic Soup", "www.food.com", "garlic")

	var collected []uint
	path := "/api/v1/recipes?ingredients=garlic"
	for i := 0; ; i++ {
		require.Less(t, i, 10, "pagination did not terminate")
		w := get(t, router, path)
		require.Equal(t, http.StatusOK, w.Code)
		for _, r := range decodeList(t, w) {
			collected = append(collected, r.ID)
		}
		next := w.Header().Get(middleware.HeaderNextAfterID)
		if next == "" {
			break
		}
		assert.Equal(t, strconv.FormatUint(uint64(collected[len(collected)-1]), 10), next)
		path = "/api/v1/recipes?ingredients=garlic&after_id=" + next
	}

	assert.Equal(t, ids, collected)
}

func TestSearchRecipes_FirstPageIdempotent(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	testhelpers.SeedNumbered(t, db, 60, "Stew", "", "beef")

	a := get(t, router, "/api/v1/recipes?title=stew")
	b := get(t, router, "/api/v1/recipes?title=stew")
	assert.Equal(t, a.Body.String(), b.Body.String())
	assert.Equal(t, a.Header().Get(middleware.HeaderNextAfterID), b.Header().Get(middleware.HeaderNextAfterID))
}

func TestGetRecipe(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seeded := seedKitchen(t, db)

	w := get(t, router, fmt.Sprintf("/api/v1/recipes/%d", seeded[0].ID))
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, seeded[0], got)

	for _, path := range []string{"/api/v1/recipes/999", "/api/v1/recipes/abc", "/api/v1/recipes/0"} {
		w := get(t, router, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "null", strings.TrimSpace(w.Body.String()), path)
	}
}

func TestListSites(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	seedKitchen(t, db)

	w := get(t, router, "/api/v1/sites")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["www.allrecipes.com","www.food.com"]`, w.Body.String())
}

func TestHealth(t *testing.T) {
	router, db := setupRecipeTestRouter(t)

	w := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = get(t, router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type failingService struct{}

func (failingService) Search(context.Context, search.FilterRequest) (*search.Page, error) {
	return nil, fmt.Errorf("%w: keyset query: pq: relation \"recipes\" does not exist", search.ErrStorage)
}

func (failingService) GetRecipe(context.Context, uint) (*model.Recipe, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingService) ListSites(context.Context) ([]string, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingService) PageSize() int { return search.DefaultPageSize }

func TestStorageFailureReturnsGenericEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewRecipeHandler(failingService{}).RegisterRoutes(router.Group("/api/v1"))

	for _, path := range []string{"/api/v1/recipes?title=x", "/api/v1/recipes?id=1", "/api/v1/recipes", "/api/v1/recipes/1", "/api/v1/sites"} {
		w := get(t, router, path)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.JSONEq(t, `{"error":"An unexpected error occurred."}`, w.Body.String(), path)
		assert.NotContains(t, w.Body.String(), "pq:", path)
	}
}
