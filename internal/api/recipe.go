package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
	"github.com/pageza/recipebox/backend/internal/service"
)

type RecipeHandler struct {
	recipeService service.IRecipeService
}

func NewRecipeHandler(recipeService service.IRecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.SearchRecipes)
		recipes.GET("/:id", h.GetRecipe)
	}
	router.GET("/sites", h.ListSites)
}

// SearchRecipes answers GET /recipes. With id set the body is the recipe
// object or null; otherwise it is an array of recipe summaries.
func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	filter := search.FromValues(c.Request.URL.Query())

	page, err := h.recipeService.Search(ctx, filter)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("query", c.Request.URL.RawQuery).Msg("recipe search failed")
		middleware.AbortWithError(c)
		return
	}

	if page.Mode == search.ModeSingle {
		c.JSON(http.StatusOK, page.Recipe)
		return
	}

	c.Header(middleware.HeaderPageSize, strconv.Itoa(page.Limit))
	if next, ok := page.NextAfterID(); ok {
		c.Header(middleware.HeaderNextAfterID, strconv.FormatUint(uint64(next), 10))
	}
	recipes := page.Recipes
	if recipes == nil {
		recipes = []model.RecipeSummary{}
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe answers GET /recipes/:id with the same body as ?id=. An id that
// is not a positive integer is a miss.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusOK, nil)
		return
	}

	recipe, err := h.recipeService.GetRecipe(ctx, uint(id))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("recipe_id", id).Msg("recipe lookup failed")
		middleware.AbortWithError(c)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) ListSites(c *gin.Context) {
	ctx := c.Request.Context()

	sites, err := h.recipeService.ListSites(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("site listing failed")
		middleware.AbortWithError(c)
		return
	}

	c.JSON(http.StatusOK, sites)
}
