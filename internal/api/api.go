package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/service"
)

// SetupAPI registers the health check at the root and the recipe routes
// under /api/v1.
func SetupAPI(router *gin.Engine, db *gorm.DB, recipeService service.IRecipeService) {
	NewHealthHandler(db).RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	{
		recipeHandler := NewRecipeHandler(recipeService)
		recipeHandler.RegisterRoutes(v1)
	}
}
