package service

import (
	"context"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
)

// IRecipeService defines the interface for recipe read operations
type IRecipeService interface {
	Search(ctx context.Context, f search.FilterRequest) (*search.Page, error)
	GetRecipe(ctx context.Context, id uint) (*model.Recipe, error)
	ListSites(ctx context.Context) ([]string, error)
	PageSize() int
}
