package cache

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
)

func TestKey_Stable(t *testing.T) {
	f := search.FilterRequest{TitleTerm: "soup", IngredientTerms: []string{"leek"}}
	a := Key(search.Build(f, 50))
	b := Key(search.Build(f, 50))

	assert.Equal(t, a, b)
	assert.Contains(t, a, keyPrefix)
}

func TestKey_Distinguishes(t *testing.T) {
	base := search.FilterRequest{TitleTerm: "soup"}
	keys := map[string]string{
		"base":      Key(search.Build(base, 50)),
		"cursor":    Key(search.Build(base.WithAfterID(10), 50)),
		"page size": Key(search.Build(base, 25)),
		"term":      Key(search.Build(search.FilterRequest{TitleTerm: "stew"}, 50)),
		"column":    Key(search.Build(search.FilterRequest{IngredientTerms: []string{"soup"}}, 50)),
		"single":    Key(search.Build(search.FilterRequest{ID: 10}, 50)),
		"site":      Key(search.Build(search.FilterRequest{SiteTerm: "10"}, 50)),
	}

	seen := map[string]string{}
	for name, key := range keys {
		if other, ok := seen[key]; ok {
			t.Fatalf("%s and %s share key %s", name, other, key)
		}
		seen[key] = name
	}
}

func TestKey_CaseFolded(t *testing.T) {
	assert.Equal(t,
		Key(search.Build(search.FilterRequest{TitleTerm: "Garlic"}, 50)),
		Key(search.Build(search.FilterRequest{TitleTerm: "garlic"}, 50)))
}

func TestCacheable(t *testing.T) {
	assert.False(t, Cacheable(search.Build(search.FilterRequest{}, 50)))
	assert.True(t, Cacheable(search.Build(search.FilterRequest{TitleTerm: "x"}, 50)))
	assert.True(t, Cacheable(search.Build(search.FilterRequest{ID: 3}, 50)))
}

func TestNoop(t *testing.T) {
	var c PageCache = Noop{}
	assert.NoError(t, c.Set(context.Background(), "k", &search.Page{}))

	page, ok, err := c.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, page)
}

func TestDecodePage_EmptyKeysetPage(t *testing.T) {
	raw, err := json.Marshal(&search.Page{Mode: search.ModeKeyset, Limit: 50, Recipes: []model.RecipeSummary{}})
	require.NoError(t, err)

	page, err := decodePage(raw)
	require.NoError(t, err)
	require.NotNil(t, page.Recipes)
	assert.Empty(t, page.Recipes)
}

func TestDecodePage_MissingRecipes(t *testing.T) {
	page, err := decodePage([]byte(`{"mode":1,"limit":50}`))
	require.NoError(t, err)
	assert.Equal(t, []model.RecipeSummary{}, page.Recipes)

	page, err = decodePage([]byte(`{"mode":0,"recipes":null,"limit":0}`))
	require.NoError(t, err)
	assert.Nil(t, page.Recipe)
	assert.Nil(t, page.Recipes)
}

func TestDecodePage_Invalid(t *testing.T) {
	_, err := decodePage([]byte("{"))
	assert.Error(t, err)
}
