// Package cache stores rendered search pages so repeated filtered searches
// skip the database. The recipe table is read-only from the HTTP surface,
// so entries only expire by TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
)

// PageCache stores search pages by key. A miss returns (nil, false, nil).
type PageCache interface {
	Get(ctx context.Context, key string) (*search.Page, bool, error)
	Set(ctx context.Context, key string, page *search.Page) error
}

const keyPrefix = "recipebox:page:"

// Key derives a stable cache key from a query plan. Plans with equal mode,
// predicates, bind values and limit share a key.
func Key(plan search.QueryPlan) string {
	where, args := plan.Where()

	var b strings.Builder
	b.WriteString(plan.Mode.String())
	b.WriteByte('|')
	b.WriteString(where)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(plan.Limit))
	for _, arg := range args {
		b.WriteByte('|')
		fmt.Fprintf(&b, "%T:%v", arg, arg)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// decodePage restores a stored page. Multi-row pages always carry a non-nil
// Recipes slice so handlers render an empty page as [].
func decodePage(raw []byte) (*search.Page, error) {
	var page search.Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	if page.Mode != search.ModeSingle && page.Recipes == nil {
		page.Recipes = []model.RecipeSummary{}
	}
	return &page, nil
}

// Cacheable reports whether pages of plan may be cached. Random samples are
// never cached; single lookups and keyset pages are.
func Cacheable(plan search.QueryPlan) bool {
	return plan.Mode != search.ModeRandom
}

// Noop is a PageCache that never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*search.Page, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, *search.Page) error { return nil }
