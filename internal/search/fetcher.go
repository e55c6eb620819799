package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
)

// ErrStorage is returned for every storage failure. Callers must not rely on
// the wrapped detail for anything but logging.
var ErrStorage = errors.New("recipe storage failure")

// Page answers exactly one FilterRequest.
type Page struct {
	Mode Mode `json:"mode"`
	// Recipe is set in single mode when the id exists.
	Recipe *model.Recipe `json:"recipe,omitempty"`
	// Recipes holds keyset and random results. Never nil outside single mode.
	Recipes []model.RecipeSummary `json:"recipes"`
	Limit   int                   `json:"limit"`
}

// NextAfterID returns the cursor for the following page. Only a full keyset
// page has one; a short page means the end of results was reached.
func (p *Page) NextAfterID() (uint, bool) {
	if p.Mode != ModeKeyset || p.Limit == 0 || len(p.Recipes) != p.Limit {
		return 0, false
	}
	return p.Recipes[len(p.Recipes)-1].ID, true
}

// Shuffler permutes n elements through swap. rand.Shuffle satisfies it.
type Shuffler func(n int, swap func(i, j int))

// Fetcher executes query plans against the recipes table.
type Fetcher struct {
	db      *gorm.DB
	shuffle Shuffler
}

// NewFetcher creates a Fetcher over db using the global random source for
// sampling.
func NewFetcher(db *gorm.DB) *Fetcher {
	return &Fetcher{db: db, shuffle: rand.Shuffle}
}

// WithShuffler returns a copy of f sampling with shuffle.
func (f *Fetcher) WithShuffler(shuffle Shuffler) *Fetcher {
	return &Fetcher{db: f.db, shuffle: shuffle}
}

// Fetch executes plan on a single pooled connection, released on return.
func (f *Fetcher) Fetch(ctx context.Context, plan QueryPlan) (*Page, error) {
	page := &Page{Mode: plan.Mode, Limit: plan.Limit}

	err := f.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		// Each query below starts from a clean statement bound to tx's connection.
		conn := tx.Session(&gorm.Session{NewDB: true})
		switch plan.Mode {
		case ModeSingle:
			return fetchSingle(conn, plan, page)
		case ModeRandom:
			return f.fetchRandom(conn, plan, page)
		default:
			return fetchKeyset(conn, plan, page)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s query: %v", ErrStorage, plan.Mode, err)
	}
	return page, nil
}

func fetchSingle(conn *gorm.DB, plan QueryPlan, page *Page) error {
	where, args := plan.Where()
	var rows []model.Recipe
	if err := conn.Where(where, args...).Limit(1).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 1 {
		page.Recipe = &rows[0]
	}
	return nil
}

func fetchKeyset(conn *gorm.DB, plan QueryPlan, page *Page) error {
	query := conn.Model(&model.Recipe{}).Select(model.SummaryColumns)
	if where, args := plan.Where(); where != "" {
		query = query.Where(where, args...)
	}
	if plan.OrderByID {
		query = query.Order("id ASC")
	}
	if plan.Limit > 0 {
		query = query.Limit(plan.Limit)
	}

	rows := []model.RecipeSummary{}
	if err := query.Find(&rows).Error; err != nil {
		return err
	}
	page.Recipes = rows
	return nil
}

// fetchRandom loads every id in ascending order, shuffles them and fetches
// the first Limit rows. Memory grows with the table size.
func (f *Fetcher) fetchRandom(conn *gorm.DB, plan QueryPlan, page *Page) error {
	var ids []uint
	if err := conn.Model(&model.Recipe{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return err
	}

	page.Recipes = []model.RecipeSummary{}
	if len(ids) == 0 {
		return nil
	}

	f.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if plan.Limit > 0 && len(ids) > plan.Limit {
		ids = ids[:plan.Limit]
	}

	var rows []model.RecipeSummary
	if err := conn.Model(&model.Recipe{}).Select(model.SummaryColumns).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}

	byID := make(map[uint]model.RecipeSummary, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			page.Recipes = append(page.Recipes, r)
		}
	}
	return nil
}
