package importer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/metrics"
	"github.com/pageza/recipebox/backend/internal/model"
)

// Result summarizes one import run.
type Result struct {
	Files    int
	Imported int
	Skipped  int
	Recipes  int
}

// Importer writes parsed recipes to the database.
type Importer struct {
	db        *gorm.DB
	batchSize int
	dryRun    bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithBatchSize sets how many rows are inserted per statement.
func WithBatchSize(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithDryRun parses files without writing or moving anything.
func WithDryRun(dryRun bool) Option {
	return func(i *Importer) { i.dryRun = dryRun }
}

// New creates an Importer. db may be nil for dry runs.
func New(db *gorm.DB, opts ...Option) *Importer {
	i := &Importer{db: db, batchSize: 100}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports every file of src. Files that are not Meal-Master exports are
// skipped and left in place; storage and source errors abort the run.
func (i *Importer) Run(ctx context.Context, src Source) (Result, error) {
	var res Result
	if !i.dryRun && i.db == nil {
		return res, errors.New("importer: database required unless dry run")
	}

	names, err := src.List(ctx)
	if err != nil {
		return res, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Files++
		log := logging.Logger().With().Str("source", src.Kind()).Str("file", name).Logger()

		content, err := src.Read(ctx, name)
		if err != nil {
			return res, fmt.Errorf("failed to read %s: %w", name, err)
		}

		recipes, err := ParseMealMaster(content)
		if err != nil {
			log.Warn().Err(err).Msg("could not parse file")
			res.Skipped++
			continue
		}

		if i.dryRun {
			log.Info().Int("recipes", len(recipes)).Msg("parsed file (dry run)")
			res.Imported++
			res.Recipes += len(recipes)
			continue
		}

		if err := i.insert(ctx, recipes); err != nil {
			return res, fmt.Errorf("failed to store recipes from %s: %w", name, err)
		}
		if err := src.MarkParsed(ctx, name); err != nil {
			return res, fmt.Errorf("failed to archive %s: %w", name, err)
		}

		metrics.ImportedRecipes.WithLabelValues(src.Kind()).Add(float64(len(recipes)))
		log.Info().Int("recipes", len(recipes)).Msg("imported file")
		res.Imported++
		res.Recipes += len(recipes)
	}

	return res, nil
}

// insert writes the recipes of one file in a single transaction so a file
// is either fully imported or not at all.
func (i *Importer) insert(ctx context.Context, recipes []model.Recipe) error {
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&recipes, i.batchSize).Error
	})
}
