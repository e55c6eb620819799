package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/model"
)

type rawListRow struct {
	ID          uint
	Ingredients string
	Directions  string
	NER         string `gorm:"column:ner"`
}

// ConvertLegacyLists rewrites list columns still stored in the bracketed
// legacy encoding as JSON arrays. Rows are walked in id order, batchSize at
// a time. It returns the number of rows updated and is safe to re-run.
func ConvertLegacyLists(ctx context.Context, db *gorm.DB, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	var (
		lastID  uint
		updated int
	)
	for {
		var rows []rawListRow
		err := db.WithContext(ctx).
			Table("recipes").
			Select("id", "ingredients", "directions", "ner").
			Where("id > ?", lastID).
			Order("id ASC").
			Limit(batchSize).
			Scan(&rows).Error
		if err != nil {
			return updated, fmt.Errorf("failed to read recipes after id %d: %w", lastID, err)
		}
		if len(rows) == 0 {
			return updated, nil
		}

		for _, row := range rows {
			changes, err := legacyChanges(row)
			if err != nil {
				return updated, fmt.Errorf("recipe %d: %w", row.ID, err)
			}
			if len(changes) == 0 {
				continue
			}
			if err := db.WithContext(ctx).Table("recipes").Where("id = ?", row.ID).Updates(changes).Error; err != nil {
				return updated, fmt.Errorf("failed to update recipe %d: %w", row.ID, err)
			}
			updated++
		}

		lastID = rows[len(rows)-1].ID
		logging.Debug().Uint("last_id", lastID).Int("updated", updated).Msg("converted legacy batch")
	}
}

func legacyChanges(row rawListRow) (map[string]any, error) {
	changes := map[string]any{}

	if v, changed, err := model.ConvertLegacyIngredients(row.Ingredients); err != nil {
		return nil, err
	} else if changed {
		changes["ingredients"] = v
	}
	if v, changed, err := model.ConvertLegacyDirections(row.Directions); err != nil {
		return nil, err
	} else if changed {
		changes["directions"] = v
	}
	if v, changed, err := model.ConvertLegacyIngredients(row.NER); err != nil {
		return nil, err
	} else if changed {
		changes["ner"] = v
	}
	return changes, nil
}
