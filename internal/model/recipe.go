package model

// Recipe is a persisted row of the recipes table. Rows are ingested by the
// importer and never updated through the HTTP surface.
type Recipe struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"type:text;not null" json:"title"`
	Ingredients StringList `gorm:"type:text;not null;default:'[]'" json:"ingredients"`
	Directions  StepList   `gorm:"type:text;not null;default:'[]'" json:"directions"`
	NER         StringList `gorm:"column:ner;type:text;not null;default:'[]'" json:"ner"`
	Site        string     `gorm:"type:varchar(255);index" json:"site"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeSummary is the reduced projection returned by list queries. It
// omits directions, which are only needed by the detail view.
type RecipeSummary struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Ingredients StringList `json:"ingredients"`
	NER         StringList `gorm:"column:ner" json:"ner"`
	Site        string     `json:"site"`
}

func (RecipeSummary) TableName() string {
	return "recipes"
}

// SummaryColumns lists the columns selected for a RecipeSummary.
var SummaryColumns = []string{"id", "title", "ingredients", "ner", "site"}

// Summary returns the reduced projection of r.
func (r Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		Ingredients: r.Ingredients,
		NER:         r.NER,
		Site:        r.Site,
	}
}
