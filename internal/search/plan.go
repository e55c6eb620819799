package search

import (
	"strings"
)

// DefaultPageSize is the row cap of keyset and random pages.
const DefaultPageSize = 50

// Mode selects how a plan is executed.
type Mode int

const (
	// ModeSingle looks up one recipe by id.
	ModeSingle Mode = iota
	// ModeKeyset returns a filtered page ordered by id after a cursor.
	ModeKeyset
	// ModeRandom returns a uniform random sample of the whole table.
	ModeRandom
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeKeyset:
		return "keyset"
	case ModeRandom:
		return "random"
	default:
		return "unknown"
	}
}

// Op is a predicate comparison operator.
type Op int

const (
	// OpEqual compares for equality; string values compare case-insensitively.
	OpEqual Op = iota
	// OpGreater is a strict greater-than, used for the keyset cursor.
	OpGreater
	// OpContains is a case-insensitive substring match.
	OpContains
)

// Predicate is one condition of a plan together with its bind value.
type Predicate struct {
	Column string
	Op     Op
	Value  any
}

// SQL renders the predicate with a single "?" placeholder.
func (p Predicate) SQL() string {
	switch p.Op {
	case OpContains:
		return "LOWER(" + p.Column + `) LIKE ? ESCAPE '\'`
	case OpGreater:
		return p.Column + " > ?"
	default:
		if _, ok := p.Value.(string); ok {
			return "LOWER(" + p.Column + ") = ?"
		}
		return p.Column + " = ?"
	}
}

// QueryPlan is the storage-independent description of one search.
type QueryPlan struct {
	Mode       Mode
	Predicates []Predicate
	// OrderByID is set when rows must be returned in ascending id order.
	OrderByID bool
	// Limit caps the number of rows; zero means no cap.
	Limit int
}

// Where renders the conjunction of all predicates and the bind values in
// placeholder order. It returns an empty clause when there are none.
func (p QueryPlan) Where() (string, []any) {
	if len(p.Predicates) == 0 {
		return "", nil
	}
	clauses := make([]string, len(p.Predicates))
	args := make([]any, len(p.Predicates))
	for i, pred := range p.Predicates {
		clauses[i] = pred.SQL()
		args[i] = pred.Value
	}
	return strings.Join(clauses, " AND "), args
}

// Build translates a filter request into a query plan. A non-positive
// pageSize falls back to DefaultPageSize.
func Build(f FilterRequest, pageSize int) QueryPlan {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if f.ID > 0 {
		return QueryPlan{
			Mode:       ModeSingle,
			Predicates: []Predicate{{Column: "id", Op: OpEqual, Value: f.ID}},
		}
	}

	if f.IsBrowse() {
		return QueryPlan{Mode: ModeRandom, Limit: pageSize}
	}

	var preds []Predicate
	if f.TitleTerm != "" {
		preds = append(preds, contains("title", f.TitleTerm))
	}
	for _, term := range f.IngredientTerms {
		preds = append(preds, contains("ingredients", term))
	}
	for _, term := range f.ShoppingTerms {
		preds = append(preds, contains("ner", term))
	}
	if f.SiteTerm != "" {
		preds = append(preds, Predicate{Column: "site", Op: OpEqual, Value: strings.ToLower(f.SiteTerm)})
	}
	if f.AfterID > 0 {
		preds = append(preds, Predicate{Column: "id", Op: OpGreater, Value: f.AfterID})
	}

	return QueryPlan{
		Mode:       ModeKeyset,
		Predicates: preds,
		OrderByID:  true,
		Limit:      pageSize,
	}
}

func contains(column, term string) Predicate {
	return Predicate{Column: column, Op: OpContains, Value: "%" + escapeLike(strings.ToLower(term)) + "%"}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
