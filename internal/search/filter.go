package search

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names accepted by the recipes endpoint.
const (
	ParamID           = "id"
	ParamTitle        = "title"
	ParamIngredients  = "ingredients"
	ParamShoppingList = "shopping_list"
	ParamSite         = "site"
	ParamAfterID      = "after_id"
)

// FilterRequest is the typed form of one search request. Zero values mean
// "not provided".
type FilterRequest struct {
	ID              uint
	TitleTerm       string
	IngredientTerms []string
	ShoppingTerms   []string
	SiteTerm        string
	AfterID         uint
}

// Normalize turns raw request parameters into a FilterRequest. Malformed or
// empty values are treated as absent; it never fails.
func Normalize(params map[string]string) FilterRequest {
	return FilterRequest{
		ID:              parsePositive(params[ParamID]),
		TitleTerm:       strings.TrimSpace(params[ParamTitle]),
		IngredientTerms: splitTerms(params[ParamIngredients]),
		ShoppingTerms:   splitTerms(params[ParamShoppingList]),
		SiteTerm:        strings.TrimSpace(params[ParamSite]),
		AfterID:         parsePositive(params[ParamAfterID]),
	}
}

// FromValues normalizes URL query values, using the first value of each key.
func FromValues(values url.Values) FilterRequest {
	params := make(map[string]string, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return Normalize(params)
}

// HasFilters reports whether any content filter is set. The id lookup and the
// cursor are not content filters.
func (f FilterRequest) HasFilters() bool {
	return f.TitleTerm != "" ||
		len(f.IngredientTerms) > 0 ||
		len(f.ShoppingTerms) > 0 ||
		f.SiteTerm != ""
}

// IsBrowse reports whether f is a bare browse request, which is answered with
// a random sample instead of a paginated result.
func (f FilterRequest) IsBrowse() bool {
	return f.ID == 0 && f.AfterID == 0 && !f.HasFilters()
}

// WithAfterID returns a copy of f continuing after the given id.
func (f FilterRequest) WithAfterID(id uint) FilterRequest {
	f.AfterID = id
	f.IngredientTerms = append([]string(nil), f.IngredientTerms...)
	f.ShoppingTerms = append([]string(nil), f.ShoppingTerms...)
	return f
}

// Values encodes f as query parameters. Normalize(Values()) yields f again.
func (f FilterRequest) Values() url.Values {
	v := url.Values{}
	if f.ID > 0 {
		v.Set(ParamID, strconv.FormatUint(uint64(f.ID), 10))
	}
	if f.TitleTerm != "" {
		v.Set(ParamTitle, f.TitleTerm)
	}
	if len(f.IngredientTerms) > 0 {
		v.Set(ParamIngredients, strings.Join(f.IngredientTerms, ","))
	}
	if len(f.ShoppingTerms) > 0 {
		v.Set(ParamShoppingList, strings.Join(f.ShoppingTerms, ","))
	}
	if f.SiteTerm != "" {
		v.Set(ParamSite, f.SiteTerm)
	}
	if f.AfterID > 0 {
		v.Set(ParamAfterID, strconv.FormatUint(uint64(f.AfterID), 10))
	}
	return v
}

// parsePositive parses an id in the range of the BIGINT id column. Larger
// values are unparsable.
func parsePositive(raw string) uint {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return uint(n)
}

func splitTerms(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}
