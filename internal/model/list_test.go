package model

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListValue(t *testing.T) {
	v, err := StringList{"salt & pepper", "2 cloves garlic"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["salt & pepper","2 cloves garlic"]`, v)

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringListScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  StringList
	}{
		{"json bytes", []byte(`["flour","sugar"]`), StringList{"flour", "sugar"}},
		{"json string", `["flour"]`, StringList{"flour"}},
		{"nil", nil, StringList{}},
		{"empty", "", StringList{}},
		{"legacy brackets", "[1 c. flour, 2 eggs ,]", StringList{"1 c. flour", "2 eggs"}},
		{"legacy newlines", "[1 c. flour\n2 eggs]", StringList{"1 c. flour", "2 eggs"}},
		{"empty json array", "[]", StringList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, l.Scan(tt.value))
			assert.Equal(t, tt.want, l)
		})
	}
}

func TestStringListScanRejectsUnknownType(t *testing.T) {
	var l StringList
	assert.Error(t, l.Scan(42))
}

func TestStepListLegacyDelimiter(t *testing.T) {
	var l StepList
	require.NoError(t, l.Scan("[Preheat oven, then grease pan., Mix well., Bake.]"))
	assert.Equal(t, StepList{"Preheat oven, then grease pan", "Mix well", "Bake."}, l)
}

func TestListMarshalJSONNeverNull(t *testing.T) {
	b, err := json.Marshal(Recipe{ID: 1, Title: "Toast"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Toast","ingredients":[],"directions":[],"ner":[],"site":""}`, string(b))
}

func TestConvertLegacyList(t *testing.T) {
	out, changed, err := ConvertLegacyIngredients("[butter, eggs]")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `["butter","eggs"]`, out)

	out, changed, err = ConvertLegacyIngredients(`["butter"]`)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, `["butter"]`, out)

	out, changed, err = ConvertLegacyDirections("[Stir., Serve.]")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `["Stir","Serve."]`, out)
}

func TestRecipeSummary(t *testing.T) {
	r := Recipe{ID: 7, Title: "Soup", Ingredients: StringList{"water"}, Directions: StepList{"Boil."}, NER: StringList{"water"}, Site: "example.com"}
	s := r.Summary()
	assert.Equal(t, uint(7), s.ID)
	assert.Equal(t, "Soup", s.Title)
	assert.Equal(t, StringList{"water"}, s.NER)
	assert.Equal(t, "example.com", s.Site)
}
