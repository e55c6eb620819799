// Package importer loads Meal-Master (.mmf) recipe exports into the recipes
// table.
package importer

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/pageza/recipebox/backend/internal/model"
)

// MealMasterSite is the site value of every imported recipe.
const MealMasterSite = "MasterMeal"

// ErrNotMealMaster is returned for input holding no titled recipe block.
var ErrNotMealMaster = errors.New("not a Meal-Master file")

var (
	headerRe       = regexp.MustCompile(`(?i)(?:MMMMM|----------).*Meal-Master.*`)
	markerRe       = regexp.MustCompile(`^(MMMMM|-----)`)
	ingredientLine = regexp.MustCompile(`^(\s*(\d|-)|\s{4,})`)
)

var metaPrefixes = []string{"title:", "categories:", "servings:", "yield:"}

// Two-column ingredient layouts put the second column at this offset.
const (
	columnBreak     = 40
	twoColumnMinLen = 45
)

// ParseMealMaster parses every recipe in content. Latin-1 input is converted
// to UTF-8. Blocks without a title are skipped.
func ParseMealMaster(content []byte) ([]model.Recipe, error) {
	text, err := decodeText(content)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	headers := headerRe.FindAllStringIndex(text, -1)
	if len(headers) == 0 {
		return nil, ErrNotMealMaster
	}

	var recipes []model.Recipe
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		if r, ok := parseBlock(text[h[1]:end]); ok {
			recipes = append(recipes, r)
		}
	}
	if len(recipes) == 0 {
		return nil, ErrNotMealMaster
	}
	return recipes, nil
}

func decodeText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseBlock(body string) (model.Recipe, bool) {
	var (
		title  string
		lines  []string
		inMeta = true
	)
	for _, line := range strings.Split(body, "\n") {
		stripped := strings.TrimSpace(line)
		if markerRe.MatchString(stripped) {
			continue
		}
		lower := strings.ToLower(stripped)
		switch {
		case inMeta && hasMetaPrefix(lower):
			if strings.HasPrefix(lower, "title:") {
				title = strings.TrimSpace(stripped[len("title:"):])
			}
		case inMeta && stripped == "":
		default:
			inMeta = false
			lines = append(lines, line)
		}
	}
	if title == "" {
		return model.Recipe{}, false
	}

	split := ingredientSplit(lines)
	ingredients := ingredientLines(lines[:split])
	directions := nonEmptyTrimmed(lines[split:])

	return model.Recipe{
		Title:       title,
		Ingredients: ingredients,
		Directions:  model.StepList(directions),
		NER:         ExtractNER(ingredients),
		Site:        MealMasterSite,
	}, true
}

func hasMetaPrefix(lower string) bool {
	for _, p := range metaPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// ingredientSplit returns the index of the first direction line. Ingredient
// lines start with a digit or dash or are indented by four or more spaces;
// the first other non-blank line after the first line ends the block.
func ingredientSplit(lines []string) int {
	split := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if ingredientLine.MatchString(line) {
			split = i + 1
		} else if i > 0 {
			break
		}
	}
	return split
}

// ingredientLines flattens the ingredient block, reading a two-column
// layout column by column.
func ingredientLines(block []string) model.StringList {
	wide := 0
	for _, line := range block {
		if len(line) > twoColumnMinLen && strings.Contains(line[35:45], "  ") {
			wide++
		}
	}
	if len(block) == 0 || wide*2 <= len(block) {
		return model.StringList(nonEmptyTrimmed(block))
	}

	var left, right []string
	for _, line := range block {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cut := min(columnBreak, len(line))
		if c := strings.TrimSpace(line[:cut]); c != "" {
			left = append(left, c)
		}
		if c := strings.TrimSpace(line[cut:]); c != "" {
			right = append(right, c)
		}
	}
	return model.StringList(append(left, right...))
}

func nonEmptyTrimmed(lines []string) []string {
	out := []string{}
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
