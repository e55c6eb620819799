package importer

import (
	"regexp"
	"strings"
	"unicode"
)

var nerStopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a an the and or of in to for with on at
		g kg mg l ml cl dl oz lb ts tb c pt qt ga sm md lg pk cn ds pn dr sl bn
		chopped sliced minced optional diced large small medium
		beaten melted softened fresh dry whole ground`) {
		nerStopwords[w] = struct{}{}
	}
}

var (
	leadingQuantity = regexp.MustCompile(`^\s*[\d./\s-]+\s*\w*\s*`)
	parenthetical   = regexp.MustCompile(`\(.*\)`)
	wordRe          = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// ExtractNER derives shopping-list terms from ingredient lines: the leading
// quantity and unit are dropped, as is anything in parentheses or after the
// first comma or semicolon, and the remaining words are kept unless they are
// units, preparation words or numbers. Terms are lower-cased and unique, in
// first-seen order.
func ExtractNER(ingredients []string) []string {
	seen := map[string]struct{}{}
	terms := []string{}
	for _, line := range ingredients {
		line = leadingQuantity.ReplaceAllString(line, "")
		line = parenthetical.ReplaceAllString(line, "")
		if i := strings.IndexAny(line, ",;"); i >= 0 {
			line = line[:i]
		}
		for _, w := range wordRe.FindAllString(strings.ToLower(line), -1) {
			if _, stop := nerStopwords[w]; stop || isDigits(w) {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			terms = append(terms, w)
		}
	}
	return terms
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
