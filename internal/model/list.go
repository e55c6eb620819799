package model

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const (
	listDelimiter = ","
	stepDelimiter = ".,"
)

// StringList is an ordered list of strings stored as a JSON array in a text
// column. Scan also accepts the legacy bracketed encoding "[a,b,c]".
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	return encodeList(l)
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	items, err := scanList(value, listDelimiter)
	if err != nil {
		return err
	}
	*l = items
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// StepList holds recipe directions. It differs from StringList only in the
// legacy encoding, where steps are separated by ".," so that commas inside a
// sentence survive.
type StepList []string

// Value implements the driver.Valuer interface
func (l StepList) Value() (driver.Value, error) {
	return encodeList(l)
}

// Scan implements the sql.Scanner interface
func (l *StepList) Scan(value interface{}) error {
	items, err := scanList(value, stepDelimiter)
	if err != nil {
		return err
	}
	*l = items
	return nil
}

func (l StepList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func encodeList(items []string) (driver.Value, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	// HTML escaping would store "&" as \u0026 and break substring filters
	// against the stored text.
	b, err := json.MarshalNoEscape(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanList(value interface{}, delimiter string) ([]string, error) {
	var raw string
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return nil, fmt.Errorf("unsupported list value type %T", value)
	}
	return DecodeList(raw, delimiter), nil
}

// DecodeList decodes a stored list. JSON arrays are decoded as such; anything
// else is treated as the legacy bracketed encoding split on delimiter.
func DecodeList(raw, delimiter string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var items []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &items) == nil {
		if items == nil {
			items = []string{}
		}
		return items
	}
	return parseLegacyList(raw, delimiter)
}

func parseLegacyList(raw, delimiter string) []string {
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		raw = raw[1 : len(raw)-1]
	}
	// Meal-Master imports wrote one ingredient per line inside the brackets.
	raw = strings.ReplaceAll(raw, "\n", delimiter)

	items := []string{}
	for _, item := range strings.Split(raw, delimiter) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ConvertLegacyList rewrites a legacy bracketed list as a JSON array. The
// second return value is false when raw is already a JSON array.
func ConvertLegacyList(raw, delimiter string) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)
	var probe []string
	if strings.HasPrefix(trimmed, "[") && json.Unmarshal([]byte(trimmed), &probe) == nil {
		return raw, false, nil
	}
	v, err := encodeList(parseLegacyList(trimmed, delimiter))
	if err != nil {
		return "", false, err
	}
	return v.(string), true, nil
}

// ConvertLegacyIngredients converts a legacy ingredients or ner value.
func ConvertLegacyIngredients(raw string) (string, bool, error) {
	return ConvertLegacyList(raw, listDelimiter)
}

// ConvertLegacyDirections converts a legacy directions value.
func ConvertLegacyDirections(raw string) (string, bool, error) {
	return ConvertLegacyList(raw, stepDelimiter)
}
