package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"slices"
	"time"
	"unicode"
)

// keysFor lists the accepted spellings of a canonical camelCase field in
// precedence order: canonical, legacy UPPER_SNAKE, legacy lower_snake.
func keysFor(canonical string) []string {
	var snake strings.Builder
	for i, r := range canonical {
		if unicode.IsUpper(r) && i > 0 {
			snake.WriteByte('_')
		}
		snake.WriteRune(unicode.ToLower(r))
	}
	lower := snake.String()
	upper := strings.ToUpper(lower)

	keys := []string{canonical}
	for _, k := range []string{upper, lower} {
		if k != canonical {
			keys = append(keys, k)
		}
	}
	return keys
}

// foldKey drops case and underscores so PascalCase, camelCase and snake
// spellings compare equal.
func foldKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", ""))
}

type record map[string]any

// candidates returns the known spellings of canonical followed by any other
// record key that folds to the same name, sorted so the choice is stable.
func (r record) candidates(canonical string) []string {
	keys := keysFor(canonical)
	want := foldKey(canonical)
	var extra []string
	for key := range r {
		if foldKey(key) == want && !slices.Contains(keys, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

func (r record) lookup(canonical string) (any, bool) {
	for _, key := range r.candidates(canonical) {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// str returns the first non-blank string spelling of the field.
func (r record) str(canonical string) string {
	for _, key := range r.candidates(canonical) {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		s := toString(v)
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (r record) boolean(canonical string) bool {
	v, ok := r.lookup(canonical)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	case float64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}

func (r record) integer(canonical string) int {
	v, ok := r.lookup(canonical)
	if !ok {
		return 0
	}
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		f, _ := val.Float64()
		return int(f)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(val))
		return i
	default:
		return 0
	}
}

func (r record) list(canonical string) []string {
	v, ok := r.lookup(canonical)
	if !ok {
		return nil
	}
	var out []string
	switch val := v.(type) {
	case []string:
		for _, s := range val {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// timestamp parses the field; ok is false when absent or unparsable.
func (r record) timestamp(canonical string) (time.Time, bool) {
	v, present := r.lookup(canonical)
	if !present {
		return time.Time{}, false
	}
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Truncate(time.Second), !val.IsZero()
	case string:
		return parseTime(val)
	default:
		return time.Time{}, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
