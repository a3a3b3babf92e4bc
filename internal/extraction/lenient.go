package extraction

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// notAvailable are the placeholders the service emits for values it could not find.
var notAvailable = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// NormalizeDocument coerces a decoded success body toward the schema in place.
// Money, percentage and quantity strings ("$2,000", "10%", "2") become numbers; numbers in
// text fields become strings; placeholder or unparseable numerics are dropped so the field
// decodes to zero. It returns the list of adjustments made.
func NormalizeDocument(doc any, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil
	}

	var changed []string
	for _, name := range collections {
		items, ok := root[name].([]any)
		if !ok {
			continue
		}
		for i, item := range items {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, f := range numericFields[name] {
				v, present := rec[f]
				if !present {
					continue
				}
				switch t := v.(type) {
				case float64:
				case string:
					if n, ok := parseNumeric(t); ok {
						rec[f] = n
						changed = append(changed, fmt.Sprintf("%s[%d].%s(number)", name, i, f))
					} else {
						delete(rec, f)
						changed = append(changed, fmt.Sprintf("%s[%d].%s(dropped)", name, i, f))
					}
				default:
					delete(rec, f)
					changed = append(changed, fmt.Sprintf("%s[%d].%s(type)", name, i, f))
				}
			}
			for _, f := range textFields[name] {
				v, present := rec[f]
				if !present {
					continue
				}
				switch t := v.(type) {
				case string:
					rec[f] = strings.TrimSpace(t)
				case float64:
					rec[f] = strconv.FormatFloat(t, 'f', -1, 64)
					changed = append(changed, fmt.Sprintf("%s[%d].%s(string)", name, i, f))
				case bool:
					rec[f] = strconv.FormatBool(t)
					changed = append(changed, fmt.Sprintf("%s[%d].%s(string)", name, i, f))
				default:
					delete(rec, f)
					changed = append(changed, fmt.Sprintf("%s[%d].%s(type)", name, i, f))
				}
			}
		}
	}
	if len(changed) > 0 {
		logger.Warn("extraction.response.normalized", "adjusted", len(changed), "fields", changed)
	}
	return changed
}

// parseNumeric accepts plain numbers with optional currency symbols, thousands
// separators, a trailing percent sign or surrounding whitespace.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if _, na := notAvailable[strings.ToLower(s)]; na {
		return 0, false
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', '₹', ',', ' ':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
