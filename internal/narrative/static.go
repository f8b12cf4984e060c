package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const staticFieldLimit = 3

// StaticSummarizer describes a payload locally without calling a model. It is
// used when no API key is configured.
type StaticSummarizer struct{}

func (StaticSummarizer) Summarize(_ context.Context, widget string, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode summary payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("decode summary payload: %w", err)
	}

	switch v := generic.(type) {
	case nil:
		return widget + ": no data.", nil
	case []any:
		if len(v) == 0 {
			return widget + ": no data.", nil
		}
		if len(v) == 1 {
			return widget + ": 1 row.", nil
		}
		return fmt.Sprintf("%s: %d rows.", widget, len(v)), nil
	case map[string]any:
		fields := numericFields(v)
		if len(fields) == 0 {
			return fmt.Sprintf("%s: %d fields.", widget, len(v)), nil
		}
		return fmt.Sprintf("%s: %s.", widget, strings.Join(fields, ", ")), nil
	default:
		return fmt.Sprintf("%s: %v.", widget, v), nil
	}
}

func numericFields(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k, val := range obj {
		if _, ok := numericValue(val); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > staticFieldLimit {
		keys = keys[:staticFieldLimit]
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		n, _ := numericValue(obj[k])
		out = append(out, k+" "+strconv.FormatFloat(n, 'f', -1, 64))
	}
	return out
}

// numericValue accepts JSON numbers and decimal strings.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
