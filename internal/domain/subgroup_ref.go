package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type SubgroupKind uint8

const (
	SubgroupEmpty SubgroupKind = iota
	SubgroupNumeric
	SubgroupText
)

// SubgroupRef is the item's subgroup column, which legacy data stores either
// as a numeric subgroup id or as a free-text label.
type SubgroupRef struct {
	Kind SubgroupKind
	ID   int
	Text string
}

func EmptySubgroup() SubgroupRef {
	return SubgroupRef{Kind: SubgroupEmpty}
}

func NumericSubgroup(id int) SubgroupRef {
	return SubgroupRef{Kind: SubgroupNumeric, ID: id, Text: strconv.Itoa(id)}
}

func TextSubgroup(text string) SubgroupRef {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return EmptySubgroup()
	}
	return SubgroupRef{Kind: SubgroupText, Text: trimmed}
}

// ParseSubgroupRef classifies a raw column value. Only plain ASCII digit runs
// are numeric; "12a", "-3" or "1.5" stay text.
func ParseSubgroupRef(raw string) SubgroupRef {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EmptySubgroup()
	}
	if isDigits(trimmed) {
		if id, err := strconv.Atoi(trimmed); err == nil {
			return SubgroupRef{Kind: SubgroupNumeric, ID: id, Text: trimmed}
		}
	}
	return SubgroupRef{Kind: SubgroupText, Text: trimmed}
}

func (r SubgroupRef) String() string {
	switch r.Kind {
	case SubgroupNumeric:
		if r.Text != "" {
			return r.Text
		}
		return strconv.Itoa(r.ID)
	case SubgroupText:
		return r.Text
	default:
		return ""
	}
}

func (r SubgroupRef) IsEmpty() bool {
	return r.Kind == SubgroupEmpty
}

// Scan implements sql.Scanner for the mixed-type subgroup column.
func (r *SubgroupRef) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = EmptySubgroup()
	case int64:
		*r = NumericSubgroup(int(v))
	case []byte:
		*r = ParseSubgroupRef(string(v))
	case string:
		*r = ParseSubgroupRef(v)
	default:
		return fmt.Errorf("subgroup ref: unsupported column type %T", src)
	}
	return nil
}

// Value stores the reference as text, or NULL when empty.
func (r SubgroupRef) Value() (driver.Value, error) {
	if r.IsEmpty() {
		return nil, nil
	}
	return r.String(), nil
}

func (r SubgroupRef) MarshalJSON() ([]byte, error) {
	if r.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

func (r *SubgroupRef) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*r = EmptySubgroup()
	case float64:
		*r = NumericSubgroup(int(v))
	case string:
		*r = ParseSubgroupRef(v)
	default:
		return fmt.Errorf("subgroup ref: unsupported json value %T", raw)
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
