package analytics

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// ResolveSubgroup maps an item's subgroup reference to a label: subgroup id
// match, then case and whitespace insensitive name match, then the raw stored
// text, then "Unknown".
func ResolveSubgroup(ref domain.SubgroupRef, byID map[int]string, byName map[string]string) string {
	switch ref.Kind {
	case domain.SubgroupNumeric:
		if name, ok := byID[ref.ID]; ok {
			return name
		}
		if name, ok := byName[normalizeName(ref.Text)]; ok {
			return name
		}
		if text := strings.TrimSpace(ref.Text); text != "" {
			return text
		}
	case domain.SubgroupText:
		if name, ok := byName[normalizeName(ref.Text)]; ok {
			return name
		}
		if text := strings.TrimSpace(ref.Text); text != "" {
			return text
		}
	}
	return domain.UnknownSubgroup
}

// normalizeName folds case and collapses whitespace. Casers are stateful, so
// each call gets its own.
func normalizeName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// Catalog resolves item labels and subgroups for one report pass. Results are
// memoised per item code. Not safe for concurrent use.
type Catalog struct {
	items  map[string]domain.Item
	byID   map[int]string
	byName map[string]string
	labels map[string]string
	groups map[string]string
	warned map[string]struct{}
	logger *zap.Logger
}

func NewCatalog(items []domain.Item, subgroups []domain.Subgroup, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		items:  make(map[string]domain.Item, len(items)),
		byID:   make(map[int]string, len(subgroups)),
		byName: make(map[string]string, len(subgroups)),
		labels: make(map[string]string),
		groups: make(map[string]string),
		warned: make(map[string]struct{}),
		logger: logger,
	}
	for _, item := range items {
		c.items[item.Code] = item
	}
	for _, sg := range subgroups {
		name := strings.TrimSpace(sg.Name)
		if name == "" {
			continue
		}
		if _, exists := c.byID[sg.ID]; !exists {
			c.byID[sg.ID] = name
		}
		key := normalizeName(name)
		if _, exists := c.byName[key]; !exists {
			c.byName[key] = name
		}
	}
	return c
}

func (c *Catalog) Item(code string) (domain.Item, bool) {
	item, ok := c.items[code]
	return item, ok
}

// Label returns the item's display label. Codes missing from the item master
// fall back to the code itself and are logged once.
func (c *Catalog) Label(code string) string {
	if label, ok := c.labels[code]; ok {
		return label
	}
	label := code
	if item, ok := c.items[code]; ok {
		label = item.Label()
	} else {
		c.warnMissing(code)
	}
	c.labels[code] = label
	return label
}

func (c *Catalog) Subgroup(code string) string {
	if group, ok := c.groups[code]; ok {
		return group
	}
	group := domain.UnknownSubgroup
	if item, ok := c.items[code]; ok {
		group = ResolveSubgroup(item.Subgroup, c.byID, c.byName)
	} else {
		c.warnMissing(code)
	}
	c.groups[code] = group
	return group
}

// MatchesSubgroup compares a resolved label with a user supplied filter.
func MatchesSubgroup(label, filter string) bool {
	return normalizeName(label) == normalizeName(filter)
}

func (c *Catalog) warnMissing(code string) {
	if _, done := c.warned[code]; done {
		return
	}
	c.warned[code] = struct{}{}
	c.logger.Warn("receipt line references unknown item", zap.String("item_code", code))
}

// SubgroupLabels lists the distinct resolved subgroup labels of all catalog
// items, sorted. Unknown is included when any item fails to resolve.
func (c *Catalog) SubgroupLabels() []string {
	seen := make(map[string]struct{})
	labels := make([]string, 0, len(c.byID)+1)
	for code := range c.items {
		label := c.Subgroup(code)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
