package analytics

import (
	"reflect"
	"testing"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

func TestResolveSubgroupFallbackChain(t *testing.T) {
	byID := map[int]string{1: "Beverages"}
	byName := map[string]string{normalizeName("Bakery Goods"): "Bakery Goods"}

	cases := []struct {
		name string
		ref  domain.SubgroupRef
		want string
	}{
		{"numeric id", domain.NumericSubgroup(1), "Beverages"},
		{"folded name", domain.TextSubgroup("  bakery   GOODS "), "Bakery Goods"},
		{"raw text", domain.TextSubgroup("Tobacco"), "Tobacco"},
		{"unmatched id keeps its text", domain.NumericSubgroup(42), "42"},
		{"empty", domain.EmptySubgroup(), domain.UnknownSubgroup},
	}
	for _, tc := range cases {
		if got := ResolveSubgroup(tc.ref, byID, byName); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCatalogLabelsAndSubgroups(t *testing.T) {
	catalog := NewCatalog(
		[]domain.Item{
			{Code: "A", Title: " Cola ", Subgroup: domain.NumericSubgroup(1)},
			{Code: "B", Title: "", Subgroup: domain.TextSubgroup("beverages")},
			{Code: "C", Title: "Lighter", Subgroup: domain.EmptySubgroup()},
		},
		[]domain.Subgroup{{ID: 1, Name: "Beverages"}, {ID: 2, Name: "  "}},
		nil,
	)

	if got := catalog.Label("A"); got != "Cola" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
	if got := catalog.Label("B"); got != "B" {
		t.Fatalf("expected code for blank title, got %q", got)
	}
	if got := catalog.Label("ZZ"); got != "ZZ" {
		t.Fatalf("expected unknown code to fall back to itself, got %q", got)
	}
	if got := catalog.Subgroup("B"); got != "Beverages" {
		t.Fatalf("expected folded name match, got %q", got)
	}
	if got := catalog.Subgroup("ZZ"); got != domain.UnknownSubgroup {
		t.Fatalf("expected Unknown for missing item, got %q", got)
	}

	want := []string{"Beverages", domain.UnknownSubgroup}
	if got := catalog.SubgroupLabels(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected subgroup labels %v", got)
	}
}

func TestMatchesSubgroupIgnoresCaseAndSpacing(t *testing.T) {
	if !MatchesSubgroup("Soft  Drinks", " soft drinks") {
		t.Fatalf("expected folded match")
	}
	if MatchesSubgroup("Soft Drinks", "Drinks") {
		t.Fatalf("expected partial names not to match")
	}
}
