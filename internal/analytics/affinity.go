package analytics

import (
	"sort"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// minPairCount drops pairs seen on a single receipt.
const minPairCount = 2

type pairKey struct {
	a, b string
}

// AffinityPairs counts item pairs that share a receipt over the last
// windowDays business dates. Items are identified by display label and count
// once per receipt; a pair is only counted as (a, b) with a < b.
func (e *Engine) AffinityPairs(snapshot domain.Snapshot, cal bizday.Calendar, windowDays, topN int, filter LineFilter) []AffinityPair {
	windowDays = Clamp(windowDays, 1, 60)
	topN = Clamp(topN, 1, 50)

	ref, ok := LatestDate(snapshot.Receipts, cal)
	if !ok {
		return []AffinityPair{}
	}
	from, to := trailingWindow(ref, windowDays)
	catalog := e.catalog(snapshot)

	baskets := make(map[int64]map[string]struct{})
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, filter) {
		if !line.Date.Within(from, to) {
			continue
		}
		basket, ok := baskets[line.ReceiptID]
		if !ok {
			basket = make(map[string]struct{})
			baskets[line.ReceiptID] = basket
		}
		basket[catalog.Label(line.ItemCode)] = struct{}{}
	}

	singles := make(map[string]int)
	pairs := make(map[pairKey]int)
	for _, basket := range baskets {
		labels := make([]string, 0, len(basket))
		for label := range basket {
			labels = append(labels, label)
			singles[label]++
		}
		sort.Strings(labels)
		for i := 0; i < len(labels); i++ {
			for j := i + 1; j < len(labels); j++ {
				pairs[pairKey{a: labels[i], b: labels[j]}]++
			}
		}
	}

	total := len(baskets)
	out := make([]AffinityPair, 0)
	for key, co := range pairs {
		if co < minPairCount {
			continue
		}
		out = append(out, AffinityPair{
			ItemA:       key.a,
			ItemB:       key.b,
			CoCount:     co,
			CoveragePct: coverage(co, total),
			Lift:        lift(co, total, singles[key.a], singles[key.b]),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CoCount != out[j].CoCount {
			return out[i].CoCount > out[j].CoCount
		}
		if out[i].ItemA != out[j].ItemA {
			return out[i].ItemA < out[j].ItemA
		}
		return out[i].ItemB < out[j].ItemB
	})
	return truncate(out, topN)
}

func coverage(co, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(co) / float64(total)
}

// lift is nil when either single-item count is zero.
func lift(co, total, countA, countB int) *float64 {
	den := countA * countB
	if den == 0 {
		return nil
	}
	v := float64(co) * float64(total) / float64(den)
	return &v
}
