// Package analytics turns a snapshot of receipts, lines, items and subgroups
// into business-day reports. Every function is a pure computation over its
// inputs; nothing here performs I/O.
package analytics

import (
	"go.uber.org/zap"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// Engine carries the logger used for data integrity warnings. It holds no
// other state and may be shared between goroutines.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

func (e *Engine) catalog(snapshot domain.Snapshot) *Catalog {
	return NewCatalog(snapshot.Items, snapshot.Subgroups, e.logger)
}

func (e *Engine) SubgroupLabels(items []domain.Item, subgroups []domain.Subgroup) []string {
	return NewCatalog(items, subgroups, e.logger).SubgroupLabels()
}
