package httpapi

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/analytics"
)

const reorderExportLimit = 5000

var reorderCSVHeader = []string{
	"itm_code", "itm_name", "subgroup_name", "score", "qty_7d", "qty_30d", "qty_90d",
	"avg_daily_30d", "trend_ratio", "days_sold_90d", "days_since_last_sale",
	"last_sold_bizdate", "flags",
}

// handleReorderExport streams the filtered reorder listing as a spreadsheet
// friendly CSV, ignoring paging.
func (a *API) handleReorderExport(w http.ResponseWriter, r *http.Request) {
	q := reorderQuery(r)
	q.Offset = 0
	q.Limit = reorderExportLimit
	page, err := a.service.ReorderRadar(r.Context(), q)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reorder_radar.csv"`)
	w.WriteHeader(http.StatusOK)

	// BOM so spreadsheet apps pick up UTF-8 item names
	_, _ = w.Write([]byte("\ufeff"))
	if err := writeReorderCSV(w, page.Rows); err != nil {
		a.logger.Warn("reorder export interrupted", zap.Error(err))
	}
}

func writeReorderCSV(w http.ResponseWriter, rows []analytics.ReorderRow) error {
	out := csv.NewWriter(w)
	if err := out.Write(reorderCSVHeader); err != nil {
		return err
	}
	for _, row := range rows {
		daysSince := ""
		if row.DaysSinceLastSale != nil {
			daysSince = strconv.Itoa(*row.DaysSinceLastSale)
		}
		record := []string{
			row.ItemCode,
			row.Item,
			row.Subgroup,
			strconv.FormatFloat(row.Score, 'f', 2, 64),
			row.Qty7d.String(),
			row.Qty30d.String(),
			row.Qty90d.String(),
			strconv.FormatFloat(row.AvgDaily30d, 'f', 3, 64),
			strconv.FormatFloat(row.TrendRatio, 'f', 3, 64),
			strconv.Itoa(row.DaysSold90d),
			daysSince,
			row.LastSoldDate.String(),
			strings.Join(row.Flags, ", "),
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
