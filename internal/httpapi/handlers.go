package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/analytics"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (a *API) handleKPIs(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	kpis, err := a.service.KPIs(r.Context(), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func (a *API) handleReceiptsByDay(w http.ResponseWriter, r *http.Request) {
	rows, err := a.service.ReceiptsByDay(r.Context(), intParam(r, "days", 14))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleHourly(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	var rows []analytics.HourCount
	if date.IsZero() {
		rows, err = a.service.HourlyLatestDay(r.Context())
	} else {
		rows, err = a.service.HourlyForDate(r.Context(), date)
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleHourlyProfile(w http.ResponseWriter, r *http.Request) {
	rows, err := a.service.HourlyProfile(r.Context(), intParam(r, "lookback", 30))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleDayOfWeek(w http.ResponseWriter, r *http.Request) {
	rows, err := a.service.DayOfWeekProfile(r.Context(), intParam(r, "lookback", 56))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleTopWindows(w http.ResponseWriter, r *http.Request) {
	clockHours, err := hoursParam(r, "hours")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	report, err := a.service.TopWindows(r.Context(), analytics.TopWindowsQuery{
		WindowHours:  intParam(r, "window", 3),
		LookbackDays: intParam(r, "lookback", 30),
		Top:          intParam(r, "top", 3),
		Quiet:        intParam(r, "quiet", 3),
		ClockHours:   clockHours,
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func hoursParam(r *http.Request, key string) ([]int, error) {
	parts := listParam(r, key)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		h, err := strconv.Atoi(part)
		if err != nil || h < 0 || h > 23 {
			return nil, badRequest("%s must be clock hours between 0 and 23", key)
		}
		out = append(out, h)
	}
	return out, nil
}

func (a *API) handleTopItems(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.TopItems(r.Context(), intParam(r, "days", 7), intParam(r, "limit", 10), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleSubgroupContribution(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.SubgroupContribution(r.Context(), intParam(r, "days", 30), intParam(r, "limit", 12), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleSubgroupItems(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	subgroup := chi.URLParam(r, "subgroup")
	rows, err := a.service.TopItemsInSubgroup(r.Context(), subgroup, intParam(r, "days", 30), intParam(r, "limit", 10), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subgroup": subgroup, "rows": rows})
}

func (a *API) handleSubgroupVelocity(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.SubgroupVelocity(r.Context(), intParam(r, "days", 28), intParam(r, "top", 10), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleItemsPerReceipt(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	bins, err := a.service.ItemsPerReceiptHistogram(r.Context(), intParam(r, "days", 30), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bins": bins})
}

func (a *API) handleReceiptAmounts(w http.ResponseWriter, r *http.Request) {
	bins, err := a.service.ReceiptAmountHistogram(r.Context(), intParam(r, "days", 30))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bins": bins})
}

func (a *API) handleAffinity(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	pairs, err := a.service.AffinityPairs(r.Context(), intParam(r, "days", 30), intParam(r, "top", 20), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": pairs})
}

func (a *API) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	summary, err := a.service.SalesSummary(r.Context(), date)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleSalesByHour(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.SalesByHour(r.Context(), date)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleSalesByHourCumulative(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.SalesByHourCumulative(r.Context(), date)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleSalesByHourLastWeeks(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	series, err := a.service.SalesByHourLastWeeks(r.Context(), date)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": series})
}

func (a *API) handleSalesByCategory(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.SalesByCategory(r.Context(), date, filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.TopProducts(r.Context(), date, intParam(r, "limit", 10), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleReceipts(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.Receipts(r.Context(), date)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleItemTrends(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start_date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	end, err := dateParam(r, "end_date")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	query := r.URL.Query()
	report, err := a.service.ItemTrends(r.Context(), analytics.ItemTrendsQuery{
		StartDate: start,
		EndDate:   end,
		Bucket:    analytics.BucketSize(query.Get("bucket")),
		TopN:      intParam(r, "top_n", 10),
		RankBy:    analytics.RankMetric(query.Get("rank_by")),
		Subgroup:  query.Get("subgroup"),
		ItemCodes: listParam(r, "item_codes"),
		Format:    query.Get("format"),
		Filter:    filter,
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleSubgroupLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := a.service.SubgroupLabels(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subgroups": labels})
}

func (a *API) handleAggregate(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if from.IsZero() || to.IsZero() {
		a.writeServiceError(w, r, badRequest("from and to are required"))
		return
	}
	dims, err := analytics.ParseDimensions(r.URL.Query().Get("dims"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	filter, err := filterParam(r)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	rows, err := a.service.Aggregate(r.Context(), from, to, dims, filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleDeadItems(w http.ResponseWriter, r *http.Request) {
	minQty := decimal.Zero
	if raw := strings.TrimSpace(r.URL.Query().Get("min_qty")); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			a.writeServiceError(w, r, badRequest("min_qty must be a number"))
			return
		}
		minQty = parsed
	}
	page, err := a.service.DeadItems(r.Context(), analytics.DeadItemsQuery{
		LookbackDays: intParam(r, "lookback_days", 90),
		DeadDays:     intParam(r, "dead_days", 30),
		MinQty:       minQty,
		MinReceipts:  intParam(r, "min_receipts", 1),
		Q:            r.URL.Query().Get("q"),
		Subgroup:     r.URL.Query().Get("subgroup"),
		Page:         intParam(r, "page", 1),
		PageSize:     intParam(r, "page_size", 50),
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func reorderQuery(r *http.Request) analytics.ReorderQuery {
	query := r.URL.Query()
	return analytics.ReorderQuery{
		LookbackDays: intParam(r, "lookback", 30),
		Q:            query.Get("q"),
		Subgroup:     query.Get("subgroup"),
		OnlyAction:   boolParam(r, "only_action"),
		SortBy:       query.Get("sort"),
		Desc:         !strings.EqualFold(strings.TrimSpace(query.Get("dir")), "asc"),
		Offset:       intParam(r, "offset", 0),
		Limit:        intParam(r, "limit", 50),
	}
}

func (a *API) handleReorderRadar(w http.ResponseWriter, r *http.Request) {
	page, err := a.service.ReorderRadar(r.Context(), reorderQuery(r))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleItemDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := a.service.ItemDetail(r.Context(), chi.URLParam(r, "code"), intParam(r, "days", 90))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type summarizeRequest struct {
	Widget string `json:"widget"`
	Data   any    `json:"data"`
}

func (a *API) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return
		}
		writeError(w, http.StatusBadRequest, errors.New("invalid json payload"))
		return
	}
	req.Widget = strings.TrimSpace(req.Widget)
	if req.Widget == "" {
		writeError(w, http.StatusBadRequest, errors.New("widget is required"))
		return
	}

	summary, err := a.service.Summarize(r.Context(), req.Widget, req.Data)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}
