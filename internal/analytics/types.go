package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
)

type AggregateBucket struct {
	BusinessDate *bizday.Date    `json:"business_date,omitempty"`
	BusinessHour *int            `json:"business_hour,omitempty"`
	ItemCode     string          `json:"item_code,omitempty"`
	Subgroup     string          `json:"subgroup,omitempty"`
	Count        int             `json:"count"`
	Quantity     decimal.Decimal `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
}

type HourlyProfileRow struct {
	BusinessHour  int     `json:"business_hour"`
	ClockHour     int     `json:"clock_hour"`
	AvgReceipts   float64 `json:"avg_receipts"`
	TotalReceipts int     `json:"total_receipts"`
	DaysObserved  int     `json:"days_observed"`
	AvgAmount     float64 `json:"avg_amount"`
}

type DayOfWeekRow struct {
	DowIndex     int     `json:"dow_index"`
	DowLabel     string  `json:"dow_label"`
	AvgReceipts  float64 `json:"avg_receipts"`
	DaysObserved int     `json:"days_observed"`
}

type DeltaRow struct {
	Key           string          `json:"key"`
	CurrentTotal  decimal.Decimal `json:"current_window_total"`
	PreviousTotal decimal.Decimal `json:"previous_window_total"`
	DeltaPct      *float64        `json:"delta_pct"`
}

type Window struct {
	StartBusinessHour int     `json:"start_business_hour"`
	StartClock        int     `json:"start_clock"`
	EndClock          int     `json:"end_clock"`
	AvgReceipts       float64 `json:"avg_receipts"`
	AvgAmount         float64 `json:"avg_amount"`
}

type WindowReport struct {
	Top   []Window `json:"top"`
	Quiet []Window `json:"quiet"`
}

type RankedItem struct {
	ItemCode string          `json:"item_code"`
	Item     string          `json:"item"`
	Value    decimal.Decimal `json:"value"`
}

type TrendPoint struct {
	BucketStart bizday.Date     `json:"bucket_start"`
	ItemCode    string          `json:"item_code"`
	Item        string          `json:"item"`
	Qty         decimal.Decimal `json:"qty"`
	Amount      decimal.Decimal `json:"amount"`
}

type WideRow struct {
	BucketStart bizday.Date                `json:"bucket_start"`
	Values      map[string]decimal.Decimal `json:"values"`
}

type ItemTrendsReport struct {
	StartDate bizday.Date   `json:"start_date"`
	EndDate   bizday.Date   `json:"end_date"`
	Bucket    BucketSize    `json:"bucket"`
	RankBy    RankMetric    `json:"rank_by"`
	Format    string        `json:"format"`
	Buckets   []bizday.Date `json:"buckets"`
	Items     []RankedItem  `json:"items"`
	Rows      []TrendPoint  `json:"rows"`
	Wide      []WideRow     `json:"wide"`
}

type ItemSales struct {
	ItemCode string          `json:"item_code"`
	Item     string          `json:"item"`
	Qty      decimal.Decimal `json:"qty"`
	Amount   decimal.Decimal `json:"amount"`
}

type SubgroupSales struct {
	Subgroup string          `json:"subgroup"`
	Qty      decimal.Decimal `json:"qty"`
	Amount   decimal.Decimal `json:"amount"`
}

type HistogramBin struct {
	Bin   string `json:"bin"`
	Count int    `json:"count"`
}

type AffinityPair struct {
	ItemA       string   `json:"item_a"`
	ItemB       string   `json:"item_b"`
	CoCount     int      `json:"co_occurrence_count"`
	CoveragePct float64  `json:"coverage_pct"`
	Lift        *float64 `json:"lift"`
}

type DeadItem struct {
	ItemCode          string          `json:"item_code"`
	Item              string          `json:"item"`
	Subgroup          string          `json:"subgroup"`
	LastSoldDate      bizday.Date     `json:"last_sold_business_date"`
	DaysSinceLastSale int             `json:"days_since_last_sale"`
	QtyActive         decimal.Decimal `json:"qty_in_active_window"`
	ReceiptsActive    int             `json:"receipts_in_active_window"`
}

type DeadItemsPage struct {
	ReferenceDate bizday.Date `json:"reference_date"`
	Total         int         `json:"total"`
	Page          int         `json:"page"`
	PageSize      int         `json:"page_size"`
	Rows          []DeadItem  `json:"rows"`
}

type ReorderRow struct {
	ItemCode          string          `json:"itm_code"`
	Item              string          `json:"itm_name"`
	Subgroup          string          `json:"subgroup_name"`
	Score             float64         `json:"score"`
	Qty7d             decimal.Decimal `json:"qty_7d"`
	Qty30d            decimal.Decimal `json:"qty_30d"`
	Qty90d            decimal.Decimal `json:"qty_90d"`
	AvgDaily30d       float64         `json:"avg_daily_30d"`
	TrendRatio        float64         `json:"trend_ratio"`
	DaysSold90d       int             `json:"days_sold_90d"`
	DaysSinceLastSale *int            `json:"days_since_last_sale"`
	LastSoldDate      bizday.Date     `json:"last_sold_bizdate"`
	Flags             []string        `json:"flags"`
}

type ReorderPage struct {
	ReferenceDate   bizday.Date  `json:"reference_date"`
	RecordsTotal    int          `json:"records_total"`
	RecordsFiltered int          `json:"records_filtered"`
	Rows            []ReorderRow `json:"rows"`
}

type KPIs struct {
	BusinessDate    bizday.Date     `json:"business_date"`
	TotalReceipts   int             `json:"total_receipts"`
	AvgReceiptValue decimal.Decimal `json:"avg_receipt_value"`
	ItemsPerReceipt float64         `json:"items_per_receipt"`
	UniqueItems     int             `json:"unique_items"`
}

type DaySummary struct {
	Date     bizday.Date     `json:"date"`
	Receipts int             `json:"receipts"`
	Amount   decimal.Decimal `json:"amount"`
}

type HourCount struct {
	BusinessHour int             `json:"business_hour"`
	ClockHour    int             `json:"clock_hour"`
	Receipts     int             `json:"receipts"`
	Amount       decimal.Decimal `json:"amount"`
}

type SalesSummary struct {
	Date              bizday.Date     `json:"date"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	Receipts          int             `json:"receipts"`
	AvgTicket         decimal.Decimal `json:"avg_ticket"`
	GrowthVsYesterday float64         `json:"growth_vs_yesterday"`
	GrowthVs4Week     float64         `json:"growth_vs_4week"`
	PeakHour          *string         `json:"peak_hour"`
}

type HourSales struct {
	BusinessHour int             `json:"hour"`
	ClockHour    int             `json:"clock_hour"`
	Sales        decimal.Decimal `json:"sales"`
}

type DatedSeries struct {
	Date   bizday.Date `json:"date"`
	Series []HourSales `json:"series"`
}

type ItemDetailSummary struct {
	Receipts int              `json:"receipts"`
	Units    decimal.Decimal  `json:"units"`
	Amount   decimal.Decimal  `json:"amount"`
	MinPrice *decimal.Decimal `json:"price_min"`
	AvgPrice *decimal.Decimal `json:"price_avg"`
	MaxPrice *decimal.Decimal `json:"price_max"`
}

type ItemDay struct {
	Date   bizday.Date     `json:"date"`
	Qty    decimal.Decimal `json:"qty"`
	Amount decimal.Decimal `json:"amount"`
}

type ItemReceipt struct {
	ReceiptID int64           `json:"receipt_id"`
	Timestamp string          `json:"timestamp"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type ItemDetail struct {
	ItemCode       string            `json:"item_code"`
	Title          string            `json:"title"`
	Subgroup       string            `json:"subgroup"`
	Found          bool              `json:"found"`
	Days           int               `json:"days"`
	LastPurchased  *string           `json:"last_purchased"`
	Summary        ItemDetailSummary `json:"summary"`
	Daily          []ItemDay         `json:"daily"`
	RecentReceipts []ItemReceipt     `json:"recent_receipts"`
}

type ReceiptRow struct {
	ID         int64           `json:"id"`
	Datetime   string          `json:"datetime"`
	ItemsCount int             `json:"items_count"`
	Total      decimal.Decimal `json:"total"`
}
