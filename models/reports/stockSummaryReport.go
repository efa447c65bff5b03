package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/models"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
)

type StockSummaryReportResponse struct {
	ProductName  string `json:"productName,omitempty"`
	ProductSku   string `json:"productSku,omitempty"`
	OpeningStock int    `json:"openingStock"`
	QtyIn        int    `json:"qtyIn"`
	QtyOut       int    `json:"qtyOut"`
	ClosingStock int    `json:"closingStock"`
}

// GetStockSummaryReport rebuilds each product's movement totals for a window
// straight from the movement journal: opening balance before the window,
// in/out inside it, and the closing balance those imply.
func GetStockSummaryReport(ctx context.Context, fromDate models.MyDateString, toDate models.MyDateString, categoryId *int) ([]*StockSummaryReportResponse, error) {
	start := time.Now()
	defer logSlowReport(ctx, "stock_summary_report", start, map[string]any{
		"to_date": fmt.Sprintf("%v", time.Time(toDate).UTC()),
	})

	sqlT := `
WITH Ledger AS (
    SELECT
        sm.product_id,
        SUM(CASE WHEN sm.created_at < @fromDate THEN sm.delta ELSE 0 END) AS opening_stock,
        SUM(CASE WHEN sm.created_at BETWEEN @fromDate AND @toDate AND sm.delta > 0 THEN sm.delta ELSE 0 END) AS qty_in,
        SUM(CASE WHEN sm.created_at BETWEEN @fromDate AND @toDate AND sm.delta < 0 THEN ABS(sm.delta) ELSE 0 END) AS qty_out
    FROM stock_movements sm
    GROUP BY sm.product_id
)
SELECT
    p.name AS product_name,
    p.sku AS product_sku,
    COALESCE(l.opening_stock, 0) AS opening_stock,
    COALESCE(l.qty_in, 0) AS qty_in,
    COALESCE(l.qty_out, 0) AS qty_out,
    COALESCE(l.opening_stock, 0) + COALESCE(l.qty_in, 0) - COALESCE(l.qty_out, 0) AS closing_stock
FROM products p
LEFT JOIN Ledger l ON p.id = l.product_id
WHERE 1 = 1
{{- if .categoryId }} AND p.category_id = @categoryId {{- end }}
ORDER BY p.name;
`
	timezone := config.Timezone()
	if err := fromDate.StartOfDayUTCTime(timezone); err != nil {
		return nil, err
	}
	if err := toDate.EndOfDayUTCTime(timezone); err != nil {
		return nil, err
	}

	if categoryId != nil && *categoryId > 0 {
		if err := utils.ValidateResourceId[models.ProductCategory](ctx, *categoryId); err != nil {
			return nil, err
		}
	}

	var cacheKey string
	if reportCacheEnabled() {
		cacheKey = fmt.Sprintf("report:stock_summary:%s:%s:%d",
			time.Time(fromDate).UTC().Format("2006-01-02"),
			time.Time(toDate).UTC().Format("2006-01-02"),
			utils.DereferencePtr(categoryId))
		var cached []*StockSummaryReportResponse
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok && cached != nil {
			return cached, nil
		}
	}

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"categoryId": utils.DereferencePtr(categoryId),
	})
	if err != nil {
		return nil, err
	}

	var results []*StockSummaryReportResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate":   fromDate,
		"toDate":     toDate,
		"categoryId": categoryId,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	if cacheKey != "" {
		_ = cacheSet(cacheKey, results, reportCacheTTL())
	}

	return results, nil
}

func (r StockSummaryReportResponse) GetCellValues() []interface{} {
	return []interface{}{
		r.ProductName,
		r.ProductSku,
		r.OpeningStock,
		r.QtyIn,
		r.QtyOut,
		r.ClosingStock,
	}
}
