package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/models"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/shopspring/decimal"
)

type SalesByProductResponse struct {
	ProductID    int             `json:"productId"`
	ProductName  *string         `json:"productName,omitempty"`
	ProductSku   *string         `json:"productSku,omitempty"`
	SoldQty      int             `json:"soldQty"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

func GetSalesByProductReport(ctx context.Context, fromDate models.MyDateString, toDate models.MyDateString, categoryId *int, sku *string, productName *string) ([]*SalesByProductResponse, error) {
	start := time.Now()
	defer logSlowReport(ctx, "sales_by_product_report", start, map[string]any{
		"to_date": fmt.Sprintf("%v", time.Time(toDate).UTC()),
	})

	sqlT := `
with SaleLines as (
SELECT
    sd.product_id,
    SUM(sd.quantity) AS sold_qty,
    AVG(sd.unit_price) AS average_price,
    SUM(sd.subtotal) AS total_amount
FROM
    sales AS s
        JOIN
    sale_details AS sd ON sd.sale_id = s.id
WHERE
    s.sale_date BETWEEN @fromDate AND @toDate
GROUP BY sd.product_id
)
SELECT
    p.id AS product_id,
    p.name AS product_name,
    p.sku AS product_sku,
    SaleLines.sold_qty,
    SaleLines.average_price,
    SaleLines.total_amount
FROM
    SaleLines
        JOIN
    products p ON SaleLines.product_id = p.id
WHERE
    1 = 1
    {{- if .categoryId }} AND p.category_id = @categoryId {{- end }}
    {{- if .productName }} AND p.name LIKE @productName {{- end }}
    {{- if .sku }} AND p.sku = @sku {{- end }}
ORDER BY SaleLines.total_amount DESC;
`
	timezone := config.Timezone()
	if err := fromDate.StartOfDayUTCTime(timezone); err != nil {
		return nil, err
	}
	if err := toDate.EndOfDayUTCTime(timezone); err != nil {
		return nil, err
	}

	if categoryId != nil && *categoryId != 0 {
		if err := utils.ValidateResourceId[models.ProductCategory](ctx, *categoryId); err != nil {
			return nil, err
		}
	}

	// execting sql template to get raw sql
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"categoryId":  utils.DereferencePtr(categoryId),
		"sku":         utils.DereferencePtr(sku),
		"productName": utils.DereferencePtr(productName),
	})
	if err != nil {
		return nil, err
	}

	var results []*SalesByProductResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate":    fromDate,
		"toDate":      toDate,
		"categoryId":  categoryId,
		"sku":         sku,
		"productName": "%" + utils.DereferencePtr(productName) + "%",
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r SalesByProductResponse) GetCellValues() []interface{} {
	return []interface{}{
		utils.DereferencePtr(r.ProductName, ""),
		utils.DereferencePtr(r.ProductSku, ""),
		r.SoldQty,
		r.AveragePrice,
		r.TotalAmount,
	}
}
