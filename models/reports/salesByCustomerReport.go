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

type SalesByCustomerResponse struct {
	CustomerID    int             `json:"CustomerId"`
	CustomerName  *string         `json:"CustomerName,omitempty"`
	SaleCount     int             `json:"SaleCount"`
	TotalSales    decimal.Decimal `json:"TotalSales"`
	TotalDiscount decimal.Decimal `json:"TotalDiscount"`
	TotalTax      decimal.Decimal `json:"TotalTax"`
	FinalTotal    decimal.Decimal `json:"FinalTotal"`
}

func GetSalesByCustomerReport(ctx context.Context, fromDate models.MyDateString, toDate models.MyDateString, customerId *int) ([]*SalesByCustomerResponse, error) {
	start := time.Now()
	defer logSlowReport(ctx, "sales_by_customer_report", start, map[string]any{
		"to_date": fmt.Sprintf("%v", time.Time(toDate).UTC()),
	})

	sqlT := `
SELECT
    sv.customer_id,
    sv.total_sales,
    sv.total_discount,
    sv.total_tax,
    sv.final_total,
    sv.sale_count,
    customers.name AS customer_name
FROM
    (SELECT
        customer_id,
            SUM(total_amount) AS total_sales,
            SUM(discount_amount) AS total_discount,
            SUM(tax_amount) AS total_tax,
            SUM(final_amount) AS final_total,
            COUNT(sales.id) AS sale_count
    FROM
        sales
    WHERE
        sale_date BETWEEN @fromDate AND @toDate
		{{- if .customerId }} AND customer_id = @customerId {{- end }}
    GROUP BY customer_id) AS sv
        LEFT JOIN
    customers ON customers.id = sv.customer_id;
`

	timezone := config.Timezone()
	if err := fromDate.StartOfDayUTCTime(timezone); err != nil {
		return nil, err
	}
	if err := toDate.EndOfDayUTCTime(timezone); err != nil {
		return nil, err
	}

	if customerId != nil && *customerId != 0 {
		if err := utils.ValidateResourceId[models.Customer](ctx, *customerId); err != nil {
			return nil, err
		}
	}

	// generating sql from template
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"customerId": utils.DereferencePtr(customerId),
	})
	if err != nil {
		return nil, err
	}

	var records []*SalesByCustomerResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate":   fromDate,
		"toDate":     toDate,
		"customerId": customerId,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r SalesByCustomerResponse) GetCellValues() []interface{} {
	return []interface{}{
		utils.DereferencePtr(r.CustomerName, ""),
		r.SaleCount,
		r.TotalSales,
		r.TotalDiscount,
		r.TotalTax,
		r.FinalTotal,
	}
}
