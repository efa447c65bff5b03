package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/stationery_backend/models/reports"
)

func salesByProductReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, ok := requireDate(c, "fromDate")
		if !ok {
			return
		}
		toDate, ok := requireDate(c, "toDate")
		if !ok {
			return
		}
		categoryId, ok := queryInt(c, "categoryId")
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "reports.sales_by_product")
		defer span.End()
		rows, err := reports.GetSalesByProductReport(ctx, fromDate, toDate,
			categoryId, queryString(c, "sku"), queryString(c, "productName"))
		if err != nil {
			respondError(c, err)
			return
		}
		if c.Query("format") == "xlsx" {
			exporters := make([]reports.ExcelExporter, 0, len(rows))
			for _, row := range rows {
				exporters = append(exporters, row)
			}
			headings := []string{"Product", "SKU", "Sold Qty", "Average Price", "Total Amount"}
			if err := reports.ExportExcelResponse(c.Writer, "sales_by_product.xlsx", headings, exporters); err != nil {
				_ = c.Error(err)
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func salesByCustomerReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, ok := requireDate(c, "fromDate")
		if !ok {
			return
		}
		toDate, ok := requireDate(c, "toDate")
		if !ok {
			return
		}
		customerId, ok := queryInt(c, "customerId")
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "reports.sales_by_customer")
		defer span.End()
		rows, err := reports.GetSalesByCustomerReport(ctx, fromDate, toDate, customerId)
		if err != nil {
			respondError(c, err)
			return
		}
		if c.Query("format") == "xlsx" {
			exporters := make([]reports.ExcelExporter, 0, len(rows))
			for _, row := range rows {
				exporters = append(exporters, row)
			}
			headings := []string{"Customer", "Sale Count", "Total Sales", "Total Discount", "Total Tax", "Final Total"}
			if err := reports.ExportExcelResponse(c.Writer, "sales_by_customer.xlsx", headings, exporters); err != nil {
				_ = c.Error(err)
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func stockSummaryReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, ok := requireDate(c, "fromDate")
		if !ok {
			return
		}
		toDate, ok := requireDate(c, "toDate")
		if !ok {
			return
		}
		categoryId, ok := queryInt(c, "categoryId")
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "reports.stock_summary")
		defer span.End()
		rows, err := reports.GetStockSummaryReport(ctx, fromDate, toDate, categoryId)
		if err != nil {
			respondError(c, err)
			return
		}
		if c.Query("format") == "xlsx" {
			exporters := make([]reports.ExcelExporter, 0, len(rows))
			for _, row := range rows {
				exporters = append(exporters, row)
			}
			headings := []string{"Product", "SKU", "Opening Stock", "Qty In", "Qty Out", "Closing Stock"}
			if err := reports.ExportExcelResponse(c.Writer, "stock_summary.xlsx", headings, exporters); err != nil {
				_ = c.Error(err)
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}
