package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/stationery_backend/models"
)

type deleteSalesRequest struct {
	Ids []int `json:"ids" binding:"required"`
}

func createSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSale
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		sale, err := models.CreateSale(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": sale})
	}
}

func paginateSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			return
		}
		customerId, ok := queryInt(c, "customerId")
		if !ok {
			return
		}
		employeeId, ok := queryInt(c, "employeeId")
		if !ok {
			return
		}
		startSaleDate, ok := queryDate(c, "startSaleDate")
		if !ok {
			return
		}
		endSaleDate, ok := queryDate(c, "endSaleDate")
		if !ok {
			return
		}
		conn, err := models.PaginateSale(c.Request.Context(), limit, queryString(c, "after"),
			queryString(c, "saleNumber"), customerId, employeeId, startSaleDate, endSaleDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": conn})
	}
}

func listSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sales, err := models.GetSales(c.Request.Context(), queryString(c, "saleNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": sales})
	}
}

func getSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		sale, err := models.GetSale(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": sale})
	}
}

func updateSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var input models.NewSale
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		sale, err := models.UpdateSale(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": sale})
	}
}

func deleteSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		sale, err := models.DeleteSale(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": sale})
	}
}

// deleteSalesHandler removes a batch in one transaction. Either every id
// resolves and every sale's stock is returned, or nothing changes.
func deleteSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deleteSalesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		sales, err := models.DeleteSales(c.Request.Context(), req.Ids)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": sales})
	}
}
