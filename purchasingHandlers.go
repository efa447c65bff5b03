package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/stationery_backend/models"
)

func createPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPurchaseOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		order, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": order})
	}
}

func paginatePurchaseOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			return
		}
		supplierId, ok := queryInt(c, "supplierId")
		if !ok {
			return
		}
		currentStatus, ok := queryEnum[models.PurchaseOrderStatus](c, "currentStatus")
		if !ok {
			return
		}
		startOrderDate, ok := queryDate(c, "startOrderDate")
		if !ok {
			return
		}
		endOrderDate, ok := queryDate(c, "endOrderDate")
		if !ok {
			return
		}
		conn, err := models.PaginatePurchaseOrder(c.Request.Context(), limit, queryString(c, "after"),
			queryString(c, "orderNumber"), supplierId, currentStatus, startOrderDate, endOrderDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": conn})
	}
}

func listPurchaseOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := models.GetPurchaseOrders(c.Request.Context(), queryString(c, "orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": orders})
	}
}

func getPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		order, err := models.GetPurchaseOrder(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": order})
	}
}

func updatePurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var input models.NewPurchaseOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		order, err := models.UpdatePurchaseOrder(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": order})
	}
}

func deletePurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		order, err := models.DeletePurchaseOrder(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": order})
	}
}

// purchaseOrderTransitionHandler wraps one lifecycle action. The model layer
// owns the transition table; out-of-order calls come back as 409.
func purchaseOrderTransitionHandler(apply func(context.Context, int) (*models.PurchaseOrder, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		order, err := apply(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": order})
	}
}
