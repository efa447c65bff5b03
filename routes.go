package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/middlewares"
	"bitbucket.org/mmdatafocus/stationery_backend/models"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
)

func registerRoutes(r *gin.Engine) {
	r.POST("/login", loginHandler())

	// Everything below needs a resolved session user; the history hooks
	// read the user id and name stamped by RequireUser.
	authed := r.Group("/", middlewares.RequireUser())

	authed.POST("/logout", logoutHandler())
	authed.POST("/change-password", changePasswordHandler())

	customers := authed.Group("/customers")
	customers.POST("", createCustomerHandler())
	customers.GET("", paginateCustomersHandler())
	customers.GET("/all", listCustomersHandler())
	customers.GET("/:id", getCustomerHandler())
	customers.PUT("/:id", updateCustomerHandler())
	customers.DELETE("/:id", deleteCustomerHandler())
	customers.POST("/:id/toggle-active", toggleCustomerHandler())
	customers.GET("/:id/total-spend", customerTotalSpendHandler())

	suppliers := authed.Group("/suppliers")
	suppliers.POST("", createSupplierHandler())
	suppliers.GET("", paginateSuppliersHandler())
	suppliers.GET("/all", listSuppliersHandler())
	suppliers.GET("/:id", getSupplierHandler())
	suppliers.PUT("/:id", updateSupplierHandler())
	suppliers.DELETE("/:id", deleteSupplierHandler())
	suppliers.POST("/:id/toggle-active", toggleSupplierHandler())
	suppliers.GET("/:id/outstanding-payable", supplierOutstandingPayableHandler())

	employees := authed.Group("/employees")
	employees.POST("", createEmployeeHandler())
	employees.GET("", paginateEmployeesHandler())
	employees.GET("/all", listEmployeesHandler())
	employees.GET("/:id", getEmployeeHandler())
	employees.PUT("/:id", updateEmployeeHandler())
	employees.DELETE("/:id", deleteEmployeeHandler())
	employees.POST("/:id/toggle-active", toggleEmployeeHandler())

	attendance := authed.Group("/attendance")
	attendance.POST("/check-in", checkInHandler())
	attendance.POST("/check-out", checkOutHandler())
	attendance.GET("", listAttendancesHandler())
	attendance.GET("/:id", getAttendanceHandler())

	categories := authed.Group("/product-categories")
	categories.POST("", createProductCategoryHandler())
	categories.GET("", listProductCategoriesHandler())
	categories.GET("/:id", getProductCategoryHandler())
	categories.PUT("/:id", updateProductCategoryHandler())
	categories.DELETE("/:id", deleteProductCategoryHandler())
	categories.POST("/:id/toggle-active", toggleProductCategoryHandler())

	products := authed.Group("/products")
	products.POST("", createProductHandler())
	products.GET("", paginateProductsHandler())
	products.GET("/all", listProductsHandler())
	products.GET("/low-stock", lowStockProductsHandler())
	products.POST("/import", importProductsHandler())
	products.GET("/:id", getProductHandler())
	products.PUT("/:id", updateProductHandler())
	products.DELETE("/:id", deleteProductHandler())
	products.POST("/:id/toggle-active", toggleProductHandler())
	products.POST("/:id/adjust-stock", adjustStockHandler())
	products.GET("/:id/stock", stockOnHandHandler())

	authed.GET("/stock-movements", stockMovementsHandler())

	purchaseOrders := authed.Group("/purchase-orders")
	purchaseOrders.POST("", createPurchaseOrderHandler())
	purchaseOrders.GET("", paginatePurchaseOrdersHandler())
	purchaseOrders.GET("/all", listPurchaseOrdersHandler())
	purchaseOrders.GET("/:id", getPurchaseOrderHandler())
	purchaseOrders.PUT("/:id", updatePurchaseOrderHandler())
	purchaseOrders.DELETE("/:id", deletePurchaseOrderHandler())
	purchaseOrders.POST("/:id/submit", purchaseOrderTransitionHandler(models.SubmitPurchaseOrder))
	purchaseOrders.POST("/:id/confirm", purchaseOrderTransitionHandler(models.ConfirmPurchaseOrder))
	purchaseOrders.POST("/:id/mark-in-process", purchaseOrderTransitionHandler(models.MarkPurchaseOrderInProcess))
	purchaseOrders.POST("/:id/mark-shipped", purchaseOrderTransitionHandler(models.MarkPurchaseOrderShipped))
	purchaseOrders.POST("/:id/mark-delivered", purchaseOrderTransitionHandler(models.MarkPurchaseOrderDelivered))
	purchaseOrders.POST("/:id/mark-paid", purchaseOrderTransitionHandler(models.MarkPurchaseOrderPaid))
	purchaseOrders.POST("/:id/cancel", purchaseOrderTransitionHandler(models.CancelPurchaseOrder))

	sales := authed.Group("/sales")
	sales.POST("", createSaleHandler())
	sales.GET("", paginateSalesHandler())
	sales.GET("/all", listSalesHandler())
	sales.POST("/delete-batch", deleteSalesHandler())
	sales.GET("/:id", getSaleHandler())
	sales.PUT("/:id", updateSaleHandler())
	sales.DELETE("/:id", deleteSaleHandler())

	repGroup := authed.Group("/reports")
	repGroup.GET("/sales-by-product", salesByProductReportHandler())
	repGroup.GET("/sales-by-customer", salesByCustomerReportHandler())
	repGroup.GET("/stock-summary", stockSummaryReportHandler())

	uploads := authed.Group("/uploads")
	uploads.POST("/sign", signUploadHandler())
	uploads.POST("/complete", completeUploadHandler())
	uploads.GET("/object", uploadObjectHandler())
	uploads.POST("/image", uploadImageHandler())
	uploads.DELETE("/image", removeImageHandler())

	admin := authed.Group("/", middlewares.RequireAdmin())

	users := admin.Group("/users")
	users.GET("", listUsersHandler())
	users.POST("", createUserHandler())
	users.GET("/:id", getUserHandler())
	users.PUT("/:id", updateUserHandler())
	users.DELETE("/:id", deleteUserHandler())

	// Attendance corrections rewrite history; keep them admin only.
	admin.PUT("/attendance/:id", updateAttendanceHandler())
	admin.DELETE("/attendance/:id", deleteAttendanceHandler())

	admin.GET("/histories", listHistoriesHandler())
	admin.GET("/histories/:id", getHistoryHandler())
	admin.DELETE("/histories/:id", deleteHistoryHandler())

	admin.POST("/internal/ops/cache/clear", clearCacheHandler())
	admin.POST("/internal/ops/stock/rebuild", rebuildStockHandler())
}

// respondError maps the model error types onto HTTP statuses. Anything
// unrecognized goes through the gin error chain as a bare 500.
func respondError(c *gin.Context, err error) {
	var notFound *utils.NotFoundError
	var badState *utils.InvalidStateTransitionError
	var noStock *utils.InsufficientStockError
	var invalid *utils.ValidationError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &badState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &noStock):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondBindError answers a failed JSON bind. Tag violations come back as a
// per-field map so clients can highlight inputs; malformed JSON stays a plain
// message.
func respondBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": utils.ProcessValidationErrors(err),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func parseIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func queryString(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

// queryLimit reads the page size, falling back to the search default.
func queryLimit(c *gin.Context) (*int, bool) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return nil, false
	}
	if limit == nil {
		def := config.SearchLimit
		return &def, true
	}
	if *limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return nil, false
	}
	return limit, true
}

func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return nil, false
	}
	return &n, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be true or false"})
		return nil, false
	}
	return &v, true
}

// queryDate accepts 2006-01-02 or 2006-01-02T15:04:05.
func queryDate(c *gin.Context, name string) (*models.MyDateString, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	layout := "2006-01-02T15:04:05"
	if len(raw) == len("2006-01-02") {
		layout = "2006-01-02"
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be formatted as 2006-01-02"})
		return nil, false
	}
	d := models.MyDateString(t)
	return &d, true
}

func requireDate(c *gin.Context, name string) (models.MyDateString, bool) {
	d, ok := queryDate(c, name)
	if !ok {
		return models.MyDateString{}, false
	}
	if d == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is required"})
		return models.MyDateString{}, false
	}
	return *d, true
}

// queryEnum parses a query value through the enum's own UnmarshalJSON so the
// accepted spellings stay in one place.
func queryEnum[T any](c *gin.Context, name string) (*T, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	var v T
	if err := json.Unmarshal([]byte(strconv.Quote(raw)), &v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + ": " + err.Error()})
		return nil, false
	}
	return &v, true
}
