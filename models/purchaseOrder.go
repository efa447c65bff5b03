package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/shopspring/decimal"
)

type PurchaseOrder struct {
	ID                   int                   `gorm:"primary_key" json:"id"`
	SupplierId           int                   `gorm:"index;not null" json:"supplier_id" binding:"required"`
	OrderNumber          string                `gorm:"size:255;not null" json:"order_number"`
	SequenceNo           decimal.Decimal       `gorm:"type:decimal(15);not null" json:"sequence_no"`
	OrderDate            time.Time             `gorm:"not null" json:"order_date" binding:"required"`
	ExpectedDeliveryDate *time.Time            `gorm:"default:null" json:"expected_delivery_date"`
	Notes                string                `gorm:"type:text;default:null" json:"notes"`
	CurrentStatus        PurchaseOrderStatus   `gorm:"type:enum('Draft','Submitted','Confirmed','In Process','Shipped','Delivered','Paid','Cancelled');not null" json:"current_status"`
	OrderTotalAmount     decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"order_total_amount"`
	Details              []PurchaseOrderDetail `json:"purchase_order_details"`
	CreatedAt            time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// returns decoded cursor string
func (po PurchaseOrder) GetCursor() string {
	return po.CreatedAt.String()
}

type PurchaseOrderDetail struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId  int             `gorm:"index;not null" json:"purchase_order_id"`
	ProductId        int             `gorm:"index;not null" json:"product_id"`
	Quantity         int             `gorm:"not null;default:0" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_price"`
	ReceivedQuantity int             `gorm:"not null;default:0" json:"received_quantity"`
}

func (d PurchaseOrderDetail) fillable() map[string]interface{} {
	return map[string]interface{}{
		"ProductId":        d.ProductId,
		"Quantity":         d.Quantity,
		"UnitPrice":        d.UnitPrice,
		"TotalPrice":       d.TotalPrice,
		"ReceivedQuantity": d.ReceivedQuantity,
	}
}

type NewPurchaseOrder struct {
	SupplierId           int                      `json:"supplier_id" binding:"required"`
	OrderDate            time.Time                `json:"order_date" binding:"required"`
	ExpectedDeliveryDate *time.Time               `json:"expected_delivery_date"`
	Notes                string                   `json:"notes"`
	Details              []NewPurchaseOrderDetail `json:"details"`
}

type NewPurchaseOrderDetail struct {
	DetailId         int             `json:"detail_id"`
	ProductId        int             `json:"product_id" binding:"required"`
	Quantity         int             `json:"quantity" binding:"required"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ReceivedQuantity int             `json:"received_quantity"`
}

type PurchaseOrdersConnection struct {
	Edges    []*PurchaseOrdersEdge `json:"edges"`
	PageInfo *PageInfo             `json:"pageInfo"`
}

type PurchaseOrdersEdge Edge[PurchaseOrder]

// purchaseOrderTransitions is the single source of truth for the order
// lifecycle. Every status change resolves against this table; states
// without an entry for an action reject it. Paid and Cancelled have no
// entries at all, they are terminal.
var purchaseOrderTransitions = map[PurchaseOrderStatus]map[PurchaseOrderAction]PurchaseOrderStatus{
	PurchaseOrderStatusDraft: {
		PurchaseOrderActionSubmit: PurchaseOrderStatusSubmitted,
		PurchaseOrderActionCancel: PurchaseOrderStatusCancelled,
	},
	PurchaseOrderStatusSubmitted: {
		PurchaseOrderActionConfirm: PurchaseOrderStatusConfirmed,
		PurchaseOrderActionCancel:  PurchaseOrderStatusCancelled,
	},
	PurchaseOrderStatusConfirmed: {
		PurchaseOrderActionMarkInProcess: PurchaseOrderStatusInProcess,
		PurchaseOrderActionMarkShipped:   PurchaseOrderStatusShipped,
		PurchaseOrderActionCancel:        PurchaseOrderStatusCancelled,
	},
	PurchaseOrderStatusInProcess: {
		PurchaseOrderActionMarkShipped: PurchaseOrderStatusShipped,
		PurchaseOrderActionCancel:      PurchaseOrderStatusCancelled,
	},
	PurchaseOrderStatusShipped: {
		PurchaseOrderActionMarkDelivered: PurchaseOrderStatusDelivered,
		PurchaseOrderActionCancel:        PurchaseOrderStatusCancelled,
	},
	PurchaseOrderStatusDelivered: {
		PurchaseOrderActionMarkPaid: PurchaseOrderStatusPaid,
	},
}

// NextPurchaseOrderStatus resolves an action against the transition table.
// The current status is returned unchanged when the action is not allowed.
func NextPurchaseOrderStatus(current PurchaseOrderStatus, action PurchaseOrderAction) (PurchaseOrderStatus, error) {
	next, ok := purchaseOrderTransitions[current][action]
	if !ok {
		return current, utils.NewInvalidStateTransitionError(string(current), string(action))
	}
	return next, nil
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPurchaseOrder) validate(ctx context.Context, _ int) error {

	// exists supplier
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return err
	}

	if len(input.Details) == 0 {
		return utils.NewValidationError("details", "at least one item is required")
	}
	for _, detail := range input.Details {
		if detail.Quantity <= 0 {
			return utils.NewValidationError("quantity", "must be positive")
		}
		if detail.UnitPrice.IsNegative() {
			return utils.NewValidationError("unit_price", "must not be negative")
		}
		if detail.ReceivedQuantity < 0 {
			return utils.NewValidationError("received_quantity", "must not be negative")
		}
		// exists product
		if err := utils.ValidateResourceId[Product](ctx, detail.ProductId); err != nil {
			return err
		}
	}
	return nil
}

// mapPurchaseOrderDetails prices every line from the product's current cost.
// The caller's unit price is stored on the line but never enters the totals.
func mapPurchaseOrderDetails(ctx context.Context, purchaseOrderId int, input []NewPurchaseOrderDetail) ([]PurchaseOrderDetail, decimal.Decimal, error) {

	details := make([]PurchaseOrderDetail, 0, len(input))
	orderTotalAmount := decimal.Zero

	for _, item := range input {
		product, err := utils.FetchModel[Product](ctx, item.ProductId)
		if err != nil {
			return nil, decimal.Zero, err
		}

		totalPrice := product.CostPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		details = append(details, PurchaseOrderDetail{
			ID:               item.DetailId,
			PurchaseOrderId:  purchaseOrderId,
			ProductId:        item.ProductId,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			TotalPrice:       totalPrice,
			ReceivedQuantity: item.ReceivedQuantity,
		})
		orderTotalAmount = orderTotalAmount.Add(totalPrice)
	}

	return details, orderTotalAmount, nil
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	// validate PurchaseOrder
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	details, orderTotalAmount, err := mapPurchaseOrderDetails(ctx, 0, input.Details)
	if err != nil {
		return nil, err
	}
	// ids from the input are meaningless on create
	for i := range details {
		details[i].ID = 0
	}

	purchaseOrder := PurchaseOrder{
		SupplierId:           input.SupplierId,
		OrderDate:            input.OrderDate,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		Notes:                input.Notes,
		CurrentStatus:        PurchaseOrderStatusDraft,
		OrderTotalAmount:     orderTotalAmount,
		Details:              details,
	}

	tx := db.Begin()

	seqNo, err := utils.GetSequence[PurchaseOrder](ctx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	prefix, err := getTransactionPrefix("PurchaseOrder")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	purchaseOrder.SequenceNo = decimal.NewFromInt(seqNo)
	purchaseOrder.OrderNumber = prefix + fmt.Sprint(seqNo)

	err = tx.WithContext(ctx).Create(&purchaseOrder).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchaseOrder, nil
}

func UpdatePurchaseOrder(ctx context.Context, purchaseOrderID int, updatedOrder *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	// Fetch the existing purchase order
	existingOrder, err := utils.FetchModel[PurchaseOrder](ctx, purchaseOrderID, "Details")
	if err != nil {
		return nil, err
	}

	// mutable only while Draft
	if existingOrder.CurrentStatus != PurchaseOrderStatusDraft {
		return nil, utils.NewInvalidStateTransitionError(string(existingOrder.CurrentStatus), "update")
	}

	if err := updatedOrder.validate(ctx, purchaseOrderID); err != nil {
		return nil, err
	}

	details, orderTotalAmount, err := mapPurchaseOrderDetails(ctx, purchaseOrderID, updatedOrder.Details)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()

	// replace the item set: insert new lines, update matched ids, delete the rest
	if err := ReplaceAssociation(ctx, tx, details, "purchase_order_id = ?", purchaseOrderID); err != nil {
		tx.Rollback()
		return nil, err
	}

	err = tx.WithContext(ctx).Model(existingOrder).Updates(map[string]interface{}{
		"SupplierId":           updatedOrder.SupplierId,
		"OrderDate":            updatedOrder.OrderDate,
		"ExpectedDeliveryDate": updatedOrder.ExpectedDeliveryDate,
		"Notes":                updatedOrder.Notes,
		"OrderTotalAmount":     orderTotalAmount,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Refresh the existingOrder to get the latest details
	if err := tx.WithContext(ctx).Preload("Details").First(existingOrder, purchaseOrderID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return existingOrder, nil
}

func DeletePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {

	result, err := utils.FetchModel[PurchaseOrder](ctx, id, "Details")
	if err != nil {
		return nil, err
	}

	// removable only while Draft
	if result.CurrentStatus != PurchaseOrderStatusDraft {
		return nil, utils.NewInvalidStateTransitionError(string(result.CurrentStatus), "delete")
	}

	db := config.GetDB()
	tx := db.Begin()

	err = tx.WithContext(ctx).Model(&result).Association("Details").Unscoped().Clear()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	err = tx.WithContext(ctx).Delete(&result).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return result, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return utils.FetchModel[PurchaseOrder](ctx, id, "Details")
}

func GetPurchaseOrders(ctx context.Context, orderNumber *string) ([]*PurchaseOrder, error) {
	db := config.GetDB()
	var results []*PurchaseOrder

	dbCtx := db.WithContext(ctx)
	if orderNumber != nil && len(*orderNumber) > 0 {
		dbCtx = dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatusPurchaseOrder moves an order one step through the lifecycle.
// Rejected actions leave the row untouched.
func UpdateStatusPurchaseOrder(ctx context.Context, id int, action PurchaseOrderAction) (*PurchaseOrder, error) {

	po, err := utils.FetchModel[PurchaseOrder](ctx, id, "Details")
	if err != nil {
		return nil, err
	}

	next, err := NextPurchaseOrderStatus(po.CurrentStatus, action)
	if err != nil {
		return nil, err
	}

	// update CurrentStatus without hook, the history row below carries the transition
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(po).UpdateColumn("CurrentStatus", next).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "UPDATE", id, "purchase_orders", nil, nil, "Updated current status to "+string(next)); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return po, nil
}

func SubmitPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return UpdateStatusPurchaseOrder(ctx, id, PurchaseOrderActionSubmit)
}

func ConfirmPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return UpdateStatusPurchaseOrder(ctx, id, PurchaseOrderActionConfirm)
}

func MarkPurchaseOrderInProcess(ctx context.Context, id int) (*PurchaseOrder, error) {
	return UpdateStatusPurchaseOrder(ctx, id, PurchaseOrderActionMarkInProcess)
}

func MarkPurchaseOrderShipped(ctx context.Context, id int) (*PurchaseOrder, error) {
	return UpdateStatusPurchaseOrder(ctx, id, PurchaseOrderActionMarkShipped)
}

func MarkPurchaseOrderDelivered(ctx context.Context, id int) (*PurchaseOrder, error) {
	return UpdateStatusPurchaseOrder(ctx, id, PurchaseOrderActionMarkDelivered)
}

func MarkPurchaseOrderPaid(ctx context.Context, id int) (*PurchaseOrder, error) {
	return UpdateStatusPurchaseOrder(ctx, id, PurchaseOrderActionMarkPaid)
}

func CancelPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return UpdateStatusPurchaseOrder(ctx, id, PurchaseOrderActionCancel)
}

func PaginatePurchaseOrder(
	ctx context.Context, limit *int, after *string,

	orderNumber *string,
	supplierID *int,
	currentStatus *PurchaseOrderStatus,

	startOrderDate *MyDateString,
	endOrderDate *MyDateString,
) (*PurchaseOrdersConnection, error) {

	timezone := config.Timezone()
	if err := startOrderDate.StartOfDayUTCTime(timezone); err != nil {
		return nil, err
	}
	if err := endOrderDate.EndOfDayUTCTime(timezone); err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&PurchaseOrder{})
	if orderNumber != nil && *orderNumber != "" {
		dbCtx = dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}
	if supplierID != nil && *supplierID > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierID)
	}
	if currentStatus != nil {
		dbCtx = dbCtx.Where("current_status = ?", *currentStatus)
	}
	if startOrderDate != nil && endOrderDate != nil {
		dbCtx = dbCtx.Where("order_date BETWEEN ? AND ?", startOrderDate, endOrderDate)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[PurchaseOrder](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var purchaseOrdersConnection PurchaseOrdersConnection
	purchaseOrdersConnection.PageInfo = pageInfo
	for _, edge := range edges {
		purchaseOrderEdge := PurchaseOrdersEdge(edge)
		purchaseOrdersConnection.Edges = append(purchaseOrdersConnection.Edges, &purchaseOrderEdge)
	}

	return &purchaseOrdersConnection, err
}
