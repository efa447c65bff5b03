package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Sale struct {
	ID             int             `gorm:"primary_key" json:"id"`
	SaleNumber     string          `gorm:"size:255;not null" json:"sale_number"`
	SequenceNo     decimal.Decimal `gorm:"type:decimal(15);not null" json:"sequence_no"`
	CustomerId     int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	EmployeeId     int             `gorm:"index;not null" json:"employee_id" binding:"required"`
	SaleDate       time.Time       `gorm:"not null" json:"sale_date" binding:"required"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"final_amount"`
	Notes          string          `gorm:"type:text;default:null" json:"notes"`
	Details        []SaleDetail    `json:"sale_details"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// returns decoded cursor string
func (s Sale) GetCursor() string {
	return s.CreatedAt.String()
}

type SaleDetail struct {
	ID        int             `gorm:"primary_key" json:"id"`
	SaleId    int             `gorm:"index;not null" json:"sale_id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null;default:0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
}

func (d SaleDetail) fillable() map[string]interface{} {
	return map[string]interface{}{
		"ProductId": d.ProductId,
		"Quantity":  d.Quantity,
		"UnitPrice": d.UnitPrice,
		"Subtotal":  d.Subtotal,
	}
}

// NewSale carries the caller's amounts as given. Totals, tax and discount are
// stored untouched, the server never recomputes them.
type NewSale struct {
	CustomerId     int             `json:"customer_id" binding:"required"`
	EmployeeId     int             `json:"employee_id" binding:"required"`
	SaleDate       time.Time       `json:"sale_date" binding:"required"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Notes          string          `json:"notes"`
	Details        []NewSaleDetail `json:"details"`
}

type NewSaleDetail struct {
	DetailId  int             `json:"detail_id"`
	ProductId int             `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SalesConnection struct {
	Edges    []*SalesEdge `json:"edges"`
	PageInfo *PageInfo    `json:"pageInfo"`
}

type SalesEdge Edge[Sale]

// StockChange is the net movement a sale write applies to one product.
// A negative delta takes stock, a positive one gives it back.
type StockChange struct {
	ProductId int
	Delta     int
}

// PlanSaleStockChanges diffs the stored item set against the incoming one and
// nets the result per product. Lines match by detail id; incoming lines
// without a match are new, stored lines nobody claims are removed. A product
// swap on a matched line returns the old product's quantity and takes the new
// one's. Zero nets are dropped and the result is ordered by product id so
// concurrent writers lock product rows in the same order.
//
// Netting per product also credits a line's old quantity before its new one
// is checked, so growing a line from 5 to 8 only needs 3 more on hand.
func PlanSaleStockChanges(existing []SaleDetail, updated []NewSaleDetail) []StockChange {
	deltas := map[int]int{}
	claimed := map[int]bool{}

	for _, item := range updated {
		var match *SaleDetail
		if item.DetailId > 0 {
			for i := range existing {
				if existing[i].ID == item.DetailId {
					match = &existing[i]
					break
				}
			}
		}
		if match == nil {
			// new line
			deltas[item.ProductId] -= item.Quantity
			continue
		}
		claimed[match.ID] = true
		if match.ProductId != item.ProductId {
			// product swapped: give back the old, take the new
			deltas[match.ProductId] += match.Quantity
			deltas[item.ProductId] -= item.Quantity
			continue
		}
		deltas[item.ProductId] += match.Quantity - item.Quantity
	}

	for _, item := range existing {
		if !claimed[item.ID] {
			// line removed, its stock comes back
			deltas[item.ProductId] += item.Quantity
		}
	}

	changes := make([]StockChange, 0, len(deltas))
	for productId, delta := range deltas {
		if delta == 0 {
			continue
		}
		changes = append(changes, StockChange{ProductId: productId, Delta: delta})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].ProductId < changes[j].ProductId })
	return changes
}

// validateStockChanges fast-fails the takes in a planned change set against
// current stock, before anything is written. Returns are always allowed. The
// row locks in AdjustStock re-check the same rule inside the transaction.
func validateStockChanges(ctx context.Context, changes []StockChange) error {
	db := config.GetDB()
	for _, change := range changes {
		if change.Delta >= 0 {
			continue
		}
		var product Product
		err := db.WithContext(ctx).Select("id", "stock").First(&product, change.ProductId).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Product", change.ProductId)
			}
			return err
		}
		if product.Stock+change.Delta < 0 {
			return utils.NewInsufficientStockError(change.ProductId, -change.Delta, product.Stock)
		}
	}
	return nil
}

// validate input for both create & update. (id = 0 for create)
func (input *NewSale) validate(ctx context.Context, _ int) error {

	// exists customer
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return err
	}
	// exists employee
	if err := utils.ValidateResourceId[Employee](ctx, input.EmployeeId); err != nil {
		return err
	}

	if input.TotalAmount.IsNegative() {
		return utils.NewValidationError("total_amount", "must not be negative")
	}
	if input.DiscountAmount.IsNegative() {
		return utils.NewValidationError("discount_amount", "must not be negative")
	}
	if input.TaxAmount.IsNegative() {
		return utils.NewValidationError("tax_amount", "must not be negative")
	}
	if input.FinalAmount.IsNegative() {
		return utils.NewValidationError("final_amount", "must not be negative")
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
		if detail.Subtotal.IsNegative() {
			return utils.NewValidationError("subtotal", "must not be negative")
		}
		// exists product
		if err := utils.ValidateResourceId[Product](ctx, detail.ProductId); err != nil {
			return err
		}
	}
	return nil
}

func CreateSale(ctx context.Context, input *NewSale) (*Sale, error) {
	db := config.GetDB()

	// validate Sale
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	// every take must clear the stock check before anything is written
	changes := PlanSaleStockChanges(nil, input.Details)
	if err := validateStockChanges(ctx, changes); err != nil {
		return nil, err
	}

	details := make([]SaleDetail, 0, len(input.Details))
	for _, item := range input.Details {
		details = append(details, SaleDetail{
			ProductId: item.ProductId,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}

	sale := Sale{
		CustomerId:     input.CustomerId,
		EmployeeId:     input.EmployeeId,
		SaleDate:       input.SaleDate,
		TotalAmount:    input.TotalAmount,
		DiscountAmount: input.DiscountAmount,
		TaxAmount:      input.TaxAmount,
		FinalAmount:    input.FinalAmount,
		Notes:          input.Notes,
		Details:        details,
	}

	tx := db.Begin()

	seqNo, err := utils.GetSequence[Sale](ctx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	prefix, err := getTransactionPrefix("Sale")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	sale.SequenceNo = decimal.NewFromInt(seqNo)
	sale.SaleNumber = prefix + fmt.Sprint(seqNo)

	err = tx.WithContext(ctx).Create(&sale).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// take stock inside the same transaction as the document
	for _, change := range changes {
		if err := AdjustStock(tx, ctx, change.ProductId, change.Delta, StockReferenceTypeSale, sale.ID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func UpdateSale(ctx context.Context, saleId int, updatedSale *NewSale) (*Sale, error) {
	db := config.GetDB()

	// Fetch the existing sale
	existingSale, err := utils.FetchModel[Sale](ctx, saleId, "Details")
	if err != nil {
		return nil, err
	}

	if err := updatedSale.validate(ctx, saleId); err != nil {
		return nil, err
	}

	changes := PlanSaleStockChanges(existingSale.Details, updatedSale.Details)
	if err := validateStockChanges(ctx, changes); err != nil {
		return nil, err
	}

	details := make([]SaleDetail, 0, len(updatedSale.Details))
	for _, item := range updatedSale.Details {
		details = append(details, SaleDetail{
			ID:        item.DetailId,
			SaleId:    saleId,
			ProductId: item.ProductId,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}

	tx := db.Begin()

	// replace the item set: insert new lines, update matched ids, delete the rest
	if err := ReplaceAssociation(ctx, tx, details, "sale_id = ?", saleId); err != nil {
		tx.Rollback()
		return nil, err
	}

	err = tx.WithContext(ctx).Model(existingSale).Updates(map[string]interface{}{
		"CustomerId":     updatedSale.CustomerId,
		"EmployeeId":     updatedSale.EmployeeId,
		"SaleDate":       updatedSale.SaleDate,
		"TotalAmount":    updatedSale.TotalAmount,
		"DiscountAmount": updatedSale.DiscountAmount,
		"TaxAmount":      updatedSale.TaxAmount,
		"FinalAmount":    updatedSale.FinalAmount,
		"Notes":          updatedSale.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, change := range changes {
		if err := AdjustStock(tx, ctx, change.ProductId, change.Delta, StockReferenceTypeSale, saleId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Refresh the existingSale to get the latest details
	if err := tx.WithContext(ctx).Preload("Details").First(existingSale, saleId).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return existingSale, nil
}

// deleteSaleInTx gives a sale's stock back and removes the document inside
// the caller's transaction.
func deleteSaleInTx(tx *gorm.DB, ctx context.Context, result *Sale) error {

	for _, change := range PlanSaleStockChanges(result.Details, nil) {
		if err := AdjustStock(tx, ctx, change.ProductId, change.Delta, StockReferenceTypeSale, result.ID); err != nil {
			return err
		}
	}

	err := tx.WithContext(ctx).Model(result).Association("Details").Unscoped().Clear()
	if err != nil {
		return err
	}

	return tx.WithContext(ctx).Delete(result).Error
}

func DeleteSale(ctx context.Context, id int) (*Sale, error) {

	result, err := utils.FetchModel[Sale](ctx, id, "Details")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := deleteSaleInTx(tx, ctx, result); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteSales removes a batch of sales in one transaction. Every id must
// resolve before the first delete runs; any failure leaves the batch intact.
func DeleteSales(ctx context.Context, ids []int) ([]*Sale, error) {

	if len(ids) == 0 {
		return nil, utils.NewValidationError("ids", "at least one id is required")
	}
	if err := utils.ValidateResourcesId[Sale](ctx, ids); err != nil {
		return nil, err
	}

	sales := make([]*Sale, 0, len(ids))
	for _, id := range ids {
		sale, err := utils.FetchModel[Sale](ctx, id, "Details")
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}

	db := config.GetDB()
	tx := db.Begin()

	for _, sale := range sales {
		if err := deleteSaleInTx(tx, ctx, sale); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return sales, nil
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	return utils.FetchModel[Sale](ctx, id, "Details")
}

func GetSales(ctx context.Context, saleNumber *string) ([]*Sale, error) {
	db := config.GetDB()
	var results []*Sale

	dbCtx := db.WithContext(ctx)
	if saleNumber != nil && len(*saleNumber) > 0 {
		dbCtx = dbCtx.Where("sale_number LIKE ?", "%"+*saleNumber+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateSale(
	ctx context.Context, limit *int, after *string,

	saleNumber *string,
	customerID *int,
	employeeID *int,

	startSaleDate *MyDateString,
	endSaleDate *MyDateString,
) (*SalesConnection, error) {

	timezone := config.Timezone()
	if err := startSaleDate.StartOfDayUTCTime(timezone); err != nil {
		return nil, err
	}
	if err := endSaleDate.EndOfDayUTCTime(timezone); err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Sale{})
	if saleNumber != nil && *saleNumber != "" {
		dbCtx = dbCtx.Where("sale_number LIKE ?", "%"+*saleNumber+"%")
	}
	if customerID != nil && *customerID > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerID)
	}
	if employeeID != nil && *employeeID > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", *employeeID)
	}
	if startSaleDate != nil && endSaleDate != nil {
		dbCtx = dbCtx.Where("sale_date BETWEEN ? AND ?", startSaleDate, endSaleDate)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Sale](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var salesConnection SalesConnection
	salesConnection.PageInfo = pageInfo
	for _, edge := range edges {
		saleEdge := SalesEdge(edge)
		salesConnection.Edges = append(salesConnection.Edges, &saleEdge)
	}

	return &salesConnection, err
}
