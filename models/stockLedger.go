package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovement is the append-only journal behind products.stock.
// The column is always the running sum of a product's deltas.
type StockMovement struct {
	ID            int                `gorm:"primary_key" json:"id"`
	ProductId     int                `gorm:"index;not null" json:"product_id"`
	Delta         int                `gorm:"not null" json:"delta"`
	ReferenceType StockReferenceType `gorm:"type:enum('SA','ADJ','OP','IM');default:'ADJ'" json:"reference_type"`
	ReferenceID   int                `gorm:"index;not null;default:0" json:"reference_id"`
	CorrelationId string             `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

// AdjustStock applies a signed delta to a product inside the caller's transaction.
// The row lock serializes concurrent movements on the same product, so the
// negative-stock check holds under parallel sales.
func AdjustStock(tx *gorm.DB, ctx context.Context, productId int, delta int, referenceType StockReferenceType, referenceId int) error {

	var product Product
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, productId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewNotFoundError("Product", productId)
		}
		return err
	}

	if delta < 0 && product.Stock+delta < 0 {
		return utils.NewInsufficientStockError(productId, -delta, product.Stock)
	}

	if err := tx.Exec("UPDATE products SET stock = stock + ? WHERE id = ?", delta, productId).Error; err != nil {
		return err
	}

	movement := StockMovement{
		ProductId:     productId,
		Delta:         delta,
		ReferenceType: referenceType,
		ReferenceID:   referenceId,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return err
	}

	// cached copy carries the old stock value
	return product.RemoveInstanceRedis()
}

// manual stock correction, outside any sale or purchase document
func AdjustProductStock(ctx context.Context, productId int, delta int) (*Product, error) {

	if delta == 0 {
		return nil, utils.NewValidationError("delta", "must not be zero")
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := AdjustStock(tx, ctx, productId, delta, StockReferenceTypeAdjustment, 0); err != nil {
		tx.Rollback()
		return nil, err
	}

	var product Product
	if err := tx.WithContext(ctx).First(&product, productId).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &product, nil
}

// GetStockOnHand sums the journal for one product.
// products.stock must agree with this value at all times.
func GetStockOnHand(ctx context.Context, productId int) (int, error) {

	if err := utils.ValidateResourceId[Product](ctx, productId); err != nil {
		return 0, err
	}

	var stockOnHand int
	db := config.GetDB()
	err := db.WithContext(ctx).
		Model(&StockMovement{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("product_id = ?", productId).
		Scan(&stockOnHand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return stockOnHand, nil
}

func GetStockMovements(ctx context.Context, productId *int, referenceType *StockReferenceType, limit *int) ([]*StockMovement, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&StockMovement{})

	if productId != nil && *productId > 0 {
		dbCtx = dbCtx.Where("product_id = ?", *productId)
	}
	if referenceType != nil && *referenceType != "" {
		dbCtx = dbCtx.Where("reference_type = ?", *referenceType)
	}
	if limit != nil && *limit > 0 {
		dbCtx = dbCtx.Limit(*limit)
	}

	var movements []*StockMovement
	if err := dbCtx.Order("id DESC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// RebuildProductStock resets every products.stock to the journal sum.
// Used by the offline rebuild command after manual database surgery.
func RebuildProductStock(ctx context.Context) (int64, error) {

	db := config.GetDB()
	result := db.WithContext(ctx).Exec(`
		UPDATE products p
		LEFT JOIN (
			SELECT product_id, SUM(delta) AS total
			FROM stock_movements
			GROUP BY product_id
		) m ON m.product_id = p.id
		SET p.stock = COALESCE(m.total, 0)`)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
