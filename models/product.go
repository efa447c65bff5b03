package models

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Product struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Description  string          `gorm:"type:text" json:"description"`
	CategoryId   int             `gorm:"index;not null;default:0" json:"category_id"`
	Images       []*Image        `gorm:"polymorphic:Reference" json:"images"`
	Sku          string          `gorm:"index;size:100" json:"sku"`
	Barcode      string          `gorm:"index;size:100" json:"barcode"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	SalesPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	Stock        int             `gorm:"not null;default:0" json:"stock"`
	ReorderLevel int             `gorm:"not null;default:0" json:"reorder_level"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// implements Node
func (p Product) GetCursor() string {
	return p.CreatedAt.String()
}

type NewProduct struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	CategoryId   int             `json:"category_id"`
	Images       []*NewImage     `json:"images"`
	Sku          string          `json:"sku"`
	Barcode      string          `json:"barcode"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalesPrice   decimal.Decimal `json:"sales_price"`
	ReorderLevel int             `json:"reorder_level"`
	OpeningStock int             `json:"opening_stock"`
}

type ProductsEdge Edge[Product]

type ProductsConnection struct {
	PageInfo *PageInfo
	Edges    []*ProductsEdge
}

type AllProduct struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Sku        string          `json:"sku"`
	Barcode    string          `json:"barcode"`
	CostPrice  decimal.Decimal `json:"cost_price"`
	SalesPrice decimal.Decimal `json:"sales_price"`
	Stock      int             `json:"stock"`
	IsActive   bool            `json:"is_active"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.Sku != "" {
		if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, id); err != nil {
			return err
		}
	}
	// exists category
	if input.CategoryId > 0 {
		if err := utils.ValidateResourceId[ProductCategory](ctx, input.CategoryId); err != nil {
			return err
		}
	}
	if input.CostPrice.IsNegative() {
		return utils.NewValidationError("cost_price", "must not be negative")
	}
	if input.SalesPrice.IsNegative() {
		return utils.NewValidationError("sales_price", "must not be negative")
	}
	if input.ReorderLevel < 0 {
		return utils.NewValidationError("reorder_level", "must not be negative")
	}
	if input.OpeningStock < 0 {
		return utils.NewValidationError("opening_stock", "must not be negative")
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	// construct Images
	images, err := mapNewImages(input.Images, "products", 0)
	if err != nil {
		return nil, err
	}

	product := Product{
		Name:         input.Name,
		Description:  input.Description,
		CategoryId:   input.CategoryId,
		Sku:          input.Sku,
		Barcode:      input.Barcode,
		CostPrice:    input.CostPrice,
		SalesPrice:   input.SalesPrice,
		ReorderLevel: input.ReorderLevel,
		IsActive:     utils.NewTrue(),
		// association
		Images: images,
	}

	db := config.GetDB()
	tx := db.Begin()

	err = tx.WithContext(ctx).Create(&product).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// opening stock goes through the ledger so stock stays the sum of movements
	if input.OpeningStock > 0 {
		if err := AdjustStock(tx, ctx, product.ID, input.OpeningStock, StockReferenceTypeOpeningStock, 0); err != nil {
			tx.Rollback()
			return nil, err
		}
		product.Stock = input.OpeningStock
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	// stock is absent on purpose, it only moves through the ledger
	err = tx.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":         input.Name,
		"Description":  input.Description,
		"CategoryId":   input.CategoryId,
		"Sku":          input.Sku,
		"Barcode":      input.Barcode,
		"CostPrice":    input.CostPrice,
		"SalesPrice":   input.SalesPrice,
		"ReorderLevel": input.ReorderLevel,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if len(input.Images) > 0 {
		images, err := UpsertImages(ctx, tx, input.Images, "products", id)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		product.Images = images
	}

	if err := product.RemoveInstanceRedis(); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {

	result, err := utils.FetchModel[Product](ctx, id, "Images")
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[SaleDetail](ctx, "product_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("product", "sale associated with product exists")
	}
	count, err = utils.ResourceCountWhere[PurchaseOrderDetail](ctx, "product_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("product", "purchase order associated with product exists")
	}

	db := config.GetDB()
	tx := db.Begin()

	for _, img := range result.Images {
		if err := img.Delete(tx, ctx); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// opening stock and adjustment movements go with the product
	err = tx.WithContext(ctx).Where("product_id = ?", id).Delete(&StockMovement{}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	err = tx.WithContext(ctx).Delete(&result).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := result.RemoveInstanceRedis(); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return result, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return GetResource[Product](ctx, id, "Images")
}

func GetProducts(ctx context.Context, name *string, categoryId *int) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if categoryId != nil && *categoryId > 0 {
		dbCtx = dbCtx.Where("category_id = ?", *categoryId)
	}
	err := dbCtx.Order("name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// products at or below their reorder level, lowest stock first
func GetLowStockProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product

	err := db.WithContext(ctx).
		Where("stock <= reorder_level").
		Order("stock").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveProduct(ctx context.Context, id int, isActive bool) (*Product, error) {
	return ToggleActiveModel[Product](ctx, id, isActive)
}

func PaginateProduct(ctx context.Context, limit *int, after *string,
	name *string, sku *string, categoryId *int, isActive *bool) (*ProductsConnection, error) {

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db := config.GetDB()
	dbCtx := db.WithContext(ctxWithTimeout).Model(&Product{})

	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if sku != nil && *sku != "" {
		dbCtx = dbCtx.Where("sku = ?", *sku)
	}
	if categoryId != nil && *categoryId > 0 {
		dbCtx = dbCtx.Where("category_id = ?", *categoryId)
	}
	if isActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *isActive)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Product](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var productConnection ProductsConnection
	productConnection.PageInfo = pageInfo
	for _, edge := range edges {
		productEdge := ProductsEdge(edge)
		productConnection.Edges = append(productConnection.Edges, &productEdge)
	}

	return &productConnection, nil
}

func ListAllProduct(ctx context.Context, name *string) ([]*AllProduct, error) {
	var allProducts []*AllProduct
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)

	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}

	if err := dbCtx.Model(&Product{}).
		Find(&allProducts).Error; err != nil {
		return nil, err
	}
	return allProducts, nil
}

type ExcelRow struct {
	Name         string
	Description  string
	CategoryName string
	Sku          string
	Barcode      string
	CostPrice    decimal.Decimal
	SalesPrice   decimal.Decimal
	ReorderLevel int
	OpeningStock int
}

// import sheet layout: name, description, category, sku, barcode,
// cost price, sales price, reorder level, opening stock
const importColumnCount = 9

func parseIntCell(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseDecimalCell(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	return utils.ParseDecimal(value)
}

func PopulateExcelRow(row []string) (ExcelRow, error) {
	// GetRows trims trailing empty cells
	if len(row) < importColumnCount {
		padded := make([]string, importColumnCount)
		copy(padded, row)
		row = padded
	}

	costPrice, err := parseDecimalCell(row[5])
	if err != nil {
		return ExcelRow{}, fmt.Errorf("could not parse cost price: %v", err)
	}

	salesPrice, err := parseDecimalCell(row[6])
	if err != nil {
		return ExcelRow{}, fmt.Errorf("could not parse sales price: %v", err)
	}

	reorderLevel, err := parseIntCell(row[7])
	if err != nil {
		return ExcelRow{}, fmt.Errorf("could not parse reorder level: %v", err)
	}

	openingStock, err := parseIntCell(row[8])
	if err != nil {
		return ExcelRow{}, fmt.Errorf("could not parse opening stock: %v", err)
	}

	excelRow := ExcelRow{
		Name:         strings.TrimSpace(row[0]),
		Description:  row[1],
		CategoryName: strings.TrimSpace(row[2]),
		Sku:          strings.TrimSpace(row[3]),
		Barcode:      strings.TrimSpace(row[4]),
		CostPrice:    costPrice,
		SalesPrice:   salesPrice,
		ReorderLevel: reorderLevel,
		OpeningStock: openingStock,
	}

	return excelRow, nil
}

func validateImportData(rows [][]string) error {
	for idx, row := range rows[1:] {
		excelRow, err := PopulateExcelRow(row)
		if err != nil {
			return fmt.Errorf("error in row %d: %v", idx+2, err)
		}

		if len(excelRow.Name) == 0 {
			return fmt.Errorf("product name is empty in row %d", idx+2)
		}

		if len(excelRow.CategoryName) == 0 {
			return fmt.Errorf("category name is empty in row %d", idx+2)
		}

		if excelRow.CostPrice.IsNegative() || excelRow.SalesPrice.IsNegative() {
			return fmt.Errorf("negative price in row %d", idx+2)
		}

		if excelRow.ReorderLevel < 0 || excelRow.OpeningStock < 0 {
			return fmt.Errorf("negative quantity in row %d", idx+2)
		}
	}
	return nil
}

func FindOrCreateCategory(ctx context.Context, tx *gorm.DB, categoryName string) (ProductCategory, error) {
	var category ProductCategory
	err := tx.WithContext(ctx).Where("name = ?", categoryName).First(&category).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return category, fmt.Errorf("error finding category: %v", err)
	}

	if err == gorm.ErrRecordNotFound {
		category = ProductCategory{
			Name:     categoryName,
			IsActive: utils.NewTrue(),
		}
		if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
			return category, fmt.Errorf("could not create category: %v", err)
		}
	}

	return category, nil
}

func ImportProductsFromXlsx(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", errors.New("nil file provided")
	}

	if !strings.HasSuffix(fileHeader.Filename, ".xlsx") {
		return "", fmt.Errorf("invalid file type: only .xlsx files are allowed")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("could not open uploaded file: %v", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("could not read uploaded file: %v", err)
	}

	// keep a copy of every import sheet
	objectName := "importProducts/" + utils.GenerateUniqueFilename() + ".xlsx"
	if err := utils.UploadFile(ctx, objectName, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload file to storage provider: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open Excel file: %v", err)
	}

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return "", fmt.Errorf("unable to read sheet: %v", err)
	}
	if len(rows) <= 1 {
		return "", errors.New("no data rows found")
	}

	err = validateImportData(rows)
	if err != nil {
		return "", err
	}

	lock, err := utils.ObtainLock(ctx, "Import", "products", 2*time.Minute, "product.go", "ImportProductsFromXlsx")
	if err != nil {
		return "", err
	}
	defer lock.Release(ctx)

	duplicateRows := make([]string, 0)

	db := config.GetDB()
	tx := db.Begin()

	for idx, row := range rows[1:] {

		excelRow, err := PopulateExcelRow(row)
		if err != nil {
			tx.Rollback()
			return "", err
		}

		// check for existing products by name
		var existingProduct Product
		err = tx.WithContext(ctx).Where("name = ?", excelRow.Name).First(&existingProduct).Error
		if err == nil {
			duplicateRows = append(duplicateRows, fmt.Sprintf("Row %d: Duplicate found for product with Name: %s", idx+2, excelRow.Name))
			continue
		} else if err != gorm.ErrRecordNotFound {
			tx.Rollback()
			return "", fmt.Errorf("error checking for duplicates in row %d: %v", idx+2, err)
		}

		category, err := FindOrCreateCategory(ctx, tx, excelRow.CategoryName)
		if err != nil {
			tx.Rollback()
			return "", err
		}

		product := Product{
			Name:         excelRow.Name,
			Description:  excelRow.Description,
			CategoryId:   category.ID,
			Sku:          excelRow.Sku,
			Barcode:      excelRow.Barcode,
			CostPrice:    excelRow.CostPrice,
			SalesPrice:   excelRow.SalesPrice,
			ReorderLevel: excelRow.ReorderLevel,
			IsActive:     utils.NewTrue(),
		}

		if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
			tx.Rollback()
			return "", fmt.Errorf("could not create product in row %d: %v", idx+2, err)
		}

		if excelRow.OpeningStock > 0 {
			if err := AdjustStock(tx, ctx, product.ID, excelRow.OpeningStock, StockReferenceTypeProductImport, 0); err != nil {
				tx.Rollback()
				return "", fmt.Errorf("could not record opening stock in row %d: %v", idx+2, err)
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return "", err
	}

	if len(duplicateRows) > 0 {
		return fmt.Sprintf("imported successfully with duplicates: %v", duplicateRows), nil
	}

	return "imported successfully", nil
}
