package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID               int       `gorm:"primary_key" json:"id"`
	Name             string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Description      string    `gorm:"size:255" json:"description"`
	ParentCategoryId int       `gorm:"index;not null" json:"parentCategoryId"`
	IsActive         *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductCategory struct {
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	ParentCategoryId int    `json:"parentCategoryId"`
}

// get ids of associated products
func (pc ProductCategory) ProductIds(ctx context.Context) (ids []int, err error) {
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Product{}).
		Where("category_id = ?", pc.ID).
		Select("id").Scan(&ids).Error
	return
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProductCategory) validate(ctx context.Context, id int) error {
	if id > 0 {
		if id == input.ParentCategoryId {
			return errors.New("self-parent not allowed")
		}
	}
	// name
	if err := utils.ValidateUnique[ProductCategory](ctx, "name", input.Name, id); err != nil {
		return err
	}
	// parent category
	if input.ParentCategoryId > 0 {
		if err := utils.ValidateResourceId[ProductCategory](ctx, input.ParentCategoryId); err != nil {
			return err
		}
	}
	return nil
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	category := ProductCategory{
		Name:             input.Name,
		Description:      input.Description,
		ParentCategoryId: input.ParentCategoryId,
		IsActive:         utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&category).Error
	if err != nil {
		return nil, err
	}

	if err := category.RemoveAllRedis(); err != nil {
		return nil, err
	}

	return &category, nil
}

func UpdateProductCategory(ctx context.Context, id int, input *NewProductCategory) (*ProductCategory, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&category).Updates(map[string]interface{}{
		"Name":             input.Name,
		"Description":      input.Description,
		"ParentCategoryId": input.ParentCategoryId,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*category); err != nil {
		return nil, err
	}
	return category, nil
}

func DeleteProductCategory(ctx context.Context, id int) (*ProductCategory, error) {

	db := config.GetDB()
	result, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}

	// don't delete if productCategory has childern
	count, err := utils.ResourceCountWhere[ProductCategory](ctx, "parent_category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("category", "category has children")
	}

	// don't delete if productCategory is used by product
	count, err = utils.ResourceCountWhere[Product](ctx, "category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("category", "used by existing products")
	}

	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}

	return result, nil
}

func GetProductCategory(ctx context.Context, id int) (*ProductCategory, error) {

	return GetResource[ProductCategory](ctx, id)
}

func GetProductCategories(ctx context.Context, name *string) ([]*ProductCategory, error) {

	db := config.GetDB()
	var results []*ProductCategory

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveProductCategory(ctx context.Context, id int, isActive bool) (*ProductCategory, error) {

	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&category).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := toggleChildrenCategories(ctx, tx, id, isActive); err != nil {
		tx.Rollback()
		return category, err
	}

	if err := RemoveRedisBoth(*category); err != nil {
		tx.Rollback()
		return nil, err
	}

	return category, tx.Commit().Error
}

// toggle children of the parent recursively, parent is assumed to have toggled
func toggleChildrenCategories(ctx context.Context, tx *gorm.DB, parentId int, isActive bool) error {
	// get children ids
	// toggle them
	// toggle children of each child
	// break when a parent has no children

	var childrenIds []int
	if err := tx.WithContext(ctx).
		Model(&ProductCategory{}).
		Where("parent_category_id = ?", parentId).
		Select("id").
		Scan(&childrenIds).Error; err != nil {
		return err
	}

	// base case
	// break when parent has no children
	if len(childrenIds) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Model(&ProductCategory{}).
		Where("id IN ?", childrenIds).UpdateColumn("is_active", isActive).Error; err != nil {
		return err
	}

	for _, childId := range childrenIds {
		// each child becomes a parent
		if err := toggleChildrenCategories(ctx, tx, childId, isActive); err != nil {
			return err
		}
	}
	return nil
}
