package utils

import (
	"context"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
)

/* DB fetching */

// fetch model from db by primary key
// (returns NotFoundError wrapping ErrorRecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, NewNotFoundError(GetTypeName[T](), id)
	}
	return &result, nil
}

// fetch all models from db
func FetchAllModels[T any](ctx context.Context, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return results, nil
}

// read model list, redis or db, cache result
func ListModels[T any](ctx context.Context, associations ...string) ([]*T, error) {
	if config.ListCacheDisabled() {
		return FetchAllModels[T](ctx, associations...)
	}

	results, err := RetrieveRedisList[T]()
	if err != nil {
		return nil, err
	}
	// if not exists in redis
	if results == nil {
		results, err = FetchAllModels[T](ctx, associations...)
		if err != nil {
			return nil, err
		}
		// caching
		if err := StoreRedisList[T](results); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func GetPolymorphicId[T any](ctx context.Context, referenceType string, referenceId int) (int, error) {
	db := config.GetDB()
	var v T
	var id int
	err := db.WithContext(ctx).Model(&v).Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).Select("id").Scan(&id).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	return id, err
}
