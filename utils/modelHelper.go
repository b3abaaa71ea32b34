package utils

import (
	"context"

	"bitbucket.org/terrafocus/lease_backend/config"
	"gorm.io/gorm"
)

type ModelChangeLocker interface {
	CheckPeriodLock(context.Context) error
}

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchSingleModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch model from db
// (company_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, companyId int, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch model and refuse the change when its document date falls in a closed period
func FetchModelForChange[T ModelChangeLocker](ctx context.Context, companyId int, id int, associations ...string) (*T, error) {
	result, err := FetchModel[T](ctx, companyId, id, associations...)
	if err != nil {
		return nil, err
	}
	if err := (*result).CheckPeriodLock(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// fetch all models from db
// (company_id is used in query's WHERE)
func FetchAllModels[T any](ctx context.Context, companyId int, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
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
