package utils

import (
	"context"
	"errors"
	"reflect"

	"bitbucket.org/terrafocus/lease_backend/config"
)

// check if id exists, scoped to company_id, returns RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, companyId int, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, companyId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

type ValidationRule[ID comparable] struct {
	Model   interface{}
	Ids     []ID
	Message string
	Filter  Filter
}

type Filter struct {
	Cond   string
	Values []interface{}
}

func MassValidateResourceIds[ID comparable](ctx context.Context, rules []ValidationRule[ID]) error {
	db := config.GetDB()
	var count int64
	for _, rule := range rules {
		if len(rule.Ids) <= 0 {
			continue
		}

		unqIds := UniqueSlice(rule.Ids)

		err := db.WithContext(ctx).Model(&rule.Model).
			Where("id IN ?", unqIds).
			Where(rule.Filter.Cond, rule.Filter.Values...).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count != int64(len(unqIds)) {
			return errors.New(rule.Message)
		}
	}

	return nil
}

// check if ALL ids exist, scoped to company_id, returns RecordNotFound error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, companyId int, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, companyId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, companyId int, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, companyId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, companyId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE company_id = ? AND $condition
// company_id can be zero for admin user
func ResourceCountWhere[T any](ctx context.Context, companyId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
