package models

import (
	"context"
	"errors"
	"strconv"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/shopspring/decimal"
)

// embedding struct will receive ID field, satisfy Identifier interface
type HasId struct {
	ID int `json:"id"`
}

func (h HasId) GetId() int {
	return h.ID
}

type Identifier interface {
	GetId() int
}

// get AllModelMap for lookups, redis or db
func MapAllModel[ModelT any, AllT Identifier](ctx context.Context) (map[int]*AllT, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}

	key := utils.GetTypeName[AllT]() + "Map:" + strconv.Itoa(companyId)

	var allMap map[int]*AllT

	// retrieve from redis
	if exists, err := config.GetRedisObject(key, &allMap); err != nil {
		return nil, err
	} else if !exists {
		// if the map has not been cached yet
		// fetch resources and construct the map, cache the result

		allMap = make(map[int]*AllT)
		var allSlice []*AllT
		db := config.GetDB()
		var m ModelT
		dbCtx := db.WithContext(ctx).Model(&m)
		dbCtx = dbCtx.Where("company_id = ?", companyId)
		if err := dbCtx.Find(&allSlice).Error; err != nil {
			return nil, err
		}

		// fill the map
		for _, allModel := range allSlice {
			allMap[(*allModel).GetId()] = allModel
		}

		if err := config.SetRedisObject(key, &allMap, utils.GetCacheLifespan()); err != nil {
			return nil, err
		}
	}

	return allMap, nil
}

/* cached lookup projections */

type AllProperty struct {
	HasId
	PropertyName string       `json:"propertyName"`
	PropertyType PropertyType `json:"propertyType"`
	City         string       `json:"city"`
	IsActive     bool         `json:"isActive"`
}

func ListAllProperties(ctx context.Context) ([]*AllProperty, error) {
	return ListAllResource[Property, AllProperty](ctx)
}

func MapAllProperties(ctx context.Context) (map[int]*AllProperty, error) {
	return MapAllModel[Property, AllProperty](ctx)
}

type AllSupplier struct {
	HasId
	SupplierName string `json:"supplierName"`
	ContactName  string `json:"contactName"`
	IsActive     bool   `json:"isActive"`
}

func ListAllSuppliers(ctx context.Context) ([]*AllSupplier, error) {
	return ListAllResource[Supplier, AllSupplier](ctx)
}

func MapAllSuppliers(ctx context.Context) (map[int]*AllSupplier, error) {
	return MapAllModel[Supplier, AllSupplier](ctx)
}

type AllCharge struct {
	HasId
	ChargeName      string          `json:"chargeName"`
	ChargeFrequency ChargeFrequency `json:"chargeFrequency"`
	DefaultAmount   decimal.Decimal `json:"defaultAmount"`
	IsTaxable       bool            `json:"isTaxable"`
	IsActive        bool            `json:"isActive"`
}

func ListAllCharges(ctx context.Context) ([]*AllCharge, error) {
	return ListAllResource[Charge, AllCharge](ctx)
}

func MapAllCharges(ctx context.Context) (map[int]*AllCharge, error) {
	return MapAllModel[Charge, AllCharge](ctx)
}

type AllDocType struct {
	HasId
	DocTypeName string `json:"docTypeName"`
	IsMandatory bool   `json:"isMandatory"`
	IsActive    bool   `json:"isActive"`
}

func ListAllDocTypes(ctx context.Context) ([]*AllDocType, error) {
	return ListAllResource[DocType, AllDocType](ctx)
}

func MapAllDocTypes(ctx context.Context) (map[int]*AllDocType, error) {
	return MapAllModel[DocType, AllDocType](ctx)
}
