package models

import (
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// SearchPage carries one page of rows plus the unpaged match count.
type SearchPage[T any] struct {
	Rows       []*T  `json:"rows"`
	TotalCount int64 `json:"totalCount"`
	PageNumber int   `json:"pageNumber"`
	PageSize   int   `json:"pageSize"`
}

func normalizePage(pageNumber int, pageSize int) (int, int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageNumber, pageSize
}

// FetchPageOffset counts the prepared query, then pages it with LIMIT/OFFSET.
// dbCtx must already carry the model and WHERE conditions.
func FetchPageOffset[T any](dbCtx *gorm.DB, pageNumber int, pageSize int, orders ...string) (*SearchPage[T], error) {

	pageNumber, pageSize = normalizePage(pageNumber, pageSize)

	var totalCount int64
	if err := dbCtx.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	for _, order := range orders {
		dbCtx = dbCtx.Order(order)
	}

	var rows []*T
	offset := (pageNumber - 1) * pageSize
	if err := dbCtx.Offset(offset).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, err
	}

	return &SearchPage[T]{
		Rows:       rows,
		TotalCount: totalCount,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}, nil
}
