package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"gorm.io/gorm"
)

type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	CompanyId     int       `gorm:"index;not null" json:"companyId"`
	ActionType    string    `gorm:"size:10;not null" json:"actionType"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"referenceId"`
	ReferenceType string    `gorm:"size:255" json:"referenceType"`
	UserId        int       `gorm:"index;not null" json:"userId"`
	UserName      string    `gorm:"size:100" json:"userName"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (obj History) GetId() int {
	return obj.ID
}

func createHistory(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) (err error) {

	var history History

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	// get companyId, userId, userName from context
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}
	userName, ok := utils.GetUserNameFromContext(ctx)
	if !ok {
		return errors.New("user name is required")
	}

	history.CompanyId = companyId
	history.ActionType = actionType
	history.Before = string(b)
	history.After = string(a)
	history.Description = description
	history.ReferenceID = referenceId
	history.ReferenceType = referenceType
	history.UserId = userId
	history.UserName = userName

	err = tx.Create(&history).Error
	return err
}

// SaveHistory is the explicit-table variant for callers outside this package.
func SaveHistory(tx *gorm.DB, actionType string, referenceId int, referenceType string,
	before interface{}, after interface{}, description string) error {
	return createHistory(tx, actionType, referenceId, referenceType, before, after, description)
}

func SaveHistoryCreate(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createHistory(tx, "CREATE", id, tx.Statement.Table, nil, obj, description)
}

func SaveHistoryUpdate(tx *gorm.DB, id int, currentValue interface{}, description string) error {

	var newValue = tx.Statement.Dest

	return createHistory(tx, "UPDATE", id, tx.Statement.Table, currentValue, newValue, description)
}

func SaveHistoryDelete(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createHistory(tx, "DELETE", id, tx.Statement.Table, obj, nil, description)
}

func GetHistories(ctx context.Context, referenceId *int, referenceType *string, userId *int) ([]*History, error) {

	db := config.GetDB()
	var results []*History

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}

	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if referenceId != nil && *referenceId > 0 {
		dbCtx = dbCtx.Where("reference_id = ?", referenceId)
	}
	if referenceType != nil && len(*referenceType) > 0 {
		dbCtx = dbCtx.Where("reference_type = ?", referenceType)
	}
	if userId != nil && *userId > 0 {
		dbCtx = dbCtx.Where("user_id = ?", userId)
	}
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
