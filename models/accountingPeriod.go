package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountingPeriod struct {
	ID           int        `gorm:"primary_key" json:"PeriodID"`
	CompanyId    int        `gorm:"index;not null" json:"CompanyID"`
	FiscalYearId int        `gorm:"index;not null" json:"FiscalYearID"`
	PeriodName   string     `gorm:"size:100;not null" json:"PeriodName"`
	PeriodNumber int        `gorm:"not null" json:"PeriodNumber"`
	StartDate    DateString `gorm:"type:date;not null" json:"StartDate"`
	EndDate      DateString `gorm:"type:date;not null" json:"EndDate"`
	IsOpen       bool       `gorm:"not null;default:true" json:"IsOpen"`
	IsClosed     bool       `gorm:"not null;default:false" json:"IsClosed"`
	ClosedAt     *time.Time `gorm:"default:null" json:"ClosedAt"`
	ClosedBy     string     `gorm:"size:100" json:"ClosedBy"`
	ReopenedAt   *time.Time `gorm:"default:null" json:"ReopenedAt"`
	ReopenedBy   string     `gorm:"size:100" json:"ReopenedBy"`
	ReopenReason string     `gorm:"type:text" json:"ReopenReason"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type PeriodCloseValidation struct {
	CanClose           bool     `json:"canClose"`
	ValidationMessages []string `json:"validationMessages"`
}

func (obj AccountingPeriod) GetId() int {
	return obj.ID
}

func (obj AccountingPeriod) GetCompanyId() int {
	return obj.CompanyId
}

// IsOpen and IsClosed travel together on the wire; exactly one is true on
// every stored row.
func (obj AccountingPeriod) StatusConsistent() bool {
	return obj.IsOpen != obj.IsClosed
}

func (obj *AccountingPeriod) BeforeSave(tx *gorm.DB) error {
	if !obj.StatusConsistent() {
		return fmt.Errorf("period %s cannot be both open and closed", obj.PeriodName)
	}
	return nil
}

// GenerateAccountingPeriods cuts the fiscal year into calendar-month
// periods. The first and last period may be partial months.
func GenerateAccountingPeriods(ctx context.Context, fiscalYearId int) ([]*AccountingPeriod, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	fiscalYear, err := utils.FetchModel[FiscalYear](ctx, companyId, fiscalYearId)
	if err != nil {
		return nil, errors.New("fiscal year not found")
	}

	exists, err := PeriodsExist(ctx, fiscalYearId)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("periods already generated for fiscal year " + fiscalYear.FiscalYearName)
	}

	periods := cutPeriods(companyId, fiscalYearId, fiscalYear.StartDate.Time(), fiscalYear.EndDate.Time())

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&periods).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "CREATE", fiscalYearId, "accounting_periods", nil, nil,
		fmt.Sprintf("generated %d periods for %s", len(periods), fiscalYear.FiscalYearName)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return periods, nil
}

// cutPeriods walks calendar-month boundaries from start to end. New periods
// are born open.
func cutPeriods(companyId int, fiscalYearId int, start time.Time, end time.Time) []*AccountingPeriod {

	var periods []*AccountingPeriod
	cursor := start
	number := 1
	for !cursor.After(end) {
		monthEnd := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 1, -1)
		periodEnd := monthEnd
		if periodEnd.After(end) {
			periodEnd = end
		}

		periods = append(periods, &AccountingPeriod{
			CompanyId:    companyId,
			FiscalYearId: fiscalYearId,
			PeriodName:   cursor.Format("Jan-2006"),
			PeriodNumber: number,
			StartDate:    NewDateString(cursor),
			EndDate:      NewDateString(periodEnd),
			IsOpen:       true,
			IsClosed:     false,
		})

		cursor = periodEnd.AddDate(0, 0, 1)
		number++
	}
	return periods
}

func PeriodsExist(ctx context.Context, fiscalYearId int) (bool, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return false, err
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&AccountingPeriod{}).
		Where("company_id = ? AND fiscal_year_id = ?", companyId, fiscalYearId).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func GetAccountingPeriod(ctx context.Context, id int) (*AccountingPeriod, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[AccountingPeriod](ctx, companyId, id)
}

func GetPeriodsByFiscalYear(ctx context.Context, fiscalYearId int) ([]*AccountingPeriod, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateResourceId[FiscalYear](ctx, companyId, fiscalYearId); err != nil {
		return nil, errors.New("fiscal year not found")
	}

	db := config.GetDB()
	var results []*AccountingPeriod
	err = db.WithContext(ctx).
		Where("company_id = ? AND fiscal_year_id = ?", companyId, fiscalYearId).
		Order("period_number ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetOpenPeriods(ctx context.Context) ([]*AccountingPeriod, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*AccountingPeriod
	err = db.WithContext(ctx).
		Where("company_id = ? AND is_open = ?", companyId, true).
		Order("start_date ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// findPeriodForDate returns the period covering the date, or nil when no
// period covers it.
func findPeriodForDate(ctx context.Context, companyId int, date time.Time) (*AccountingPeriod, error) {

	db := config.GetDB()
	var period AccountingPeriod
	day := date.UTC().Truncate(24 * time.Hour)
	err := db.WithContext(ctx).
		Where("company_id = ? AND start_date <= ? AND end_date >= ?", companyId, day, day).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

// ValidatePeriodClose reports whether the period can be closed. Failures
// come back as messages, not errors.
func ValidatePeriodClose(ctx context.Context, id int) (*PeriodCloseValidation, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	period, err := utils.FetchModel[AccountingPeriod](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	result := PeriodCloseValidation{ValidationMessages: []string{}}

	if period.IsClosed {
		result.ValidationMessages = append(result.ValidationMessages,
			"period "+period.PeriodName+" is already closed")
	}

	db := config.GetDB()

	// periods close oldest first
	var openEarlier []*AccountingPeriod
	if err := db.WithContext(ctx).Model(&AccountingPeriod{}).
		Where("company_id = ? AND is_open = ? AND start_date < ?", companyId, true, period.StartDate.Time()).
		Order("start_date ASC").Find(&openEarlier).Error; err != nil {
		return nil, err
	}
	for _, earlier := range openEarlier {
		result.ValidationMessages = append(result.ValidationMessages,
			"previous period "+earlier.PeriodName+" must be closed first")
	}

	// documents inside the period must be settled before closing
	start := period.StartDate.Time()
	end := period.EndDate.Time()

	var pendingReceipts int64
	if err := db.WithContext(ctx).Model(&Receipt{}).
		Where("company_id = ? AND receipt_date BETWEEN ? AND ?", companyId, start, end).
		Where("payment_status IN ?", []PaymentStatus{PaymentStatusPending, PaymentStatusDeposited, PaymentStatusPendingClearance}).
		Count(&pendingReceipts).Error; err != nil {
		return nil, err
	}
	if pendingReceipts > 0 {
		result.ValidationMessages = append(result.ValidationMessages,
			fmt.Sprintf("%d receipts in %s are awaiting settlement", pendingReceipts, period.PeriodName))
	}

	var unpostedApproved int64
	if err := db.WithContext(ctx).Model(&Receipt{}).
		Where("company_id = ? AND receipt_date BETWEEN ? AND ?", companyId, start, end).
		Where("approval_status IN ?", []ApprovalStatus{ApprovalStatusApproved, ApprovalStatusNotRequired}).
		Where("is_posted = ?", false).
		Where("payment_status NOT IN ?", []PaymentStatus{PaymentStatusCancelled, PaymentStatusReversed}).
		Count(&unpostedApproved).Error; err != nil {
		return nil, err
	}
	if unpostedApproved > 0 {
		result.ValidationMessages = append(result.ValidationMessages,
			fmt.Sprintf("%d approved receipts in %s are not posted", unpostedApproved, period.PeriodName))
	}

	var unpostedInvoices int64
	if err := db.WithContext(ctx).Model(&Invoice{}).
		Where("company_id = ? AND invoice_date BETWEEN ? AND ?", companyId, start, end).
		Where("approval_status IN ?", []ApprovalStatus{ApprovalStatusApproved, ApprovalStatusNotRequired}).
		Where("is_posted = ?", false).
		Where("invoice_status <> ?", InvoiceStatusVoid).
		Count(&unpostedInvoices).Error; err != nil {
		return nil, err
	}
	if unpostedInvoices > 0 {
		result.ValidationMessages = append(result.ValidationMessages,
			fmt.Sprintf("%d approved invoices in %s are not posted", unpostedInvoices, period.PeriodName))
	}

	result.CanClose = len(result.ValidationMessages) == 0
	return &result, nil
}

// periodCloseLockTTL bounds the redislock held across validation and the
// close transaction.
const periodCloseLockTTL = 10 * time.Second

// CloseAccountingPeriod validates and flips the period under a per-company
// redislock, then re-checks the row under FOR UPDATE so a concurrent close
// or posting cannot slip between the preflight and the write.
func CloseAccountingPeriod(ctx context.Context, id int) (*AccountingPeriod, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, fmt.Sprintf("PeriodClose:%d", companyId), periodCloseLockTTL, nil)
		if err == redislock.ErrNotObtained {
			return nil, errors.New("another period close is already in progress")
		} else if err != nil {
			return nil, err
		}
		defer lock.Release(context.Background())
	}

	// server-side re-check under the lock, the client preflight is only advisory
	validation, err := ValidatePeriodClose(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validation.CanClose {
		return nil, errors.New(validation.ValidationMessages[0])
	}

	userName, _ := utils.GetUserNameFromContext(ctx)
	now := time.Now().UTC()

	db := config.GetDB()
	tx := db.Begin()

	var period AccountingPeriod
	if err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		Take(&period).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if period.IsClosed {
		tx.Rollback()
		return nil, errors.New("period " + period.PeriodName + " is already closed")
	}

	if err := tx.WithContext(ctx).Model(&period).Updates(map[string]interface{}{
		"IsOpen":   false,
		"IsClosed": true,
		"ClosedAt": &now,
		"ClosedBy": userName,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "CLOSE", period.ID, "accounting_periods", nil, nil,
		"closed period "+period.PeriodName); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := period.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return &period, nil
}

// ReopenAccountingPeriod reverses a close. Callers must hold the admin
// role; the dispatch layer enforces that. Reopening out of order is
// refused unless the guard is configured advisory.
func ReopenAccountingPeriod(ctx context.Context, id int, reason string) (*AccountingPeriod, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		return nil, errors.New("reopen reason is required")
	}

	period, err := utils.FetchModel[AccountingPeriod](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if !period.IsClosed {
		return nil, errors.New("period " + period.PeriodName + " is not closed")
	}

	db := config.GetDB()

	// reopen newest first
	var closedLater int64
	if err := db.WithContext(ctx).Model(&AccountingPeriod{}).
		Where("company_id = ? AND is_closed = ? AND start_date > ?", companyId, true, period.StartDate.Time()).
		Count(&closedLater).Error; err != nil {
		return nil, err
	}
	if closedLater > 0 && !config.PeriodReopenGuardAdvisory() {
		return nil, errors.New("a later period is still closed, reopen that one first")
	}

	userName, _ := utils.GetUserNameFromContext(ctx)
	now := time.Now().UTC()

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&period).Updates(map[string]interface{}{
		"IsOpen":       true,
		"IsClosed":     false,
		"ReopenedAt":   &now,
		"ReopenedBy":   userName,
		"ReopenReason": reason,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "REOPEN", period.ID, "accounting_periods", nil, nil,
		"reopened period "+period.PeriodName+": "+reason); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := period.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return period, nil
}
