package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

// default region for phone parsing, override with PHONE_REGION
func PhoneRegion() string {
	if v := strings.TrimSpace(os.Getenv("PHONE_REGION")); v != "" {
		return v
	}
	return "AE"
}

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func GetFiscalYearRange(fiscalYearStartMonth time.Month, year int) (time.Time, time.Time) {
	start := time.Date(year, fiscalYearStartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

func GetPreviousFiscalYearRange(fiscalYearStartMonth time.Month, year int) (time.Time, time.Time) {
	return GetFiscalYearRange(fiscalYearStartMonth, year-1)
}

func GetLastMonthsRange(months int) (time.Time, time.Time) {
	now := time.Now()
	start := now.AddDate(0, -months, 0)
	return start, now
}

// GetThisMonthRange returns the start and end dates of the current month.
func GetThisMonthRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetPreviousMonthRange returns the start and end dates of the previous month.
func GetPreviousMonthRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetQuarterRange returns the start and end dates for the quarter containing the specified month.
func GetQuarterRange(year int, month time.Month) (time.Time, time.Time) {
	startMonth := ((int(month)-1)/3)*3 + 1
	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetThisQuarterRange returns the start and end dates of the current quarter.
func GetThisQuarterRange() (time.Time, time.Time) {
	now := time.Now()
	return GetQuarterRange(now.Year(), now.Month())
}

// GetPreviousQuarterRange returns the start and end dates of the previous quarter.
func GetPreviousQuarterRange() (time.Time, time.Time) {
	now := time.Now()
	previousQuarterMonth := time.Month(((int(now.Month())-1)/3)*3 + 1 - 3)
	if previousQuarterMonth <= 0 {
		return GetQuarterRange(now.Year()-1, previousQuarterMonth+12)
	}
	return GetQuarterRange(now.Year(), previousQuarterMonth)
}

// to get the fiscal year start month from its short name
func GetFiscalYearStartMonth(fiscalYear string) (time.Month, error) {
	switch fiscalYear {
	case "Jan":
		return time.January, nil
	case "Feb":
		return time.February, nil
	case "Mar":
		return time.March, nil
	case "Apr":
		return time.April, nil
	case "May":
		return time.May, nil
	case "Jun":
		return time.June, nil
	case "Jul":
		return time.July, nil
	case "Aug":
		return time.August, nil
	case "Sep":
		return time.September, nil
	case "Oct":
		return time.October, nil
	case "Nov":
		return time.November, nil
	case "Dec":
		return time.December, nil
	default:
		return 0, errors.New("invalid fiscal year month")
	}
}

// get the start and end dates based on the filter type and company fiscal year
func GetStartAndEndDateWithFiscalYear(fiscalYearStartMonth time.Month, filterType string) (time.Time, time.Time, error) {
	var startDate, endDate time.Time
	currentYear := time.Now().Year()

	switch filterType {
	case "last6months":
		startDate, endDate = GetLastMonthsRange(6)
	case "last12months":
		startDate, endDate = GetLastMonthsRange(12)
	case "thisFiscalYear":
		startDate, endDate = GetFiscalYearRange(fiscalYearStartMonth, currentYear)
		if time.Now().Before(startDate) {
			startDate, endDate = GetFiscalYearRange(fiscalYearStartMonth, currentYear-1)
		}
	case "previousFiscalYear":
		startDate, endDate = GetPreviousFiscalYearRange(fiscalYearStartMonth, currentYear)
	case "thisMonth":
		startDate, endDate = GetThisMonthRange()
	case "previousMonth":
		startDate, endDate = GetPreviousMonthRange()
	case "thisQuarter":
		startDate, endDate = GetThisQuarterRange()
	case "previousQuarter":
		startDate, endDate = GetPreviousQuarterRange()
	default:
		return time.Time{}, time.Time{}, errors.New("invalid filter type")
	}

	return startDate, endDate, nil
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// return nil if boolean expression is true, else the given default
func NilOrElse[T any](b bool, elseValue T) *T {
	if b {
		return nil
	}
	return &elseValue
}

func NilIfEmpty[T comparable](ptr T) *T {
	var defaultZero T
	if ptr == defaultZero {
		return nil
	}
	return &ptr
}

func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = "Asia/Dubai"
	}

	// Load the location for the given timezone
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)

	dateOnly := time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location)
	return dateOnly, nil
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	// Remove any whitespace and check for empty strings
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	// Convert string to decimal
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// ObtainCompanyLock takes the redis mutex for a company-wide critical section.
// Caller must Release the returned lock.
func ObtainCompanyLock(ctx context.Context, companyId int, lockType string, moduleName string, functionName string) (*redislock.Lock, error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when Redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", companyId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("%s:%d", lockType, companyId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for company", companyId, err)
		return nil, errors.New("another operation is in progress for this company")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for company", companyId, err)
		return nil, err
	}
	return lock, nil
}
