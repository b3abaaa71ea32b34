package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCutPeriodsCalendarYear(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	periods := cutPeriods(7, 3, start, end)

	assert.Len(t, periods, 12)
	assert.Equal(t, "Jan-2026", periods[0].PeriodName)
	assert.Equal(t, "Dec-2026", periods[11].PeriodName)
	for i, p := range periods {
		assert.Equal(t, i+1, p.PeriodNumber)
		assert.Equal(t, 7, p.CompanyId)
		assert.Equal(t, 3, p.FiscalYearId)
		assert.True(t, p.IsOpen, "period %s must start open", p.PeriodName)
		assert.False(t, p.IsClosed)
		assert.True(t, p.StatusConsistent())
	}
	assert.Equal(t, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), periods[2].EndDate.Time())
}

func TestCutPeriodsPartialMonths(t *testing.T) {
	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	periods := cutPeriods(1, 1, start, end)

	assert.Len(t, periods, 3)
	assert.Equal(t, start, periods[0].StartDate.Time())
	assert.Equal(t, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), periods[0].EndDate.Time())
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), periods[1].StartDate.Time())
	assert.Equal(t, end, periods[2].EndDate.Time())
}

func TestPeriodOpenClosedExclusive(t *testing.T) {
	open := AccountingPeriod{PeriodName: "Jan-2026", IsOpen: true, IsClosed: false}
	closed := AccountingPeriod{PeriodName: "Jan-2026", IsOpen: false, IsClosed: true}
	assert.NoError(t, open.BeforeSave(nil))
	assert.NoError(t, closed.BeforeSave(nil))

	both := AccountingPeriod{PeriodName: "Jan-2026", IsOpen: true, IsClosed: true}
	neither := AccountingPeriod{PeriodName: "Jan-2026"}
	assert.Error(t, both.BeforeSave(nil))
	assert.Error(t, neither.BeforeSave(nil))
}
