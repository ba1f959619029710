package leave

import (
	"context"
	"time"

	"muni-hris/internal/holiday"
	leaveerrors "muni-hris/internal/leave/errors"

	"github.com/shopspring/decimal"
)

var halfDay = decimal.NewFromFloat(0.5)

// DayCounter computes how many leave days a date range consumes, taking the
// holiday calendar into account. Weekends and holidays are skipped unless the
// calendar overrides them: a designated workday counts like any weekday, and
// a holiday flagged as deducting still consumes balance.
type DayCounter struct {
	calendar holiday.Calendar
}

func NewDayCounter(calendar holiday.Calendar) *DayCounter {
	return &DayCounter{calendar: calendar}
}

// Count returns the deductible day count for the range, inclusive on both
// ends. Half-day requests must cover a single date and always cost 0.5
// regardless of the calendar.
func (c *DayCounter) Count(
	ctx context.Context,
	start, end time.Time,
	kind string,
	departmentID *string,
) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, leaveerrors.ErrInvalidDateRange
	}

	if kind == KindHalfDay {
		if !start.Equal(end) {
			return decimal.Zero, leaveerrors.ErrHalfDayMultiDay
		}
		return halfDay, nil
	}

	overrides, err := c.calendar.DaysInRange(ctx, start, end, departmentID)
	if err != nil {
		return decimal.Zero, err
	}

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if ov, ok := overrides[d.Format("2006-01-02")]; ok {
			if ov.IsWorkday || ov.DeductsLeave {
				days++
			}
			continue
		}
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}

	return decimal.NewFromInt(int64(days)), nil
}
