package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	baseAnnualDays     = 15
	monthlyPoolDays    = 11
	maxSeniorityDays   = 10
	monthsInYear       = 12
	seniorityStepYears = 2
)

// Accrual is the annual entitlement for one employee and grant year, broken
// down by grant kind. All components are zero for years before hire.
type Accrual struct {
	Base      decimal.Decimal
	Seniority decimal.Decimal
	Monthly   decimal.Decimal
}

func (a Accrual) Total() decimal.Decimal {
	return a.Base.Add(a.Seniority).Add(a.Monthly)
}

func (a Accrual) IsZero() bool {
	return a.Base.IsZero() && a.Seniority.IsZero() && a.Monthly.IsZero()
}

// CalculateEntitlement computes the annual leave entitlement for the given
// grant year from the hire date alone. Pure date math, no I/O.
//
// Service year 0 accrues one day per full calendar month remaining in the
// hire year; the hire month itself counts only for day-1 hires. Service year
// 1 receives a prorated base of (15/12) x the same remaining-month count,
// plus whatever is left of the 11-day monthly pool. From service year 2 the
// base is the full 15 days plus a seniority bonus that grows by one day every
// two years, capped at 10. Seniority is measured from January 1 of the year
// after hire, except for exact January-1 hires whose clock starts at hire.
func CalculateEntitlement(hireDate time.Time, grantYear int) Accrual {
	zero := Accrual{
		Base:      decimal.Zero,
		Seniority: decimal.Zero,
		Monthly:   decimal.Zero,
	}

	serviceYear := grantYear - hireDate.Year()
	if serviceYear < 0 {
		return zero
	}

	switch serviceYear {
	case 0:
		monthly := remainingMonths(hireDate)
		if monthly > monthlyPoolDays {
			monthly = monthlyPoolDays
		}
		zero.Monthly = decimal.NewFromInt(int64(monthly))
		return zero

	case 1:
		if isJanuaryFirst(hireDate) {
			// A January-1 hire completed a full calendar year of service,
			// so year 1 already carries the full base.
			zero.Base = decimal.NewFromInt(baseAnnualDays)
			return zero
		}

		months := remainingMonths(hireDate)
		zero.Base = decimal.NewFromInt(baseAnnualDays).
			Div(decimal.NewFromInt(monthsInYear)).
			Mul(decimal.NewFromInt(int64(months)))

		yearZero := months
		if yearZero > monthlyPoolDays {
			yearZero = monthlyPoolDays
		}
		zero.Monthly = decimal.NewFromInt(int64(monthlyPoolDays - yearZero))
		return zero

	default:
		zero.Base = decimal.NewFromInt(baseAnnualDays)
		zero.Seniority = decimal.NewFromInt(int64(seniorityDays(hireDate, grantYear)))
		return zero
	}
}

// remainingMonths counts the full calendar months between the hire date and
// the end of the hire year. The hire month counts only when hired on the 1st.
func remainingMonths(hireDate time.Time) int {
	months := monthsInYear - int(hireDate.Month())
	if hireDate.Day() == 1 {
		months++
	}
	return months
}

// seniorityDays returns the seniority bonus for the grant year: one extra day
// per two completed years past the first, measured from the normalized
// seniority start, capped at 10.
func seniorityDays(hireDate time.Time, grantYear int) int {
	startYear := hireDate.Year()
	if !isJanuaryFirst(hireDate) {
		startYear++
	}

	years := grantYear - startYear
	if years < 1 {
		return 0
	}

	days := (years - 1) / seniorityStepYears
	if days > maxSeniorityDays {
		days = maxSeniorityDays
	}
	return days
}

func isJanuaryFirst(d time.Time) bool {
	return d.Month() == time.January && d.Day() == 1
}
