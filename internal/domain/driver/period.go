package driver

import (
	"errors"
	"strings"
)

// Period is a named time window over which trip counts are aggregated.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

var ErrInvalidPeriod = errors.New("invalid trip period")

// ParsePeriod normalizes (lowercases+trims) and validates a period string.
func ParsePeriod(in string) (Period, error) {
	period := Period(strings.ToLower(strings.TrimSpace(in)))
	if period.Valid() {
		return period, nil
	}
	return "", ErrInvalidPeriod
}

// Valid reports whether the period is one of the defined period constants.
func (period Period) Valid() bool {
	switch period {
	case PeriodAll, PeriodToday, PeriodWeek, PeriodMonth:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Period.
func (period Period) String() string {
	return string(period)
}

// Periods lists the selectable periods in tab order.
func Periods() []Period {
	return []Period{PeriodAll, PeriodToday, PeriodWeek, PeriodMonth}
}
