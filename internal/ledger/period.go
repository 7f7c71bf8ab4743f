package ledger

import (
	"fmt"
	"time"

	"kantong/internal/util"

	"gorm.io/gorm"
)

// Period names a date-range filter for history and statistics.
type Period string

const (
	PeriodToday         Period = "today"
	PeriodThisMonth     Period = "this_month"
	PeriodLastMonth     Period = "last_month"
	PeriodSpecificMonth Period = "specific_month"
	PeriodAllTime       Period = "all_time"
)

// Range is a half-open [Start, End) window. The zero Range is unbounded.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Bounded() bool {
	return !r.Start.IsZero()
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.Bounded() {
		return true
	}
	return !t.Before(r.Start) && t.Before(r.End)
}

// PeriodRange resolves a period relative to now in loc. An empty period is
// all_time. specific_month with an empty yearMonth applies no filter.
func PeriodRange(p Period, yearMonth string, now time.Time, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		return Range{Start: start, End: start.AddDate(0, 0, 1)}, nil
	case PeriodThisMonth:
		return Range{Start: monthStart, End: monthStart.AddDate(0, 1, 0)}, nil
	case PeriodLastMonth:
		return Range{Start: monthStart.AddDate(0, -1, 0), End: monthStart}, nil
	case PeriodSpecificMonth:
		if yearMonth == "" {
			return Range{}, nil
		}
		start, err := util.ParseYearMonth(yearMonth, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidMonth, yearMonth)
		}
		return Range{Start: start, End: start.AddDate(0, 1, 0)}, nil
	case PeriodAllTime, "":
		return Range{}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
}

// scope applies the range to a created_at column stored in UTC.
func (r Range) scope(db *gorm.DB) *gorm.DB {
	if !r.Bounded() {
		return db
	}
	return db.Where("created_at >= ? AND created_at < ?", r.Start.UTC(), r.End.UTC())
}
