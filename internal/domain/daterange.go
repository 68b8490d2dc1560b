package domain

import "time"

// Report filter errors. Both are client errors.
var (
	ErrInvalidDateRange = &Error{
		Code:    EINVALID,
		Op:      "report.date_range",
		Message: "startDate must not be after endDate",
	}

	ErrIncompleteDateRange = &Error{
		Code:    EINVALID,
		Op:      "report.date_range",
		Message: "startDate and endDate must be provided together",
	}
)

// DateRange is an optional, inclusive bound on order creation time.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// NewDateRange builds a fully bounded range.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: &start, End: &end}
}

// Unbounded reports whether neither bound is set.
func (r DateRange) Unbounded() bool {
	return r.Start == nil && r.End == nil
}

// Validate applies the report date policy: both bounds or neither, and start
// not after end. A partial range is never widened.
func (r DateRange) Validate() error {
	switch {
	case r.Start == nil && r.End == nil:
		return nil
	case r.Start == nil || r.End == nil:
		return ErrIncompleteDateRange
	case r.Start.After(*r.End):
		return ErrInvalidDateRange
	}
	return nil
}

// Contains reports whether t falls within the range, bounds included. An
// unbounded range contains every instant.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}
