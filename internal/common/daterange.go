package common

import (
	"strings"
	"time"
)

// ISODate is the wire layout for accounting period bounds.
const ISODate = "2006-01-02"

// DateRange carries the user-selected accounting period. Dates stay ISO
// strings internally; lexicographic order matches chronological order.
type DateRange struct {
	From string `json:"fromDate"`
	To   string `json:"toDate"`
}

// ValidateDateRange checks both bounds are present, parseable ISO dates, and
// in order. The range arrives from user input and is never trusted as stored.
func ValidateDateRange(from, to string) (DateRange, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return DateRange{}, Rejection(CodeInvalidDateRange, "both fromDate and toDate are required")
	}
	if _, err := time.Parse(ISODate, from); err != nil {
		return DateRange{}, Rejection(CodeInvalidDateRange, "fromDate must be an ISO date (YYYY-MM-DD)")
	}
	if _, err := time.Parse(ISODate, to); err != nil {
		return DateRange{}, Rejection(CodeInvalidDateRange, "toDate must be an ISO date (YYYY-MM-DD)")
	}
	if from > to {
		return DateRange{}, Rejection(CodeInvalidDateRange, "fromDate cannot be after toDate")
	}
	return DateRange{From: from, To: to}, nil
}
