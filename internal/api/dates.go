package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseRangeDate parses the YYYY-M-D path segment form and pins the
// result to 23:59:59 of that day, so a range is inclusive of its end
// date.
func parseRangeDate(raw string) (time.Time, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-M-D", raw)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-M-D", raw)
		}
		nums[i] = n
	}

	// time.Date normalizes out-of-range components (2020-2-30 becomes
	// 2020-3-1); such input is malformed, not a later date.
	date := time.Date(nums[0], time.Month(nums[1]), nums[2], 23, 59, 59, 0, time.Local)
	if date.Year() != nums[0] || date.Month() != time.Month(nums[1]) || date.Day() != nums[2] {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-M-D", raw)
	}

	return date, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// dateRange resolves the begin/end path variables. Defaults are computed
// per request: end is today, begin is 15 days earlier.
func dateRange(vars map[string]string) (time.Time, time.Time, error) {
	now := time.Now()
	begin := endOfDay(now.AddDate(0, 0, -15))
	end := endOfDay(now)

	var err error
	if raw, ok := vars["begin"]; ok {
		if begin, err = parseRangeDate(raw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw, ok := vars["end"]; ok {
		if end, err = parseRangeDate(raw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	return begin, end, nil
}
