package gestation

import "time"

type Age struct {
	Weeks     int `json:"weeks"`
	Days      int `json:"days"`
	TotalDays int `json:"total_days"`
}

type Result struct {
	GestationalAge   Age `json:"gestational_age"`
	Trimester        int `json:"trimester"`
	DaysUntilDueDate int `json:"days_until_due_date"`
}

// Compute derives gestational age at asOf. Negative totals caused by a last
// period date after asOf are returned as is. Days are counted on the calendar
// of lastPeriod's location, so a DST change never loses or adds a day.
func Compute(lastPeriod, dueDate, asOf time.Time) Result {
	loc := lastPeriod.Location()
	asOf = asOf.In(loc)
	totalDays := wholeDays(lastPeriod, asOf)
	weeks := totalDays / 7
	return Result{
		GestationalAge: Age{
			Weeks:     weeks,
			Days:      totalDays % 7,
			TotalDays: totalDays,
		},
		Trimester:        Trimester(weeks),
		DaysUntilDueDate: wholeDays(asOf, dueDate.In(loc)),
	}
}

// Trimester bands are inclusive on their lower bound: week 14 is the second
// trimester and week 27 the third.
func Trimester(weeks int) int {
	switch {
	case weeks < 14:
		return 1
	case weeks < 27:
		return 2
	default:
		return 3
	}
}

// wholeDays returns the largest n with from+n calendar days not after to.
func wholeDays(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.In(from.Location()).Date()
	n := int(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC).Sub(time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)).Hours() / 24)
	for from.AddDate(0, 0, n).After(to) {
		n--
	}
	for !from.AddDate(0, 0, n+1).After(to) {
		n++
	}
	return n
}
