package model

import "time"

// ReportStartYear is the first reporting year kept by the ledger
const ReportStartYear = 2024

// ReportYears returns the reporting years from ReportStartYear through the
// year after now. The result is recomputed on every call.
func ReportYears(now time.Time) []int {
	last := now.Year() + 1
	if last < ReportStartYear {
		return []int{}
	}
	years := make([]int, 0, last-ReportStartYear+1)
	for y := ReportStartYear; y <= last; y++ {
		years = append(years, y)
	}
	return years
}
