package usage

// HourBucket aggregates usage within one wall-clock hour of a day.
type HourBucket struct {
	Hour         int     `json:"hour"`
	TotalMinutes float64 `json:"total_minutes"`
	AppCount     int     `json:"app_count"`
}

// DayHourlyUsage is the 24-bucket breakdown for a single calendar day.
// Buckets are always dense: all 24 hours are present, zero-valued when
// empty.
type DayHourlyUsage struct {
	Date         string       `json:"date"`
	TotalMinutes float64      `json:"total_minutes"`
	Hours        []HourBucket `json:"hours"`
}

// PeakHour is one entry of a peak-usage profile: the average minutes spent
// in that hour across the days that had any activity in it.
type PeakHour struct {
	Hour           int     `json:"hour"`
	AverageMinutes float64 `json:"average_minutes"`
	ActiveDays     int     `json:"active_days"`
}

// NewDayHourlyUsage returns a day breakdown with all 24 buckets zeroed.
func NewDayHourlyUsage(date string) DayHourlyUsage {
	hours := make([]HourBucket, 24)
	for h := range hours {
		hours[h].Hour = h
	}
	return DayHourlyUsage{Date: date, Hours: hours}
}
