package usage

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source tags describe where an aggregation result came from.
const (
	// SourceSnapshots marks totals derived from device OS daily snapshots.
	SourceSnapshots = "queryUsageStats"
	// SourceSessions marks totals derived from raw usage events.
	SourceSessions = "sessions"
)

// AggregateRow is the per-app output shape of every aggregation query.
type AggregateRow struct {
	AppID        uuid.UUID `json:"app_id"`
	PackageName  string    `json:"package_name"`
	AppName      string    `json:"app_name"`
	TotalSeconds int64     `json:"total_seconds"`
	TotalMinutes float64   `json:"total_minutes"`
	Sessions     int64     `json:"sessions"`
	Source       string    `json:"source"`
}

// MinutesFromSeconds converts whole seconds into minutes rounded to two
// decimal places, the numeric contract for every minutes value the engine
// emits.
func MinutesFromSeconds(seconds int64) float64 {
	return decimal.NewFromInt(seconds).
		Div(decimal.NewFromInt(60)).
		Round(2).
		InexactFloat64()
}

// RoundMinutes rounds an already-computed minutes value to two decimals.
func RoundMinutes(minutes float64) float64 {
	return decimal.NewFromFloat(minutes).Round(2).InexactFloat64()
}

// SortRows orders rows descending by total seconds. Ties keep discovery
// order, so the sort must be stable.
func SortRows(rows []AggregateRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalSeconds > rows[j].TotalSeconds
	})
}

// SumSeconds totals the seconds across rows.
func SumSeconds(rows []AggregateRow) int64 {
	var total int64
	for _, r := range rows {
		total += r.TotalSeconds
	}
	return total
}
