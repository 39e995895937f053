package consumo

import (
	"math"
	"time"

	"uteconsumo-backend/lib/scrapers/ute"
	"uteconsumo-backend/lib/timezone"
)

// Cumulative is one month-to-date counter snapshot. Pointers because a
// field can legitimately be unknown (nothing persisted yet).
type Cumulative struct {
	Peak    *float64 `json:"peak"`
	OffPeak *float64 `json:"off_peak"`
	Total   *float64 `json:"total"`
}

// State is the daily-delta tracker's persisted document. It survives
// process restarts; losing it only means the next day boundary yields no
// delta, never wrong data.
type State struct {
	// LastDate is yyyy-mm-dd in Uruguay local time.
	LastDate     string     `json:"last_date"`
	LastValues   Cumulative `json:"last_values"`
	DailyPeak    *float64   `json:"daily_peak"`
	DailyOffPeak *float64   `json:"daily_off_peak"`
	DailyTotal   *float64   `json:"daily_total"`
}

// Daily is the derived consumption since the previous calendar day.
type Daily struct {
	Peak    *float64
	OffPeak *float64
	Total   *float64
}

const stateDateLayout = "2006-01-02"

// DeriveDaily turns today's cumulative summary and yesterday's persisted
// state into today's incremental consumption, and the state to persist for
// the next cycle.
//
// Rules:
//   - first run ever, or a re-poll on the same local day: daily figures
//     carry over unchanged (the day's delta was already computed, or there
//     is nothing to diff against yet).
//   - new day: per-field delta against the stored cumulative values.
//   - a negative delta means the monthly counter reset underneath us, so
//     the raw current value is reported as the day's consumption instead.
//
// Known limitation: the negative-delta heuristic cannot tell a genuine
// month rollover from a transiently stale read on the provider's side; a
// glitch would be reported as a (wrong) daily figure once.
func DeriveDaily(now time.Time, data ute.Summary, prev State) (Daily, State) {
	today := now.In(timezone.Location).Format(stateDateLayout)

	var daily Daily

	switch {
	case prev.LastDate != "" && prev.LastDate != today:
		daily.Peak = deltaOrReset(data.PeakEnergyKwh, prev.LastValues.Peak)
		daily.OffPeak = deltaOrReset(data.OffPeakEnergyKwh, prev.LastValues.OffPeak)
		daily.Total = deltaOrReset(data.TotalEnergyKwh, prev.LastValues.Total)
	case prev.LastDate == today:
		daily.Peak = prev.DailyPeak
		daily.OffPeak = prev.DailyOffPeak
		daily.Total = prev.DailyTotal
	}

	peak, offPeak, total := data.PeakEnergyKwh, data.OffPeakEnergyKwh, data.TotalEnergyKwh
	next := State{
		LastDate: today,
		LastValues: Cumulative{
			Peak:    &peak,
			OffPeak: &offPeak,
			Total:   &total,
		},
		DailyPeak:    daily.Peak,
		DailyOffPeak: daily.OffPeak,
		DailyTotal:   daily.Total,
	}
	return daily, next
}

func deltaOrReset(current float64, previous *float64) *float64 {
	if previous == nil {
		return nil
	}
	d := math.Round((current-*previous)*100) / 100
	if d < 0 {
		d = current
	}
	return &d
}
