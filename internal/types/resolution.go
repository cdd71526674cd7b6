package types

import "time"

// Resolution is the sampling interval of a series. Values double as the
// resolution part of exported file names (e.g. EURUSD_1H.csv).
type Resolution string

const (
	ResolutionOneMinute      Resolution = "1min"
	ResolutionFiveMinutes    Resolution = "5min"
	ResolutionFifteenMinutes Resolution = "15min"
	ResolutionThirtyMinutes  Resolution = "30min"
	ResolutionOneHour        Resolution = "1H"
	ResolutionOneDay         Resolution = "1D"
)

// Resolutions lists every known resolution, finest first.
func Resolutions() []Resolution {
	return []Resolution{
		ResolutionOneMinute,
		ResolutionFiveMinutes,
		ResolutionFifteenMinutes,
		ResolutionThirtyMinutes,
		ResolutionOneHour,
		ResolutionOneDay,
	}
}

// IsKnown reports whether r is one of the enumerated resolutions.
func (r Resolution) IsKnown() bool {
	switch r {
	case ResolutionOneMinute, ResolutionFiveMinutes, ResolutionFifteenMinutes,
		ResolutionThirtyMinutes, ResolutionOneHour, ResolutionOneDay:
		return true
	default:
		return false
	}
}

// Intraday returns the fixed step of an intraday resolution. ok is false for
// daily and unrecognized resolutions, which step by calendar day.
func (r Resolution) Intraday() (step time.Duration, ok bool) {
	switch r {
	case ResolutionOneMinute:
		return time.Minute, true
	case ResolutionFiveMinutes:
		return 5 * time.Minute, true
	case ResolutionFifteenMinutes:
		return 15 * time.Minute, true
	case ResolutionThirtyMinutes:
		return 30 * time.Minute, true
	case ResolutionOneHour:
		return time.Hour, true
	default:
		return 0, false
	}
}

// Step advances t by one interval. Unrecognized resolutions are treated as daily.
func (r Resolution) Step(t time.Time) time.Time {
	if step, ok := r.Intraday(); ok {
		return t.Add(step)
	}

	return t.AddDate(0, 0, 1)
}
