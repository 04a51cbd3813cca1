package resample

import "time"

// The exchange runs two trading sessions per day: a day session from 08:45 to
// 13:45 and an overnight session from 15:00 wrapping past midnight to 05:00.
const (
	daySessionOpenHour    = 8
	daySessionOpenMinute  = 45
	nightSessionOpenHour  = 15
	nightSessionCloseHour = 5
)

// OvernightSessionMinutes is the number of one-minute candles in a complete
// overnight session: (05:00 - 15:00) mod 24h.
const OvernightSessionMinutes = ((24 - nightSessionOpenHour) + nightSessionCloseHour) * 60

// NightFirstCandleTime is the close time of the first overnight candle. A
// candle batch starting here marks a fresh overnight run in the store layer.
const NightFirstCandleTime = "15:01:00"

// initialAnchor returns the label of the first window to emit: one minute
// past the session's nominal open, on the first tick's date. The overnight
// session is recognized by the first tick printing in the 15:00 hour.
func initialAnchor(first time.Time) time.Time {
	if first.Hour() == nightSessionOpenHour {
		return time.Date(first.Year(), first.Month(), first.Day(),
			nightSessionOpenHour, 1, 0, 0, first.Location())
	}
	return time.Date(first.Year(), first.Month(), first.Day(),
		daySessionOpenHour, daySessionOpenMinute+1, 0, 0, first.Location())
}

// isFlushTick reports whether t is one of the exchange-reported session flush
// prints. Flush ticks always belong to the currently open window.
func isFlushTick(t time.Time) bool {
	hh, mm, ss := t.Clock()
	if ss != 0 {
		return false
	}
	return (hh == nightSessionCloseHour && mm == 0) || (hh == 13 && mm == 45)
}

// isDayOpenMarker reports whether t is exactly the day-session open. A tick
// stream carrying a second session-open print re-anchors instead of advancing
// minute by minute.
func isDayOpenMarker(t time.Time) bool {
	hh, mm, ss := t.Clock()
	return hh == daySessionOpenHour && mm == daySessionOpenMinute && ss == 0
}

func truncMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// tracker owns the single window anchor for one resampling pass. anchor is
// the Date/Time the next closed candle will carry; step is the wall-clock
// upper bound (exclusive) of the window currently accumulating.
type tracker struct {
	anchor time.Time
	step   time.Time
}

// seed initializes the tracker from the first buffered tick.
func (w *tracker) seed(t time.Time) {
	w.anchor = initialAnchor(t)
	w.step = truncMinute(t).Add(time.Minute)
}

// member reports whether a tick at t belongs to the open window.
func (w *tracker) member(t time.Time) bool {
	return t.Before(w.step) || isFlushTick(t)
}

// gap returns how many empty minutes elapsed between the closed window and
// the tick at t. No gap is reported across the overnight session end; the
// dead zone between 05:00 and the next day open is not filled.
func (w *tracker) gap(t time.Time) int {
	hh, mm, ss := w.step.Clock()
	if hh == nightSessionCloseHour && mm == 0 && ss == 0 {
		return 0
	}
	d := t.Sub(w.step)
	if d < time.Minute {
		return 0
	}
	return int(d / time.Minute)
}

// advance moves the anchor past the closed candle and any fillers, and opens
// a new window for the tick at t.
func (w *tracker) advance(t time.Time, fillers int) {
	w.anchor = w.anchor.Add(time.Duration(fillers+1) * time.Minute)
	w.step = truncMinute(t).Add(time.Minute)
}

// reanchor resets the tracker at the day-session open of t's date. Used when
// the tick that closed the previous window is itself the 08:45:00 open
// marker.
func (w *tracker) reanchor(t time.Time) {
	w.anchor = time.Date(t.Year(), t.Month(), t.Day(),
		daySessionOpenHour, daySessionOpenMinute+1, 0, 0, t.Location())
	w.step = truncMinute(t).Add(time.Minute)
}
