package resample

import (
	"fmt"
	"time"

	"github.com/fexlab/fexmine/models"
)

// ProgressFunc is called periodically during a resampling pass. It must not
// influence candle emission; it exists purely for observability on long bulk
// runs.
type ProgressFunc func(done, total int)

// Options tunes a resampling pass.
type Options struct {
	// Progress, when set, is invoked every ProgressEvery ticks and on the
	// final tick.
	Progress ProgressFunc
	// ProgressEvery defaults to roughly 1/32 of the stream.
	ProgressEvery int
}

// Resample reconstructs gap-filled one-minute candles from a chronological
// tick stream spanning one trading session.
//
// The first buffered tick anchors the window label one minute past the
// session's nominal open. A tick belongs to the open window while it prints
// inside the window's wall-clock minute, or when it is a session flush print
// (05:00:00, 13:45:00). A non-member tick closes the window: the candle is
// emitted carrying the anchor time, zero-volume fillers cover elapsed empty
// minutes, and the tick seeds the next window. The final tick force-closes
// whatever remains so a partial window is never dropped.
//
// Candle volume is the buffered volume sum halved, because report volumes
// count both trade legs. The division truncates; exchange sums are even.
func Resample(ticks []models.Tick, opts Options) ([]models.Candle, error) {
	if len(ticks) == 0 {
		return nil, ErrNoData
	}

	every := opts.ProgressEvery
	if every <= 0 {
		every = len(ticks) / 32
		if every == 0 {
			every = 1
		}
	}

	var (
		out  []models.Candle
		buf  []models.Tick
		w    tracker
		prev time.Time
	)

	for i, tk := range ticks {
		if opts.Progress != nil && ((i+1)%every == 0 || i == len(ticks)-1) {
			opts.Progress(i+1, len(ticks))
		}
		if !prev.IsZero() && tk.Time.Before(prev) {
			return nil, fmt.Errorf("%w: tick at %s prints before %s, stream not chronological",
				ErrMalformedTick, tk.Time.Format(tickTimestampLayout), prev.Format(tickTimestampLayout))
		}
		prev = tk.Time
		last := i == len(ticks)-1

		// Empty buffer: seed the window without emitting anything.
		if len(buf) == 0 {
			w.seed(tk.Time)
			buf = append(buf, tk)
			if last {
				out = append(out, closeCandle(buf, w.anchor))
			}
			continue
		}

		if w.member(tk.Time) {
			buf = append(buf, tk)
			if last {
				out = append(out, closeCandle(buf, w.anchor))
			}
			continue
		}

		c := closeCandle(buf, w.anchor)
		out = append(out, c)

		if isDayOpenMarker(tk.Time) {
			// Double session-open print: re-anchor at the day open
			// instead of stepping one minute.
			w.reanchor(tk.Time)
		} else {
			fillers := w.gap(tk.Time)
			for j := 1; j <= fillers; j++ {
				out = append(out, fillerCandle(c, w.anchor.Add(time.Duration(j)*time.Minute)))
			}
			w.advance(tk.Time, fillers)
		}

		buf = buf[:0]
		buf = append(buf, tk)
		if last {
			out = append(out, closeCandle(buf, w.anchor))
		}
	}
	return out, nil
}

func closeCandle(buf []models.Tick, anchor time.Time) models.Candle {
	c := models.Candle{
		Date:  anchor.Format(models.DateLayout),
		Time:  anchor.Format(models.TimeLayout),
		Open:  buf[0].Price,
		High:  buf[0].Price,
		Low:   buf[0].Price,
		Close: buf[len(buf)-1].Price,
	}
	var volume int64
	for _, tk := range buf {
		if tk.Price > c.High {
			c.High = tk.Price
		}
		if tk.Price < c.Low {
			c.Low = tk.Price
		}
		volume += tk.Volume
	}
	c.Volume = volume / 2
	return c
}

// fillerCandle carries the previous close through a minute with no trades.
func fillerCandle(prev models.Candle, at time.Time) models.Candle {
	return models.Candle{
		Date:  at.Format(models.DateLayout),
		Time:  at.Format(models.TimeLayout),
		Open:  prev.Close,
		High:  prev.Close,
		Low:   prev.Close,
		Close: prev.Close,
	}
}
