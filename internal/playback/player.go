// Package playback replays a decoded log row by row at a chosen speed.
package playback

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

// Tick is emitted for every replayed row.
type Tick struct {
	Index   int                // Row index in Result.Rows
	Reading *flightlog.Reading // Row being replayed, must not be modified
	Delay   time.Duration      // Time waited before the row was emitted
}

// Player replays the rows of an immutable result. Concurrent runs over the
// same result are safe.
type Player struct {
	result *flightlog.Result
	clock  Clock
	logger *slog.Logger
}

func WithClock(clock Clock) func(x *Player) {
	return func(x *Player) {
		x.clock = clock
	}
}

func WithLogger(logger *slog.Logger) func(x *Player) {
	return func(x *Player) {
		x.logger = logger
	}
}

func NewPlayer(result *flightlog.Result, options ...func(x *Player)) *Player {
	p := &Player{
		result: result,
		clock:  RealClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Run emits the rows starting at index from. The gap between two row
// timestamps is divided by speed before waiting; speed <= 0 means real time.
// The returned channel is closed when the rows are exhausted or ctx is done.
func (p *Player) Run(ctx context.Context, from int, speed float64) <-chan Tick {
	if speed <= 0 {
		speed = 1
	}

	ch := make(chan Tick)
	go func() {
		defer close(ch)

		rows := p.result.Rows
		if from < 0 || from >= len(rows) {
			p.logger.Debug("nothing to replay", slog.Int("from", from), slog.Int("rows", len(rows)))
			return
		}

		logger := p.logger.With(slog.Int("from", from), slog.Float64("speed", speed))
		logger.Debug("playback started")

		for i := from; i < len(rows); i++ {
			var delay time.Duration
			if i > from {
				delay = time.Duration(float64(rows[i].Timestamp.Sub(rows[i-1].Timestamp)) / speed)
			}

			if delay > 0 {
				select {
				case <-ctx.Done():
					logger.Debug("playback cancelled", slog.Int("index", i))
					return
				case <-p.clock.After(delay):
				}
			} else {
				delay = 0
			}

			select {
			case <-ctx.Done():
				logger.Debug("playback cancelled", slog.Int("index", i))
				return
			case ch <- Tick{Index: i, Reading: &rows[i], Delay: delay}:
			}
		}

		logger.Debug("playback finished")
	}()

	return ch
}
