// Package animation turns a start color, an end color, a duration and a
// named ease into a finite color sequence, and plays a sequence back one
// frame at a time.
package animation

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/ease"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 30

var (
	// ErrMissingEase is returned by Generate when no ease is given.
	ErrMissingEase = errors.New("ease is required")
	// ErrUnknownEase is returned by Generate for an unregistered ease name.
	ErrUnknownEase = ease.ErrUnknown
)

// Engine generates and plays color sequences at a fixed frame rate.
type Engine struct {
	mu   sync.RWMutex
	fps  int
	pace bool
}

// NewEngine returns an engine running at fps frames per second. A
// non-positive fps falls back to DefaultFPS. With pace set, Play waits one
// frame interval between frames.
func NewEngine(fps int, pace bool) *Engine {
	e := &Engine{}
	e.Configure(fps, pace)

	return e
}

// Configure changes the frame rate and pacing. Sequences already being
// played keep the interval they started with.
func (e *Engine) Configure(fps int, pace bool) {
	if fps <= 0 {
		fps = DefaultFPS
	}

	e.mu.Lock()
	e.fps = fps
	e.pace = pace
	e.mu.Unlock()
}

// FPS is the configured frame rate.
func (e *Engine) FPS() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.fps
}

// Interval is the time between two frames.
func (e *Engine) Interval() time.Duration {
	return time.Second / time.Duration(e.FPS())
}

// Generate returns the colors to show, in order, to go from start to end in
// durationMS milliseconds along the named ease.
//
// A duration too short for a single frame yields just the end color. A
// duration of exactly one frame yields the start and end colors. Otherwise
// the ease is sampled at evenly spaced points from 0 to 1 inclusive, one
// per frame.
func (e *Engine) Generate(start, end color.Color, durationMS float64, easeName *string) ([]color.Color, error) {
	if easeName == nil {
		return nil, ErrMissingEase
	}

	fn, err := ease.Lookup(*easeName)
	if err != nil {
		return nil, err
	}

	steps := Steps(e.FPS(), durationMS)

	switch {
	case steps <= 0:
		return []color.Color{end}, nil
	case steps == 1:
		return []color.Color{start, end}, nil
	}

	diff := end.Sub(start)
	seq := make([]color.Color, 0, steps)

	for _, t := range linspace(steps) {
		seq = append(seq, start.Add(diff.Scale(fn(t))))
	}

	return seq, nil
}

// Play calls apply for every color of seq in order and stops at the first
// error. Cancelling ctx stops playback between frames; a frame in flight
// always completes.
func (e *Engine) Play(ctx context.Context, seq []color.Color, apply func(color.Color) error) error {
	e.mu.RLock()
	pace, interval := e.pace, time.Second/time.Duration(e.fps)
	e.mu.RUnlock()

	var tick <-chan time.Time
	if pace && len(seq) > 1 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i, c := range seq {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := apply(c); err != nil {
			return err
		}
	}

	return nil
}

// Steps is the number of frames that fit in durationMS at fps.
func Steps(fps int, durationMS float64) int {
	steps := math.Floor(float64(fps) * durationMS / 1000)
	if math.IsNaN(steps) || steps <= 0 {
		return 0
	}

	if steps > math.MaxInt32 {
		return math.MaxInt32
	}

	return int(steps)
}

// linspace returns n evenly spaced values from 0 to 1, both ends included.
// n must be at least 2. Values are i*step rather than i/(n-1) so frames
// truncate to the same bytes as numpy.linspace.
func linspace(n int) []float64 {
	out := make([]float64, n)
	step := 1 / float64(n-1)

	for i := range out {
		out[i] = float64(i) * step
	}
	out[n-1] = 1

	return out
}
