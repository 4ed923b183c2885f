// Package controller turns animate and toggle requests into device frames.
// It validates requests, asks the animation engine for a color sequence and
// pushes each color into the DMX frame through the encoder.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RobertBroersma/dmx-hackathon/internal/animation"
	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/dmx"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

// Transmitter sends a whole frame to the device. *dmx.Encoder implements it.
type Transmitter interface {
	Transmit(frame *dmx.Frame) error
}

// Recorder receives handler metrics. *observability.ApplicationMetrics
// implements it.
type Recorder interface {
	RecordFrame(success bool, duration time.Duration)
	RecordAnimation(ease string, frames int, success bool, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordFrame(bool, time.Duration)                  {}
func (nopRecorder) RecordAnimation(string, int, bool, time.Duration) {}

// Config holds the handler settings.
type Config struct {
	// StartChannel is the DMX channel of the red component; green and blue
	// follow it.
	StartChannel int
	// ToggleColor is restored by Toggle when nothing was switched off yet.
	ToggleColor color.Color
	// MaxDuration is the longest animation Animate accepts. Zero means
	// DefaultMaxDuration.
	MaxDuration time.Duration
}

type (
	generateFunc func(start, end color.Color, durationMS float64, ease *string) ([]color.Color, error)
	playFunc     func(ctx context.Context, seq []color.Color, apply func(color.Color) error) error
)

// Handler serializes every device operation: one animation or toggle runs
// at a time.
type Handler struct {
	tx       Transmitter
	recorder Recorder
	logger   *logging.Logger
	frame    *dmx.Frame
	generate generateFunc
	play     playFunc

	// remembered is the color Toggle switched off, nil until it did.
	remembered *color.Color

	settingsMu   sync.RWMutex
	toggleColor  color.Color
	startChannel int
	maxDuration  time.Duration

	mu      sync.Mutex
	current color.Color
}

// NewHandler returns a handler writing frames through tx and animating with
// engine. The current color starts out black.
func NewHandler(cfg Config, tx Transmitter, engine *animation.Engine) *Handler {
	if cfg.StartChannel <= 0 {
		cfg.StartChannel = 1
	}

	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}

	return &Handler{
		tx:           tx,
		recorder:     nopRecorder{},
		logger:       logging.WithComponent("controller"),
		frame:        dmx.NewFrame(),
		generate:     engine.Generate,
		play:         engine.Play,
		toggleColor:  cfg.ToggleColor,
		startChannel: cfg.StartChannel,
		maxDuration:  cfg.MaxDuration,
	}
}

// SetRecorder routes frame and animation metrics to r. A nil r discards them.
func (h *Handler) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	h.recorder = r
}

// SetToggleColor changes the color Toggle falls back to.
func (h *Handler) SetToggleColor(c color.Color) {
	h.settingsMu.Lock()
	h.toggleColor = c
	h.settingsMu.Unlock()
}

// SetMaxDuration changes the longest animation Animate accepts. A
// non-positive d restores DefaultMaxDuration.
func (h *Handler) SetMaxDuration(d time.Duration) {
	if d <= 0 {
		d = DefaultMaxDuration
	}

	h.settingsMu.Lock()
	h.maxDuration = d
	h.settingsMu.Unlock()
}

// CurrentColor returns the last color an animation or toggle completed on.
func (h *Handler) CurrentColor() color.Color {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.current
}

// SetLED writes c into the frame and transmits it. It does not change the
// current color.
func (h *Handler) SetLED(c color.Color) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.setLED(c)
}

func (h *Handler) setLED(c color.Color) error {
	h.settingsMu.RLock()
	ch := h.startChannel
	h.settingsMu.RUnlock()

	if err := h.frame.SetChannels(ch, c.R, c.G, c.B); err != nil {
		return &SetLEDError{Cause: err}
	}

	began := time.Now()
	err := h.tx.Transmit(h.frame)
	h.recorder.RecordFrame(err == nil, time.Since(began))

	if err != nil {
		return &SetLEDError{Cause: err}
	}

	return nil
}

// GenerateAnimation returns the frames from start to end. Ease problems
// come back as *InvalidRequestError.
func (h *Handler) GenerateAnimation(start, end color.Color, durationMS float64, ease *string) ([]color.Color, error) {
	seq, err := h.generate(start, end, durationMS, ease)
	if err != nil {
		if errors.Is(err, ErrMissingEase) || errors.Is(err, ErrUnknownEase) {
			return nil, invalid(FieldEase, err)
		}

		return nil, err
	}

	return seq, nil
}

// Animate validates req, then fades from the current color to the requested
// one. It returns the color the device ended on. The current color is only
// updated when every frame was sent.
func (h *Handler) Animate(ctx context.Context, req Request) (color.Color, error) {
	h.settingsMu.RLock()
	maxDuration := h.maxDuration
	h.settingsMu.RUnlock()

	params, err := req.Parse(maxDuration)
	if err != nil {
		return color.Color{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	began := time.Now()

	seq, err := h.GenerateAnimation(h.current, params.Color, params.DurationMS, &params.Ease)
	if err != nil {
		return color.Color{}, err
	}

	err = h.play(ctx, seq, h.setLED)
	h.recorder.RecordAnimation(params.Ease, len(seq), err == nil, time.Since(began))

	if err != nil {
		h.logger.Warn("animation aborted",
			"target", params.Color.Hex(),
			"ease", params.Ease,
			"error", err)

		return color.Color{}, err
	}

	if len(seq) > 0 {
		h.current = seq[len(seq)-1]
	}

	h.logger.Debug("animation finished",
		"color", h.current.Hex(),
		"ease", params.Ease,
		"frames", len(seq),
		"elapsed", time.Since(began))

	return h.current, nil
}

// Toggle switches a lit fixture off, remembering its color, or turns a dark
// fixture back on to the remembered color.
func (h *Handler) Toggle(ctx context.Context) (color.Color, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return color.Color{}, err
	}

	var target color.Color

	if h.current.IsBlack() {
		target = h.restoreColor()
	} else {
		target = color.Black
	}

	if err := h.setLED(target); err != nil {
		return color.Color{}, err
	}

	if !h.current.IsBlack() {
		prev := h.current
		h.remembered = &prev
	}

	h.current = target
	h.logger.Debug("toggled", "color", target.Hex())

	return target, nil
}

func (h *Handler) restoreColor() color.Color {
	if h.remembered != nil {
		return *h.remembered
	}

	h.settingsMu.RLock()
	defer h.settingsMu.RUnlock()

	return h.toggleColor
}
