package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertBroersma/dmx-hackathon/internal/animation"
	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/dmx"
	"github.com/RobertBroersma/dmx-hackathon/internal/transport"
)

var (
	startColor = color.New(201, 117, 128)
	finalColor = color.New(193, 109, 120)

	defaultAnimation = []color.Color{
		color.New(201, 117, 128), color.New(200, 116, 127),
		color.New(199, 115, 126), color.New(198, 114, 125),
		color.New(197, 113, 124), color.New(196, 112, 123),
		color.New(195, 111, 122), color.New(194, 110, 121),
		color.New(193, 109, 120),
	}
)

const defaultDuration = 300

func defaultAnimateRequest() Request {
	return Request{"color": "#C9751C", "duration": "15", "ease": "linear"}
}

// fakeTransmitter records every frame it is asked to send.
type fakeTransmitter struct {
	err    error
	frames [][dmx.UniverseSize]byte
}

func (f *fakeTransmitter) Transmit(frame *dmx.Frame) error {
	if f.err != nil {
		return f.err
	}

	f.frames = append(f.frames, frame.Snapshot())

	return nil
}

type fakeRecorder struct {
	frames     int
	animations int
	lastOK     bool
}

func (r *fakeRecorder) RecordFrame(bool, time.Duration) { r.frames++ }
func (r *fakeRecorder) RecordAnimation(_ string, _ int, ok bool, _ time.Duration) {
	r.animations++
	r.lastOK = ok
}

func getHandler() (*Handler, *fakeTransmitter) {
	tx := &fakeTransmitter{}
	h := NewHandler(Config{StartChannel: 1, ToggleColor: color.White}, tx, animation.NewEngine(30, false))

	return h, tx
}

func strPtr(s string) *string { return &s }

func TestGenerateAnimationSameColors(t *testing.T) {
	h, _ := getHandler()

	seq, err := h.GenerateAnimation(startColor, startColor, defaultDuration, strPtr("linear"))
	require.NoError(t, err)

	for _, c := range seq {
		assert.Equal(t, seq[0], c)
	}
}

func TestGenerateAnimationCorrectAnimation(t *testing.T) {
	h, _ := getHandler()

	seq, err := h.GenerateAnimation(startColor, finalColor, defaultDuration, strPtr("linear"))
	require.NoError(t, err)
	assert.Equal(t, defaultAnimation, seq)
}

func TestGenerateAnimationDifferentEase(t *testing.T) {
	h, _ := getHandler()

	seq, err := h.GenerateAnimation(startColor, finalColor, defaultDuration, strPtr("easeInQuad"))
	require.NoError(t, err)
	assert.Len(t, seq, len(defaultAnimation))
	assert.NotEqual(t, defaultAnimation, seq)
	assert.Equal(t, startColor, seq[0])
	assert.Equal(t, finalColor, seq[len(seq)-1])
}

func TestGenerateAnimationShortDurations(t *testing.T) {
	h, _ := getHandler()

	seq, err := h.GenerateAnimation(startColor, finalColor, 800.0/30, strPtr("linear"))
	require.NoError(t, err)
	assert.Equal(t, []color.Color{finalColor}, seq)

	seq, err = h.GenerateAnimation(startColor, finalColor, 1000.0/30, strPtr("linear"))
	require.NoError(t, err)
	assert.Equal(t, []color.Color{startColor, finalColor}, seq)
}

func TestGenerateAnimationEaseErrors(t *testing.T) {
	h, _ := getHandler()

	tests := []struct {
		ease *string
		want error
		name string
	}{
		{name: "no ease", ease: nil, want: ErrMissingEase},
		{name: "wrong ease", ease: strPtr("superQuadraticLogarithmic"), want: ErrUnknownEase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.GenerateAnimation(startColor, finalColor, defaultDuration, tt.ease)

			var invalidErr *InvalidRequestError
			require.ErrorAs(t, err, &invalidErr)
			assert.Equal(t, FieldEase, invalidErr.Field)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetLED(t *testing.T) {
	h, tx := getHandler()

	require.NoError(t, h.SetLED(startColor))
	require.Len(t, tx.frames, 1)
	assert.Equal(t, []byte{201, 117, 128, 0}, tx.frames[0][:4])
	assert.Equal(t, color.Black, h.CurrentColor(), "SetLED alone must not move the current color")
}

func TestSetLEDStartChannel(t *testing.T) {
	tx := &fakeTransmitter{}
	h := NewHandler(Config{StartChannel: 10}, tx, animation.NewEngine(30, false))

	require.NoError(t, h.SetLED(color.New(1, 2, 3)))
	assert.Equal(t, []byte{0, 1, 2, 3, 0}, tx.frames[0][8:13])
}

func TestSetLEDRaisesCorrectError(t *testing.T) {
	h, tx := getHandler()
	errDevice := errors.New("foo")
	tx.err = errDevice

	err := h.SetLED(startColor)

	var setErr *SetLEDError
	require.ErrorAs(t, err, &setErr)
	assert.ErrorIs(t, err, errDevice)
}

func TestAnimateCorrectRequest(t *testing.T) {
	h, tx := getHandler()

	got, err := h.Animate(context.Background(), defaultAnimateRequest())
	require.NoError(t, err)

	want := color.MustParse("#C9751C")
	assert.Equal(t, want, got)
	assert.Equal(t, want, h.CurrentColor())
	assert.Len(t, tx.frames, 1, "15ms is shorter than one frame")
}

func TestAnimateInvalidRequests(t *testing.T) {
	tests := []struct {
		req   Request
		want  error
		name  string
		field string
	}{
		{
			name: "wrong color", field: FieldColor, want: ErrColorValue,
			req: Request{"color": "wrong", "duration": "15", "ease": "linear"},
		},
		{
			name: "wrong color hex", field: FieldColor, want: ErrColorValue,
			req: Request{"color": "#C9751G", "duration": "15", "ease": "linear"},
		},
		{
			name: "wrong color type", field: FieldColor, want: ErrColorType,
			req: Request{"color": map[string]any{"r": "14", "g": "23", "b": "69"}, "duration": "15", "ease": "linear"},
		},
		{
			name: "color none", field: FieldColor, want: ErrColorType,
			req: Request{"color": nil, "duration": "15", "ease": "linear"},
		},
		{
			name: "color missing", field: FieldColor, want: ErrMissingField,
			req: Request{"duration": "15", "ease": "linear"},
		},
		{
			name: "duration empty", field: FieldDuration, want: ErrDurationValue,
			req: Request{"color": "#C9751C", "duration": "", "ease": "linear"},
		},
		{
			name: "duration none", field: FieldDuration, want: ErrDurationType,
			req: Request{"color": "#C9751C", "duration": nil, "ease": "linear"},
		},
		{
			name: "duration text", field: FieldDuration, want: ErrDurationValue,
			req: Request{"color": "#C9751C", "duration": "string", "ease": "linear"},
		},
		{
			name: "duration negative", field: FieldDuration, want: ErrDurationValue,
			req: Request{"color": "#C9751C", "duration": -5.0, "ease": "linear"},
		},
		{
			name: "duration bool", field: FieldDuration, want: ErrDurationValue,
			req: Request{"color": "#C9751C", "duration": true, "ease": "linear"},
		},
		{
			name: "duration huge", field: FieldDuration, want: ErrDurationValue,
			req: Request{"color": "#C9751C", "duration": "1e12", "ease": "linear"},
		},
		{
			name: "duration just above default limit", field: FieldDuration, want: ErrDurationValue,
			req: Request{"color": "#C9751C", "duration": 600001.0, "ease": "linear"},
		},
		{
			name: "duration checked before ease", field: FieldDuration, want: ErrDurationValue,
			req: Request{"color": "#C9751C", "duration": "1e12", "ease": "nope"},
		},
		{
			name: "duration missing", field: FieldDuration, want: ErrMissingField,
			req: Request{"color": "#C9751C", "ease": "linear"},
		},
		{
			name: "ease empty", field: FieldEase, want: ErrUnknownEase,
			req: Request{"color": "#C9751C", "duration": "15", "ease": ""},
		},
		{
			name: "ease none", field: FieldEase, want: ErrEaseType,
			req: Request{"color": "#C9751C", "duration": "15", "ease": nil},
		},
		{
			name: "ease number", field: FieldEase, want: ErrEaseType,
			req: Request{"color": "#C9751C", "duration": "15", "ease": 3.0},
		},
		{
			name: "ease missing", field: FieldEase, want: ErrMissingField,
			req: Request{"color": "#C9751C", "duration": "15"},
		},
		{
			name: "ease text", field: FieldEase, want: ErrUnknownEase,
			req: Request{"color": "#C9751C", "duration": "15", "ease": "quadraticallyCrazy"},
		},
		{
			name: "color checked before duration", field: FieldColor, want: ErrColorValue,
			req: Request{"color": "bad", "duration": nil, "ease": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, tx := getHandler()

			_, err := h.Animate(context.Background(), tt.req)

			var invalidErr *InvalidRequestError
			require.ErrorAs(t, err, &invalidErr)
			assert.Equal(t, tt.field, invalidErr.Field)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, tx.frames, "validation must finish before any device I/O")
			assert.Equal(t, color.Black, h.CurrentColor())
		})
	}
}

func TestAnimateMaxDuration(t *testing.T) {
	tx := &fakeTransmitter{}
	h := NewHandler(Config{MaxDuration: time.Second}, tx, animation.NewEngine(30, false))

	_, err := h.Animate(context.Background(), Request{"color": "#FF0000", "duration": 1001.0, "ease": "linear"})
	require.ErrorIs(t, err, ErrDurationValue)
	assert.Empty(t, tx.frames)

	got, err := h.Animate(context.Background(), Request{"color": "#FF0000", "duration": 1000.0, "ease": "linear"})
	require.NoError(t, err)
	assert.Equal(t, color.New(255, 0, 0), got)

	h.SetMaxDuration(2 * time.Second)
	_, err = h.Animate(context.Background(), Request{"color": "#00FF00", "duration": "1500", "ease": "linear"})
	assert.NoError(t, err)

	h.SetMaxDuration(0)
	_, err = h.Animate(context.Background(), Request{"color": "#0000FF", "duration": DefaultMaxDuration.Milliseconds() + 1, "ease": "linear"})
	assert.ErrorIs(t, err, ErrDurationValue)
}

func TestAnimateAcceptsNumbers(t *testing.T) {
	h, _ := getHandler()

	for _, d := range []any{15.0, 15, int64(15), "  15  ", "0"} {
		_, err := h.Animate(context.Background(), Request{"color": "#000001", "duration": d, "ease": "linear"})
		assert.NoError(t, err, "duration %#v", d)
	}
}

func TestAnimateCallsGenerateThenPlay(t *testing.T) {
	h, _ := getHandler()

	var calls []string

	h.generate = func(start, end color.Color, durationMS float64, ease *string) ([]color.Color, error) {
		calls = append(calls, "generate")

		assert.Equal(t, color.Black, start)
		assert.Equal(t, color.MustParse("#C9751C"), end)
		assert.Equal(t, 15.0, durationMS)
		require.NotNil(t, ease)
		assert.Equal(t, "linear", *ease)

		return defaultAnimation, nil
	}
	h.play = func(_ context.Context, seq []color.Color, _ func(color.Color) error) error {
		calls = append(calls, "play")

		assert.Equal(t, defaultAnimation, seq)

		return nil
	}

	got, err := h.Animate(context.Background(), defaultAnimateRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"generate", "play"}, calls)
	assert.Equal(t, defaultAnimation[len(defaultAnimation)-1], got)
	assert.Equal(t, defaultAnimation[len(defaultAnimation)-1], h.CurrentColor())
}

func TestPlayCallsSetLEDPerFrame(t *testing.T) {
	h, tx := getHandler()
	h.generate = func(color.Color, color.Color, float64, *string) ([]color.Color, error) {
		return defaultAnimation, nil
	}

	_, err := h.Animate(context.Background(), defaultAnimateRequest())
	require.NoError(t, err)

	require.Len(t, tx.frames, len(defaultAnimation))

	for i, c := range defaultAnimation {
		assert.Equal(t, []byte{c.R, c.G, c.B}, tx.frames[i][:3], "frame %d", i)
	}
}

func TestAnimateSetLEDFailureKeepsColor(t *testing.T) {
	h, tx := getHandler()
	tx.err = errors.New("usb stall")

	rec := &fakeRecorder{}
	h.SetRecorder(rec)

	_, err := h.Animate(context.Background(), Request{"color": "#FF0000", "duration": 300.0, "ease": "linear"})

	var setErr *SetLEDError
	require.ErrorAs(t, err, &setErr)
	assert.Equal(t, color.Black, h.CurrentColor())
	assert.Equal(t, 1, rec.animations)
	assert.False(t, rec.lastOK)
	assert.Equal(t, 1, rec.frames)
}

func TestAnimateCancelled(t *testing.T) {
	tx := &fakeTransmitter{}
	h := NewHandler(Config{}, tx, animation.NewEngine(30, true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Animate(ctx, Request{"color": "#FF0000", "duration": 1000.0, "ease": "linear"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, color.Black, h.CurrentColor())
}

func TestToggleSetLEDCalledOnce(t *testing.T) {
	h, tx := getHandler()

	_, err := h.Toggle(context.Background())
	require.NoError(t, err)
	assert.Len(t, tx.frames, 1)
}

func TestToggleAlternates(t *testing.T) {
	h, tx := getHandler()

	got, err := h.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, color.White, got, "dark fixture turns on to the toggle color")

	_, err = h.Animate(context.Background(), Request{"color": "#102030", "duration": 0.0, "ease": "linear"})
	require.NoError(t, err)

	got, err = h.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, color.Black, got)

	got, err = h.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, color.MustParse("#102030"), got, "remembered color comes back")
	assert.Equal(t, got, h.CurrentColor())

	assert.Len(t, tx.frames, 4)
}

func TestToggleColorUpdate(t *testing.T) {
	h, _ := getHandler()
	h.SetToggleColor(color.MustParse("#00FF00"))

	got, err := h.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, color.MustParse("#00FF00"), got)
}

func TestToggleFailureKeepsState(t *testing.T) {
	h, tx := getHandler()
	tx.err = errors.New("unplugged")

	_, err := h.Toggle(context.Background())

	var setErr *SetLEDError
	require.ErrorAs(t, err, &setErr)
	assert.Equal(t, color.Black, h.CurrentColor())
}

func TestHandlerWithSimulator(t *testing.T) {
	sim := transport.NewSimulator()
	h := NewHandler(Config{StartChannel: 1}, dmx.NewEncoder(sim), animation.NewEngine(30, false))

	_, err := h.Animate(context.Background(), Request{"color": "#C16D78", "duration": 300.0, "ease": "easeOutCubic"})
	require.NoError(t, err)

	channels := sim.Channels()
	assert.Equal(t, []byte{193, 109, 120}, channels[:3])

	_, frames := sim.Stats()
	assert.Equal(t, 9, frames)
}
