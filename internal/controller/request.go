package controller

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/ease"
)

// Request is a decoded animate body, as produced by encoding/json into a
// map. Expected keys are "color", "duration" (milliseconds) and "ease".
type Request map[string]any

// DefaultMaxDuration bounds an animation when no limit is configured.
const DefaultMaxDuration = 10 * time.Minute

const (
	FieldColor    = "color"
	FieldDuration = "duration"
	FieldEase     = "ease"
)

// AnimateParams is a validated Request.
type AnimateParams struct {
	Ease       string
	Color      color.Color
	DurationMS float64
}

// Parse validates r in the order color, duration, ease and stops at the
// first bad field. Durations above maxDuration are rejected; a non-positive
// maxDuration means DefaultMaxDuration.
func (r Request) Parse(maxDuration time.Duration) (AnimateParams, error) {
	var p AnimateParams

	c, err := r.parseColor()
	if err != nil {
		return p, err
	}

	d, err := r.parseDuration(maxDuration)
	if err != nil {
		return p, err
	}

	e, err := r.parseEase()
	if err != nil {
		return p, err
	}

	return AnimateParams{Color: c, DurationMS: d, Ease: e}, nil
}

func (r Request) parseColor() (color.Color, error) {
	raw, ok := r[FieldColor]
	if !ok {
		return color.Color{}, invalid(FieldColor, ErrMissingField)
	}

	s, ok := raw.(string)
	if !ok {
		return color.Color{}, invalid(FieldColor, fmt.Errorf("%w, got %T", ErrColorType, raw))
	}

	c, err := color.Parse(s)
	if err != nil {
		return color.Color{}, invalid(FieldColor, fmt.Errorf("%w: %w", ErrColorValue, err))
	}

	return c, nil
}

func (r Request) parseDuration(maxDuration time.Duration) (float64, error) {
	raw, ok := r[FieldDuration]
	if !ok {
		return 0, invalid(FieldDuration, ErrMissingField)
	}

	var d float64

	switch v := raw.(type) {
	case nil:
		return 0, invalid(FieldDuration, ErrDurationType)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, invalid(FieldDuration, fmt.Errorf("%w: %q", ErrDurationValue, v))
		}
		d = f
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, invalid(FieldDuration, fmt.Errorf("%w: %q", ErrDurationValue, v))
		}
		d = f
	case float64:
		d = v
	case float32:
		d = float64(v)
	case int:
		d = float64(v)
	case int64:
		d = float64(v)
	default:
		return 0, invalid(FieldDuration, fmt.Errorf("%w, got %T", ErrDurationValue, raw))
	}

	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, invalid(FieldDuration, fmt.Errorf("%w: %v", ErrDurationValue, d))
	}

	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}

	if limit := float64(maxDuration.Milliseconds()); d > limit {
		return 0, invalid(FieldDuration, fmt.Errorf("%w: %vms exceeds the %v limit", ErrDurationValue, d, maxDuration))
	}

	return d, nil
}

func (r Request) parseEase() (string, error) {
	raw, ok := r[FieldEase]
	if !ok {
		return "", invalid(FieldEase, ErrMissingField)
	}

	s, ok := raw.(string)
	if !ok {
		return "", invalid(FieldEase, fmt.Errorf("%w, got %T", ErrEaseType, raw))
	}

	if _, err := ease.Lookup(s); err != nil {
		return "", invalid(FieldEase, err)
	}

	return s, nil
}
