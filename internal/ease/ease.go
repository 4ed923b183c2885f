// Package ease is the registry of named tween curves. Every curve maps a
// progress value in [0,1] to an eased progress value with f(0)≈0 and f(1)≈1
// (the elastic curves land within 2^-10 of the endpoints).
// Names follow the camelCase convention the request layer exposes
// ("linear", "easeInQuad", "easeOutBounce", ...).
package ease

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknown is returned by Lookup for a name that is not registered.
var ErrUnknown = errors.New("unknown ease")

// Func is a tween curve.
type Func func(t float64) float64

const (
	backOvershoot  = 1.70158
	elasticPeriod  = 0.3
	elasticInOutP  = 0.5
	bounceDivisor  = 2.75
	bounceStrength = 7.5625
)

var registry = map[string]Func{
	"linear": Linear,

	"easeInQuad":    InQuad,
	"easeOutQuad":   OutQuad,
	"easeInOutQuad": InOutQuad,

	"easeInCubic":    InCubic,
	"easeOutCubic":   OutCubic,
	"easeInOutCubic": InOutCubic,

	"easeInQuart":    InQuart,
	"easeOutQuart":   OutQuart,
	"easeInOutQuart": InOutQuart,

	"easeInQuint":    InQuint,
	"easeOutQuint":   OutQuint,
	"easeInOutQuint": InOutQuint,

	"easeInSine":    InSine,
	"easeOutSine":   OutSine,
	"easeInOutSine": InOutSine,

	"easeInExpo":    InExpo,
	"easeOutExpo":   OutExpo,
	"easeInOutExpo": InOutExpo,

	"easeInCirc":    InCirc,
	"easeOutCirc":   OutCirc,
	"easeInOutCirc": InOutCirc,

	"easeInElastic":    InElastic,
	"easeOutElastic":   OutElastic,
	"easeInOutElastic": InOutElastic,

	"easeInBack":    InBack,
	"easeOutBack":   OutBack,
	"easeInOutBack": InOutBack,

	"easeInBounce":    InBounce,
	"easeOutBounce":   OutBounce,
	"easeInOutBounce": InOutBounce,
}

// Lookup returns the curve registered under name. Names are case sensitive.
func Lookup(name string) (Func, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}

	return f, nil
}

// Names returns every registered curve name in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Linear moves at constant speed.
func Linear(t float64) float64 { return t }

// InQuad accelerates along a quadratic curve.
func InQuad(t float64) float64 { return t * t }

// OutQuad decelerates along a quadratic curve.
func OutQuad(t float64) float64 { return -t * (t - 2) }

// InOutQuad accelerates then decelerates along a quadratic curve.
func InOutQuad(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * t * t
	}

	t--

	return -0.5 * (t*(t-2) - 1)
}

// InCubic accelerates along a cubic curve.
func InCubic(t float64) float64 { return t * t * t }

// OutCubic decelerates along a cubic curve.
func OutCubic(t float64) float64 {
	t--

	return t*t*t + 1
}

// InOutCubic accelerates then decelerates along a cubic curve.
func InOutCubic(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * t * t * t
	}

	t -= 2

	return 0.5 * (t*t*t + 2)
}

// InQuart accelerates along a quartic curve.
func InQuart(t float64) float64 { return math.Pow(t, 4) }

// OutQuart decelerates along a quartic curve.
func OutQuart(t float64) float64 {
	t--

	return -(math.Pow(t, 4) - 1)
}

// InOutQuart accelerates then decelerates along a quartic curve.
func InOutQuart(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * math.Pow(t, 4)
	}

	t -= 2

	return -0.5 * (math.Pow(t, 4) - 2)
}

// InQuint accelerates along a quintic curve.
func InQuint(t float64) float64 { return math.Pow(t, 5) }

// OutQuint decelerates along a quintic curve.
func OutQuint(t float64) float64 {
	t--

	return math.Pow(t, 5) + 1
}

// InOutQuint accelerates then decelerates along a quintic curve.
func InOutQuint(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * math.Pow(t, 5)
	}

	t -= 2

	return 0.5 * (math.Pow(t, 5) + 2)
}

// InSine accelerates along a sinusoidal curve.
func InSine(t float64) float64 { return -math.Cos(t*math.Pi/2) + 1 }

// OutSine decelerates along a sinusoidal curve.
func OutSine(t float64) float64 { return math.Sin(t * math.Pi / 2) }

// InOutSine accelerates then decelerates along a sinusoidal curve.
func InOutSine(t float64) float64 { return -0.5 * (math.Cos(math.Pi*t) - 1) }

// InExpo accelerates along an exponential curve.
func InExpo(t float64) float64 {
	if t == 0 {
		return 0
	}

	return math.Pow(2, 10*(t-1))
}

// OutExpo decelerates along an exponential curve.
func OutExpo(t float64) float64 {
	if t == 1 {
		return 1
	}

	return -math.Pow(2, -10*t) + 1
}

// InOutExpo accelerates then decelerates along an exponential curve.
func InOutExpo(t float64) float64 {
	switch t {
	case 0:
		return 0
	case 1:
		return 1
	}

	t *= 2
	if t < 1 {
		return 0.5 * math.Pow(2, 10*(t-1))
	}

	t--

	return 0.5 * (-math.Pow(2, -10*t) + 2)
}

// InCirc accelerates along a circular curve.
func InCirc(t float64) float64 { return -(math.Sqrt(1-t*t) - 1) }

// OutCirc decelerates along a circular curve.
func OutCirc(t float64) float64 {
	t--

	return math.Sqrt(1 - t*t)
}

// InOutCirc accelerates then decelerates along a circular curve.
func InOutCirc(t float64) float64 {
	t *= 2
	if t < 1 {
		return -0.5 * (math.Sqrt(1-t*t) - 1)
	}

	t -= 2

	return 0.5 * (math.Sqrt(1-t*t) + 1)
}

func outElastic(t, period float64) float64 {
	s := period / (2 * math.Pi) * math.Asin(1)

	return math.Pow(2, -10*t)*math.Sin((t-s)*(2*math.Pi/period)) + 1
}

// InElastic accelerates along an elastic curve.
func InElastic(t float64) float64 { return 1 - outElastic(1-t, elasticPeriod) }

// OutElastic decelerates along an elastic curve.
func OutElastic(t float64) float64 { return outElastic(t, elasticPeriod) }

// InOutElastic accelerates then decelerates along an elastic curve.
func InOutElastic(t float64) float64 {
	t *= 2
	if t < 1 {
		return (1 - outElastic(1-t, elasticInOutP)) / 2
	}

	return outElastic(t-1, elasticInOutP)/2 + 0.5
}

// InBack accelerates along an overshooting curve.
func InBack(t float64) float64 {
	s := backOvershoot

	return t * t * ((s+1)*t - s)
}

// OutBack decelerates along an overshooting curve.
func OutBack(t float64) float64 {
	s := backOvershoot
	t--

	return t*t*((s+1)*t+s) + 1
}

// InOutBack accelerates then decelerates along an overshooting curve.
func InOutBack(t float64) float64 {
	s := backOvershoot * 1.525
	t *= 2
	if t < 1 {
		return 0.5 * (t * t * ((s+1)*t - s))
	}

	t -= 2

	return 0.5 * (t*t*((s+1)*t+s) + 2)
}

// OutBounce decelerates along a bouncing curve.
func OutBounce(t float64) float64 {
	switch {
	case t < 1/bounceDivisor:
		return bounceStrength * t * t
	case t < 2/bounceDivisor:
		t -= 1.5 / bounceDivisor

		return bounceStrength*t*t + 0.75
	case t < 2.5/bounceDivisor:
		t -= 2.25 / bounceDivisor

		return bounceStrength*t*t + 0.9375
	default:
		t -= 2.625 / bounceDivisor

		return bounceStrength*t*t + 0.984375
	}
}

// InBounce accelerates along a bouncing curve.
func InBounce(t float64) float64 { return 1 - OutBounce(1-t) }

// InOutBounce accelerates then decelerates along a bouncing curve.
func InOutBounce(t float64) float64 {
	if t < 0.5 {
		return InBounce(t*2) * 0.5
	}

	return OutBounce(t*2-1)*0.5 + 0.5
}
