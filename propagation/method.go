package propagation

import (
	"errors"
	"fmt"

	"github.com/bob-anderson-ok/wavesim/spectral"
)

var (
	// ErrUnsupportedMethod is returned for an unknown propagation method or output mode.
	ErrUnsupportedMethod = errors.New("propagation: unsupported method")

	// ErrSampling is returned when the field is sampled too coarsely for exact
	// propagation (dx < wavelength/2 is required).
	ErrSampling = errors.New("propagation: sampling precondition violated")
)

// Method selects the numerical propagation algorithm.
type Method int

const (
	MethodTransfer Method = iota
	MethodTransform
	MethodExact
)

func (m Method) String() string {
	switch m {
	case MethodTransfer:
		return "transfer"
	case MethodTransform:
		return "transform"
	case MethodExact:
		return "exact"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps "transfer", "transform" or "exact" to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "transfer":
		return MethodTransfer, nil
	case "transform":
		return MethodTransform, nil
	case "exact":
		return MethodExact, nil
	default:
		return 0, fmt.Errorf("%w: method must be one of transform, transfer or exact, got %q", ErrUnsupportedMethod, s)
	}
}

// Mode controls whether the padding added for the FFT is kept in the output.
type Mode int

const (
	// ModeFull returns the padded result.
	ModeFull Mode = iota
	// ModeSame crops the result back to the input size.
	ModeSame
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSame:
		return "same"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "full" or "same" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "full":
		return ModeFull, nil
	case "same":
		return ModeSame, nil
	default:
		return 0, fmt.Errorf("%w: only \"full\" and \"same\" modes are supported, got %q", ErrUnsupportedMethod, s)
	}
}

func (m Mode) check() error {
	if m != ModeFull && m != ModeSame {
		return fmt.Errorf("%w: only full and same modes are supported, got %v", ErrUnsupportedMethod, m)
	}
	return nil
}

// Options carries execution hints shared by all methods.
type Options struct {
	// FFT selects the transform backend and the optional loop axis.
	FFT spectral.Options

	// KyKx tilts the exact propagator: the transverse spatial frequency
	// (cycles per unit length) of the propagation direction. Ignored by the
	// transfer and transform methods.
	KyKx [2]float64
}
