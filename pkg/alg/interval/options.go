package interval

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Algorithm selects how a Tree indexes its intervals.
type Algorithm int

// Supported algorithms.
const (
	// Augmented is the sorted-array tree with subtree max ends. Lowest memory.
	Augmented Algorithm = iota
	// Centered is the centered-partition tree. Fastest queries.
	Centered
	// Linear scans every interval on each query.
	Linear
)

// ErrUnknownAlgorithm is returned by ParseAlgorithm for unrecognized names.
var ErrUnknownAlgorithm = errors.New("unknown interval algorithm")

// Algorithms lists every supported algorithm in declaration order.
func Algorithms() []Algorithm {
	return []Algorithm{Augmented, Centered, Linear}
}

// String returns the canonical algorithm name.
func (a Algorithm) String() string {
	switch a {
	case Augmented:
		return "augmented"
	case Centered:
		return "centered"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps a name to an Algorithm. It accepts the canonical
// names and the aliases "light", "quick" and "reference".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "augmented", "light":
		return Augmented, nil
	case "centered", "quick":
		return Centered, nil
	case "linear", "reference":
		return Linear, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

type options struct {
	algorithm Algorithm
	capacity  int
	logger    *slog.Logger
	tracer    trace.Tracer
	meter     metric.Meter
}

func defaultOptions() options {
	return options{
		algorithm: Augmented,
		capacity:  DefaultCapacity,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a Tree.
type Option func(*options)

// WithAlgorithm selects the build algorithm. The default is Augmented.
func WithAlgorithm(algo Algorithm) Option {
	return func(o *options) {
		o.algorithm = algo
	}
}

// WithCapacity sets the initial buffer capacity. Non-positive values keep
// DefaultCapacity.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLogger sets the logger used to report builds. Builds log at debug
// level; failed builds at error level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer records a span for every build.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithMeter records build and query instruments on the given meter.
func WithMeter(mt metric.Meter) Option {
	return func(o *options) {
		o.meter = mt
	}
}
