package profile

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
)

// DefaultAutoThreshold is the largest count StrategyAuto generates with the
// unique strategy before switching to the parallel one.
const DefaultAutoThreshold = 10000

// generateOptions is used by the generate functions to configure default options.
type generateOptions struct {
	workers       int
	seed          uint64
	maxAttempts   int
	autoThreshold int
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in GenerateUnique, GenerateBatch and Generate.
type GenerateOption func(*generateOptions)

// WithWorkers sets the number of goroutines GenerateBatch splits work over.
// Values below one fall back to runtime.NumCPU().
func WithWorkers(n int) GenerateOption {
	return func(o *generateOptions) { o.workers = n }
}

// WithSeed fixes the base seed so a batch can be reproduced. Without it the
// seed comes from the wall clock.
func WithSeed(seed uint64) GenerateOption {
	return func(o *generateOptions) { o.seed = seed }
}

// WithMaxAttempts caps the number of draws GenerateUnique may make,
// collisions included. Zero means no cap.
func WithMaxAttempts(n int) GenerateOption {
	return func(o *generateOptions) { o.maxAttempts = n }
}

// WithAutoThreshold sets the count at or below which StrategyAuto picks the
// unique strategy.
func WithAutoThreshold(n int) GenerateOption {
	return func(o *generateOptions) { o.autoThreshold = n }
}

func newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{
		workers:       runtime.NumCPU(),
		seed:          SeedFromClock(),
		autoThreshold: DefaultAutoThreshold,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.workers < 1 {
		options.workers = runtime.NumCPU()
	}
	return options
}

// Generator synthesizes lines from a finalized Profile. It holds no mutable
// state of its own, so one Generator may serve many goroutines as long as each
// uses its own RandomSource.
type Generator struct {
	profile *Profile
	logger  *slog.Logger
}

// NewGenerator returns a Generator for p. p must already be finalized.
func NewGenerator(p *Profile) (*Generator, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil profile", ErrInvalidArgument)
	}
	if !p.Finalized() {
		return nil, ErrNotFinalized
	}
	return &Generator{
		profile: p,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Profile returns the profile the Generator draws from.
func (g *Generator) Profile() *Profile {
	return g.profile
}

// GenerateOne draws a length, then one character for every position below
// that length. Each draw consumes a fresh value from src.
func (g *Generator) GenerateOne(src RandomSource) (string, error) {
	length, err := g.profile.Lengths.SampleLength(src.Float64())
	if err != nil {
		return "", fmt.Errorf("sampling length: %w", err)
	}

	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		r, err := g.profile.Chars.SampleChar(i, src.Float64())
		if err != nil {
			return "", fmt.Errorf("sampling character %d of %d: %w", i, length, err)
		}
		builder.WriteRune(r)
	}
	return builder.String(), nil
}
