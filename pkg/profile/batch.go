package profile

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ctxCheckInterval is how many draws pass between context checks.
const ctxCheckInterval = 256

// Strategy selects how a batch of lines is produced.
type Strategy int

const (
	// StrategyAuto uses StrategyUnique for counts up to the auto threshold and
	// StrategyParallel above it.
	StrategyAuto Strategy = iota
	// StrategyUnique generates on one goroutine and rejects duplicates, so
	// every returned line is distinct.
	StrategyUnique
	// StrategyParallel splits the count across workers with no deduplication
	// at all. It is much faster for large counts but may repeat lines.
	StrategyParallel
)

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyUnique:
		return "unique"
	case StrategyParallel:
		return "parallel"
	default:
		return "auto"
	}
}

// ParseStrategy converts a configuration name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return StrategyAuto, nil
	case "unique", "sequential":
		return StrategyUnique, nil
	case "parallel", "batch":
		return StrategyParallel, nil
	default:
		return StrategyAuto, fmt.Errorf("%w: unknown strategy %q", ErrInvalidArgument, name)
	}
}

// Generate produces count lines using the given strategy.
func (g *Generator) Generate(ctx context.Context, strategy Strategy, count int, opts ...GenerateOption) ([]string, error) {
	switch strategy {
	case StrategyUnique:
		return g.GenerateUnique(ctx, count, opts...)
	case StrategyParallel:
		return g.GenerateBatch(ctx, count, opts...)
	}
	options := newGenerateOptions(opts)
	if count <= options.autoThreshold {
		return g.GenerateUnique(ctx, count, opts...)
	}
	return g.GenerateBatch(ctx, count, opts...)
}

// GenerateUnique produces exactly count distinct lines on the calling
// goroutine, redrawing whenever a line was already produced.
//
// If the profile can realize fewer than count distinct lines the call fails
// up front with ErrOutcomesExhausted. Because every realizable line has a
// non-zero probability the loop otherwise terminates, though it slows down
// sharply as count approaches the realizable total. WithMaxAttempts bounds
// the number of draws for callers that need a hard limit.
func (g *Generator) GenerateUnique(ctx context.Context, count int, opts ...GenerateOption) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative, got %d", ErrInvalidArgument, count)
	}
	if count == 0 {
		return []string{}, nil
	}
	options := newGenerateOptions(opts)

	realizable := g.profile.RealizableOutcomes()
	if realizable.Cmp(big.NewInt(int64(count))) < 0 {
		return nil, fmt.Errorf("%w: requested %d lines but the profile can only produce %s", ErrOutcomesExhausted, count, realizable)
	}

	batchID := uuid.NewString()
	src := NewRandomSource(options.seed)
	seen := make(map[string]struct{}, count)
	lines := make([]string, 0, count)
	var attempts, collisions int

	for len(lines) < count {
		if attempts%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if options.maxAttempts > 0 && attempts >= options.maxAttempts {
			return nil, fmt.Errorf("%w: %d of %d lines after %d attempts", ErrOutcomesExhausted, len(lines), count, attempts)
		}
		attempts++

		line, err := g.GenerateOne(src)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[line]; dup {
			collisions++
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}

	g.logger.InfoContext(ctx, "Unique batch generated",
		slog.String("batch_id", batchID),
		slog.Int("count", count),
		slog.Int("attempts", attempts),
		slog.Int("collisions", collisions),
	)
	return lines, nil
}

// GenerateBatch produces count lines across several goroutines. The count is
// split evenly and any remainder goes to the last worker. Each worker owns an
// independently seeded source and writes only to its own part of the result.
//
// Lines are not deduplicated, neither within a worker nor across workers.
// Use GenerateUnique when distinct output is required.
func (g *Generator) GenerateBatch(ctx context.Context, count int, opts ...GenerateOption) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative, got %d", ErrInvalidArgument, count)
	}
	if count == 0 {
		return []string{}, nil
	}
	options := newGenerateOptions(opts)
	batchID := uuid.NewString()

	lines := make([]string, count)
	shares := splitShares(count, options.workers)

	eg, egCtx := errgroup.WithContext(ctx)
	start := 0
	for w, share := range shares {
		part := lines[start : start+share]
		start += share
		seed := workerSeed(options.seed, w)
		eg.Go(func() error {
			src := NewRandomSource(seed)
			for i := range part {
				if i%ctxCheckInterval == 0 {
					if err := egCtx.Err(); err != nil {
						return err
					}
				}
				line, err := g.GenerateOne(src)
				if err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}
				part[i] = line
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "Parallel batch generated",
		slog.String("batch_id", batchID),
		slog.Int("count", count),
		slog.Int("workers", len(shares)),
	)
	return lines, nil
}

// splitShares divides count over workers. Every worker gets count/workers
// lines and the last one also takes the remainder. There are never more
// workers than lines.
func splitShares(count, workers int) []int {
	if workers > count {
		workers = count
	}
	if workers < 1 {
		return nil
	}
	shares := make([]int, workers)
	for i := range shares {
		shares[i] = count / workers
	}
	shares[workers-1] += count % workers
	return shares
}
