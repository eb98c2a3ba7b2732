package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Analyzer streams corpus lines into a Profile.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer returns an Analyzer that discards its logs.
func NewAnalyzer() *Analyzer {
	return &Analyzer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// SetLogger sets the logger for the Analyzer. By default, all logs are discarded.
func (a *Analyzer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// Analyze consumes every line of src and returns the finalized Profile.
// A read failure is reported as ErrSourceUnreadable and no profile is returned.
func (a *Analyzer) Analyze(ctx context.Context, src LineSource) (*Profile, error) {
	p := NewProfile()
	if err := a.Feed(ctx, p, src); err != nil {
		return nil, err
	}
	if err := p.Finalize(); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "Analysis completed",
		slog.Int("lines", p.LineCount()),
		slog.Int("distinct_lengths", p.Lengths.Table().Len()),
		slog.Int("positions", p.Chars.Positions()),
	)
	return p, nil
}

// Feed streams src into an accumulating profile without finalizing it, so
// several sources can contribute to one profile.
func (a *Analyzer) Feed(ctx context.Context, p *Profile, src LineSource) error {
	var lines int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := src.NextLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
		}
		if err = p.AddLine(line); err != nil {
			return fmt.Errorf("line %d: %w", lines+1, err)
		}
		lines++
	}

	a.logger.DebugContext(ctx, "Source consumed", slog.Int64("lines_read", lines))
	return nil
}

// Analyze is shorthand for NewAnalyzer().Analyze.
func Analyze(ctx context.Context, src LineSource) (*Profile, error) {
	return NewAnalyzer().Analyze(ctx, src)
}

// AnalyzeReader analyzes the newline-delimited text read from r.
func AnalyzeReader(ctx context.Context, r io.Reader) (*Profile, error) {
	return Analyze(ctx, NewLineScanner(r))
}
