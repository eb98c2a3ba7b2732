package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/CTAG07/qsa/pkg/lineio"
	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/spf13/cobra"
)

// generateFlags are shared by every command that generates lines.
type generateFlags struct {
	count    int
	strategy string
	seed     uint64
	workers  int
	output   string
	print    bool
	write    bool
	quiet    bool
}

var (
	interactiveFlags generateFlags
	generateCmdFlags generateFlags
	profileName      string
	inputPattern     string
	reportJSON       bool
)

func addGenerateFlags(cmd *cobra.Command, f *generateFlags) {
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, "Number of lines to generate")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Generation strategy: auto, unique or parallel")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Fixed random seed for reproducible output")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Worker goroutines for the parallel strategy (default: CPU count)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file for generated lines")
}

// addInteractiveFlags adds the flags that answer the interactive prompts.
func addInteractiveFlags(cmd *cobra.Command, f *generateFlags) {
	addGenerateFlags(cmd, f)
	cmd.Flags().BoolVar(&f.print, "print", false, "Print generated lines to the console")
	cmd.Flags().BoolVar(&f.write, "write", false, "Write generated lines to <input>.gen")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not print the analysis report")
}

// options resolves the strategy and generation options from config and flags.
// Flags only override config values when they were set explicitly.
func (f *generateFlags) options(cmd *cobra.Command) (profile.Strategy, []profile.GenerateOption, error) {
	name := config.Generation.Strategy
	if cmd.Flags().Changed("strategy") {
		name = f.strategy
	}
	strategy, err := profile.ParseStrategy(name)
	if err != nil {
		return strategy, nil, err
	}
	opts := config.Generation.generateOptions()
	if cmd.Flags().Changed("workers") {
		opts = append(opts, profile.WithWorkers(f.workers))
	}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, profile.WithSeed(f.seed))
	}
	return strategy, opts, nil
}

// analyzeInputs expands every pattern and feeds all matching files into one
// profile. It returns the finalized profile and the files that were read.
func analyzeInputs(ctx context.Context, patterns []string) (*profile.Profile, []string, error) {
	analyzer := profile.NewAnalyzer()
	analyzer.SetLogger(logger)
	p := profile.NewProfile()

	var files []string
	for _, pattern := range patterns {
		paths, err := lineio.Expand(pattern)
		if err != nil {
			return nil, nil, err
		}
		for _, path := range paths {
			src, err := lineio.Open(path)
			if err != nil {
				return nil, nil, err
			}
			err = analyzer.Feed(ctx, p, src)
			_ = src.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("analyzing %s: %w", path, err)
			}
			logger.Debug("Corpus file analyzed", "path", path, "lines_so_far", p.LineCount())
			files = append(files, path)
		}
	}
	if err := p.Finalize(); err != nil {
		return nil, nil, err
	}
	logger.Info("Analysis completed", "files", len(files), "lines", p.LineCount())
	return p, files, nil
}

func newGenerator(p *profile.Profile) (*profile.Generator, error) {
	gen, err := profile.NewGenerator(p)
	if err != nil {
		return nil, err
	}
	gen.SetLogger(logger)
	return gen, nil
}

// runInteractive reproduces the classic flow: analyze, report, ask for a
// count, generate, then offer console and file output.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	f := &interactiveFlags

	input := config.Generation.DefaultInput
	if len(args) == 1 {
		input = args[0]
	}

	if !f.quiet {
		_, _ = fmt.Fprintln(out, "Analyzing strings...")
	}
	p, files, err := analyzeInputs(ctx, []string{input})
	if err != nil {
		return fmt.Errorf("couldn't analyze %s: %w", input, err)
	}
	if !f.quiet {
		if err = printReport(out, p.Stats()); err != nil {
			return err
		}
	}

	prompt := newPrompter(cmd.InOrStdin(), out)
	count := f.count
	if !cmd.Flags().Changed("count") {
		if count, err = prompt.askInt("Enter the number of lines you want to generate"); err != nil {
			return err
		}
	}

	gen, err := newGenerator(p)
	if err != nil {
		return err
	}
	strategy, opts, err := f.options(cmd)
	if err != nil {
		return err
	}
	lines, err := gen.Generate(ctx, strategy, count, opts...)
	if err != nil {
		return err
	}

	echo := f.print
	if !cmd.Flags().Changed("print") {
		echo = prompt.askYesNo("Output to console?")
	}
	if echo {
		if err = lineio.WriteAll(lineio.NewWriterSink(out), lines); err != nil {
			return err
		}
	}

	// --output implies writing unless --write=false says otherwise.
	write := f.write
	if !cmd.Flags().Changed("write") {
		write = f.output != "" || prompt.askYesNo("Output to file?")
	}
	if write {
		path, err := outputPath(f.output, files)
		if err != nil {
			return err
		}
		if err = lineio.WriteAll(lineio.NewFileSink(path), lines); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		logger.Info("Generated lines written", "path", path, "lines", len(lines))
	}
	return nil
}

// outputPath returns the explicit output path, or <input>.gen when exactly
// one input file was read.
func outputPath(explicit string, files []string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if len(files) != 1 {
		return "", fmt.Errorf("%w: %d input files were read, use --output to choose the output file", profile.ErrInvalidArgument, len(files))
	}
	return lineio.OutputPath(files[0], config.Generation.OutputSuffix), nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <input.txt|pattern>...",
	Short: "Print the length and character profile of a corpus",
	Long: `Analyzes one or more corpus files and prints the profile. Patterns may use
doublestar globs, e.g. 'lists/**/*.txt'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := analyzeInputs(cmd.Context(), args)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), p.Stats(), reportJSON)
	},
}

func writeReport(w io.Writer, r *profile.Report, asJSON bool) error {
	if !asJSON {
		return printReport(w, r)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate lines from a stored profile or a corpus file",
	Long: `Generates lines without prompting. The profile comes either from the database
(--name) or from analyzing a corpus (--input). Lines go to stdout unless
--output is given.

The unique strategy guarantees distinct lines; the parallel strategy is faster
but may repeat lines. auto picks unique for small counts.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := &generateCmdFlags

	var p *profile.Profile
	switch {
	case profileName != "" && inputPattern != "":
		return fmt.Errorf("%w: use either --name or --input, not both", profile.ErrInvalidArgument)
	case profileName != "":
		err := withStore(func(store *profile.Store) error {
			var err error
			p, err = store.LoadProfile(ctx, profileName)
			return err
		})
		if err != nil {
			return err
		}
	case inputPattern != "":
		var err error
		if p, _, err = analyzeInputs(ctx, []string{inputPattern}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: one of --name or --input is required", profile.ErrInvalidArgument)
	}

	gen, err := newGenerator(p)
	if err != nil {
		return err
	}
	strategy, opts, err := f.options(cmd)
	if err != nil {
		return err
	}
	lines, err := gen.Generate(ctx, strategy, f.count, opts...)
	if err != nil {
		return err
	}

	var sink lineio.FlushSink = lineio.NewWriterSink(cmd.OutOrStdout())
	if f.output != "" {
		sink = lineio.NewFileSink(f.output)
	}
	return lineio.WriteAll(sink, lines)
}

func init() {
	analyzeCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")

	addGenerateCommandFlags(generateCmd)
}

func addGenerateCommandFlags(cmd *cobra.Command) {
	addGenerateFlags(cmd, &generateCmdFlags)
	cmd.Flags().StringVar(&profileName, "name", "", "Stored profile to generate from")
	cmd.Flags().StringVar(&inputPattern, "input", "", "Corpus file or pattern to analyze and generate from")
	_ = cmd.MarkFlagRequired("count")
}
