package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/CTAG07/qsa/pkg/lineio"
	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var trainName string

// withStore opens the configured database for the duration of fn.
func withStore(fn func(store *profile.Store) error) error {
	db, store, err := openStore(config.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		store.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()
	return fn(store)
}

var trainCmd = &cobra.Command{
	Use:   "train --name <profile> <input.txt|pattern>...",
	Short: "Analyze corpora and merge them into a stored profile",
	Long: `Analyzes the given corpus files and adds their counts to the named profile in
the database, creating it if needed. Training the same profile repeatedly
accumulates counts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if trainName == "" {
			return fmt.Errorf("%w: --name is required", profile.ErrInvalidArgument)
		}
		return withStore(func(store *profile.Store) error {
			return trainInputs(cmd.Context(), store, trainName, args)
		})
	},
}

// trainInputs merges every file matched by patterns into the named profile,
// one transaction per file.
func trainInputs(ctx context.Context, store *profile.Store, name string, patterns []string) error {
	for _, pattern := range patterns {
		paths, err := lineio.Expand(pattern)
		if err != nil {
			return err
		}
		for _, path := range paths {
			if err = trainFile(ctx, store, name, path); err != nil {
				return err
			}
		}
	}
	info, err := store.GetProfileInfo(ctx, name)
	if err != nil {
		return err
	}
	logger.Info("Training completed", "profile_name", name, "lines", info.Lines)
	return nil
}

func trainFile(ctx context.Context, store *profile.Store, name, path string) error {
	src, err := lineio.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	if err = store.Train(ctx, name, src); err != nil {
		return fmt.Errorf("training %s on %s: %w", name, path, err)
	}
	return nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(store *profile.Store) error {
			infos, err := store.GetProfileInfos(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tLINES")
			for _, info := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", info.Name, humanize.Comma(int64(info.Lines)))
			}
			return tw.Flush()
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <profile>",
	Short: "Delete a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *profile.Store) error {
			return store.RemoveProfile(cmd.Context(), args[0])
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <profile> <file.json|file.yaml>",
	Short: "Write a stored profile to a JSON or YAML document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := args[0], args[1]
		return withStore(func(store *profile.Store) error {
			p, err := store.LoadProfile(cmd.Context(), name)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err = profile.ExportProfile(&buf, name, p, profile.FormatFromPath(path)); err != nil {
				return err
			}
			if err = atomic.WriteFile(path, &buf); err != nil {
				return fmt.Errorf("%w: %w", profile.ErrSinkUnwritable, err)
			}
			logger.Info("Profile exported", "profile_name", name, "path", path)
			return nil
		})
	},
}

var importName string

var importCmd = &cobra.Command{
	Use:   "import <file.json|file.yaml>",
	Short: "Load a profile document into the database",
	Long: `Loads a document written by 'qsa export'. The profile keeps the name stored in
the document unless --name is given. Importing into an existing profile adds
the counts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %w", profile.ErrSourceUnreadable, err)
		}
		defer func() { _ = f.Close() }()

		name, p, err := profile.ImportProfile(f, profile.FormatFromPath(path))
		if err != nil {
			return err
		}
		if importName != "" {
			name = importName
		}
		return withStore(func(store *profile.Store) error {
			return store.SaveProfile(cmd.Context(), name, p)
		})
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainName, "name", "", "Profile to train")
	importCmd.Flags().StringVar(&importName, "name", "", "Store the profile under this name")
}
