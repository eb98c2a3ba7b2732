package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractivePrompts(t *testing.T) {
	setupTestConfig(t)
	input := writeCorpus(t, "abc", "abc", "ab")

	out, err := runInteractiveCommand(t, "2\ny\ny\n", input, "--seed", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Analyzing strings...")
	assert.Contains(t, out, "Analyzed the strings!")
	assert.Contains(t, out, "Enter the number of lines you want to generate")
	assert.Contains(t, out, "Output to console? y/n")
	assert.Contains(t, out, "Output to file? y/n")

	written, err := os.ReadFile(input + ".gen")
	require.NoError(t, err)
	lines := strings.Fields(string(written))
	assert.ElementsMatch(t, []string{"abc", "ab"}, lines)
}

func TestInteractiveFlagsSkipPrompts(t *testing.T) {
	setupTestConfig(t)
	input := writeCorpus(t, "k3y1", "k3y2", "k4y3", "x3y4")
	output := filepath.Join(t.TempDir(), "out.txt")

	out, err := runInteractiveCommand(t, "", input, "-q", "--count", "5", "--print=false", "--output", output, "--strategy", "parallel")
	require.NoError(t, err)
	assert.Empty(t, out, "no prompts or report expected")

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSuffix(string(written), "\n"), "\n"), 5)
}

func TestInteractiveWriteFalseOverridesOutput(t *testing.T) {
	setupTestConfig(t)
	input := writeCorpus(t, "k3y1", "k3y2", "k4y3", "x3y4")
	output := filepath.Join(t.TempDir(), "out.txt")

	_, err := runInteractiveCommand(t, "", input, "-q", "--count", "2", "--print=false", "--write=false", "--output", output)
	require.NoError(t, err)
	assert.NoFileExists(t, output)
}

func TestInteractiveOutputImpliesWrite(t *testing.T) {
	setupTestConfig(t)
	input := writeCorpus(t, "k3y1", "k3y2", "k4y3", "x3y4")
	output := filepath.Join(t.TempDir(), "out.txt")

	out, err := runInteractiveCommand(t, "", input, "-q", "--count", "2", "--print=false", "--output", output)
	require.NoError(t, err)
	assert.NotContains(t, out, "Output to file?")
	assert.FileExists(t, output)
}

func TestGenerateRequiresCount(t *testing.T) {
	setupTestConfig(t)
	input := writeCorpus(t, "k3y1", "k3y2")

	_, err := runGenerateCommand(t, "--input", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"count"`)

	out, err := runGenerateCommand(t, "--input", input, "--count", "3", "--strategy", "parallel")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 3)
}

func TestInteractiveRejectsNonTxt(t *testing.T) {
	setupTestConfig(t)
	_, err := runInteractiveCommand(t, "", "keys.csv")
	assert.ErrorIs(t, err, profile.ErrInvalidArgument)
}

func TestInteractiveMissingInput(t *testing.T) {
	setupTestConfig(t)
	_, err := runInteractiveCommand(t, "", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, profile.ErrSourceUnreadable)
}

func TestInteractiveTooManyUniqueLines(t *testing.T) {
	setupTestConfig(t)
	input := writeCorpus(t, "abc", "abc", "ab")
	_, err := runInteractiveCommand(t, "3\n", input)
	assert.ErrorIs(t, err, profile.ErrOutcomesExhausted)
}

func TestAnalyzeInputsMergesFiles(t *testing.T) {
	setupTestConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc\nabc\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "more"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "more", "b.txt"), []byte("ab\n"), 0o644))

	p, files, err := analyzeInputs(context.Background(), []string{filepath.Join(dir, "**", "*.txt")})
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, 3, p.LineCount())
	assert.Equal(t, 2, p.Lengths.Table().Count(3))
}

func TestOutputPath(t *testing.T) {
	setupTestConfig(t)

	got, err := outputPath("explicit.out", []string{"a.txt", "b.txt"})
	require.NoError(t, err)
	assert.Equal(t, "explicit.out", got)

	got, err = outputPath("", []string{"keys.txt"})
	require.NoError(t, err)
	assert.Equal(t, "keys.txt.gen", got)

	_, err = outputPath("", []string{"a.txt", "b.txt"})
	assert.True(t, errors.Is(err, profile.ErrInvalidArgument))
}

func TestTrainAndGenerateFromStore(t *testing.T) {
	setupTestConfig(t)
	input := writeCorpus(t, "alpha", "bravo", "charlie", "delta")
	ctx := context.Background()

	err := withStore(func(store *profile.Store) error {
		return trainInputs(ctx, store, "words", []string{input})
	})
	require.NoError(t, err)

	var p *profile.Profile
	err = withStore(func(store *profile.Store) error {
		var err error
		p, err = store.LoadProfile(ctx, "words")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 4, p.LineCount())
}
