package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CTAG07/qsa/pkg/profile"
)

// prompter asks the interactive questions of the root command.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askInt repeats the question until it gets a non-negative integer.
func (p *prompter) askInt(question string) (int, error) {
	for {
		_, _ = fmt.Fprintln(p.out, question)
		answer, err := p.readLine()
		if err != nil {
			return 0, fmt.Errorf("%w: no answer to %q: %w", profile.ErrInvalidArgument, question, err)
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 0 {
			return n, nil
		}
		_, _ = fmt.Fprintf(p.out, "%q is not a valid number\n", answer)
	}
}

// askYesNo returns true for "y" or "yes". Anything else, including end of
// input, is a no.
func (p *prompter) askYesNo(question string) bool {
	_, _ = fmt.Fprintf(p.out, "%s y/n\n", question)
	answer, err := p.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
