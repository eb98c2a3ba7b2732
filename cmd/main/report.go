package main

import (
	"fmt"
	"io"

	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/dustin/go-humanize"
)

// printReport writes the human readable analysis summary.
func printReport(w io.Writer, r *profile.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Analyzed the strings!\n")
	ew.printf("Contains %d different lengths over %d positions\n", r.DistinctLengths, len(r.Positions))
	ew.printf("From %s lines\n", humanize.Comma(int64(r.TotalLines)))

	switch len(r.Lengths) {
	case 0:
		ew.printf("No lines to determine a length from\n")
	case 1:
		ew.printf("Determined the length of a string to be %d exactly\n", r.Lengths[0].Length)
	default:
		ew.printf("Length couldn't be fully determined; but here are possible results based on likeliness\n")
		for _, l := range r.Lengths {
			ew.printf("%d: %f%%\n", l.Length, l.Occurrence*100)
		}
	}

	for _, pos := range r.Positions {
		ew.printf("Position %d: %s characters, %d unique\n", pos.Position, humanize.Comma(int64(pos.Total)), pos.Unique)
		if pos.Unique == 1 {
			ew.printf("  Determined the character to be %q exactly\n", pos.Chars[0].Char)
			continue
		}
		for _, c := range pos.Chars {
			ew.printf("  %q: %f%%\n", c.Char, c.Occurrence*100)
		}
	}

	ew.printf("Possible outcomes: %s\n", humanize.BigComma(r.Outcomes))
	ew.printf("Realizable outcomes: %s\n", humanize.BigComma(r.Realizable))
	return ew.err
}

// errWriter remembers the first write error so a report can be printed
// without checking every line.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
