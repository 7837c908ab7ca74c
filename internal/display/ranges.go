package display

import (
	"strconv"
	"strings"

	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
)

// Range is a run of zone LEDs [Start, End). A reversed range is filled
// from End-1 down to Start.
type Range struct {
	Start    int
	End      int
	Reversed bool
}

// ParseRange resolves a 1-based LED expression against a zone of the
// given size: "" is the whole zone, "N" a single LED and "A-B" an
// inclusive run, descending when A > B.
func ParseRange(expr string, size int) (Range, error) {
	errFactory := errors.New()

	expr = strings.TrimSpace(expr)
	if expr == "" {
		if size < 1 {
			return Range{}, errFactory.WithMessage(errors.ErrInvalidRange, "zone has no LEDs")
		}
		return Range{Start: 0, End: size}, nil
	}

	first, last, isRun := strings.Cut(expr, "-")
	a, err := parseIndex(first)
	if err != nil {
		return Range{}, errFactory.Wrap(errors.ErrInvalidRange, err).WithData(expr)
	}
	b := a
	if isRun {
		if b, err = parseIndex(last); err != nil {
			return Range{}, errFactory.Wrap(errors.ErrInvalidRange, err).WithData(expr)
		}
	}

	r := Range{Start: a - 1, End: b}
	if a > b {
		r = Range{Start: b - 1, End: a, Reversed: true}
	}

	if r.End > size {
		return Range{}, errFactory.WithMessage(errors.ErrInvalidRange,
			"range "+strconv.Quote(expr)+" exceeds zone size "+strconv.Itoa(size))
	}

	return r, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New().WithMessage(errors.ErrInvalidRange, "LED indices start at 1")
	}
	return n, nil
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Indices lists the zone positions in fill order
func (r Range) Indices() []int {
	out := make([]int, r.Len())
	for i := range out {
		if r.Reversed {
			out[i] = r.End - 1 - i
		} else {
			out[i] = r.Start + i
		}
	}
	return out
}

// Write copies colors into buf along the range. colors must have Len()
// entries.
func (r Range) Write(buf, colors []openrgb.Color) {
	for i, idx := range r.Indices() {
		buf[idx] = colors[i]
	}
}

// Fill sets every position of the range to c
func (r Range) Fill(buf []openrgb.Color, c openrgb.Color) {
	for i := r.Start; i < r.End; i++ {
		buf[i] = c
	}
}
