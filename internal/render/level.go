// Package render decides the render pass and sort policy of geometry spans.
package render

import (
	"errors"
	"fmt"
)

// Classification errors. All are fatal for the whole export.
var (
	ErrLevelOverflow   = errors.New("render level minor offset overflow")
	ErrDependencyDepth = errors.New("draw-after dependency chain too deep (cycle?)")
	ErrNegativePass    = errors.New("negative pass index")
	ErrInvalidBand     = errors.New("invalid render band")
)

// Band is the major render band. Bands draw in ascending order.
type Band uint8

const (
	BandOpaque      Band = 0
	BandFrameBuffer Band = 1
	BandDefault     Band = 2
	BandBlend       Band = 4
	BandLate        Band = 8
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandOpaque:
		return "Opaque"
	case BandFrameBuffer:
		return "FrameBuffer"
	case BandDefault:
		return "Default"
	case BandBlend:
		return "Blend"
	case BandLate:
		return "Late"
	default:
		return fmt.Sprintf("Band(%d)", uint8(b))
	}
}

const (
	majorShift = 28
	// MaxMinor is the largest minor offset the packed form can hold.
	MaxMinor = 1<<majorShift - 1
	// PassStep is the minor distance between adjacent pass indices and
	// between a dependency and its dependent.
	PassStep = 4
)

// Level orders spans within and across bands.
type Level struct {
	Major Band
	Minor uint32
}

// Compare returns -1, 0 or 1 as l sorts before, with or after o.
func (l Level) Compare(o Level) int {
	switch {
	case l.Major < o.Major:
		return -1
	case l.Major > o.Major:
		return 1
	case l.Minor < o.Minor:
		return -1
	case l.Minor > o.Minor:
		return 1
	}
	return 0
}

// Less reports whether l draws before o.
func (l Level) Less(o Level) bool {
	return l.Compare(o) < 0
}

// Add returns l with n added to the minor offset.
func (l Level) Add(n uint64) (Level, error) {
	sum := uint64(l.Minor) + n
	if sum > MaxMinor {
		return l, fmt.Errorf("%w: %s + %d", ErrLevelOverflow, l, n)
	}
	l.Minor = uint32(sum)
	return l, nil
}

// Packed returns the engine encoding (major << 28) | minor.
func (l Level) Packed() uint32 {
	return uint32(l.Major)<<majorShift | l.Minor&MaxMinor
}

// Unpack splits an engine-encoded level.
func Unpack(v uint32) (Level, error) {
	l := Level{Major: Band(v >> majorShift), Minor: v & MaxMinor}
	switch l.Major {
	case BandOpaque, BandFrameBuffer, BandDefault, BandBlend, BandLate:
		return l, nil
	}
	return Level{}, fmt.Errorf("%w: 0x%08X", ErrInvalidBand, v)
}

// String returns "Band+minor".
func (l Level) String() string {
	return fmt.Sprintf("%s+%d", l.Major, l.Minor)
}

func maxLevel(a, b Level) Level {
	if a.Less(b) {
		return b
	}
	return a
}
