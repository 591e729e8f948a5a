package main

import (
	"math"
	"math/bits"
)

// sliderMax is the top of the normalized slider scale.
const sliderMax = 100

// encodeEpsilon absorbs float error so Encode(Decode(p)) == p.
const encodeEpsilon = 1e-9

type number interface {
	~int | ~float64
}

// Decode maps a slider position in [0, 100] onto [min, max].
// Integer units truncate toward min. max must be greater than min.
func Decode[T number](percent int, min, max T) T {
	return T(percent)*(max-min)/sliderMax + min
}

// Encode maps a value in [min, max] onto the slider scale, truncating to a
// whole slider unit and clamping to [0, 100]. max must be greater than min.
func Encode[T number](value, min, max T) int {
	p := float64(value-min) * sliderMax / float64(max-min)
	return clampInt(int(math.Floor(p+encodeEpsilon)), 0, sliderMax)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ComponentMask selects a subset of the R, G and B channels.
type ComponentMask uint8

const (
	ComponentRed   ComponentMask = 1 << 0
	ComponentGreen ComponentMask = 1 << 1
	ComponentBlue  ComponentMask = 1 << 2

	ComponentNone ComponentMask = 0
	ComponentAll  ComponentMask = ComponentRed | ComponentGreen | ComponentBlue
)

var componentLabels = [...]string{"None", "R", "G", "RG", "B", "RB", "GB", "All"}

var filterLabels = [...]string{"None", "Red", "Green", "Blue"}

// ComponentsFromIndex maps a selector index (0-7) onto a channel mask.
// The index is the mask itself; out-of-range indices are clamped.
func ComponentsFromIndex(i int) ComponentMask {
	return ComponentMask(clampInt(i, 0, len(componentLabels)-1))
}

// ComponentsIndex is the inverse of ComponentsFromIndex.
func ComponentsIndex(m ComponentMask) int {
	return int(m & ComponentAll)
}

// FilterFromIndex maps 0 to no filter and 1..3 to a single R, G or B bit.
func FilterFromIndex(i int) ComponentMask {
	i = clampInt(i, 0, len(filterLabels)-1)
	if i == 0 {
		return ComponentNone
	}
	return ComponentMask(1 << (i - 1))
}

// FilterIndex positions the filter selector for a stored filter mask.
// Filters are only ever written through FilterFromIndex, so the lowest set
// bit decides.
func FilterIndex(m ComponentMask) int {
	m &= ComponentAll
	if m == 0 {
		return 0
	}
	return bits.TrailingZeros8(uint8(m)) + 1
}

// ComponentsLabel renders a channel mask for display.
func ComponentsLabel(m ComponentMask) string {
	return componentLabels[ComponentsIndex(m)]
}

// FilterLabel renders a filter mask for display.
func FilterLabel(m ComponentMask) string {
	return filterLabels[FilterIndex(m)]
}

// IsFullRange reports whether r covers the whole output range.
func (l RangeLimits) IsFullRange(r ColorRange) bool {
	return r.Lo == l.Min && r.Hi == l.Max
}

// Full returns the full-range preset.
func (l RangeLimits) Full() ColorRange {
	return ColorRange{Lo: l.Min, Hi: l.Max}
}

// Toggle flips between the full and limited presets. Any range that is not
// exactly full is treated as limited, so it toggles to full.
func (l RangeLimits) Toggle(r ColorRange) ColorRange {
	if l.IsFullRange(r) {
		return l.Limited
	}
	return l.Full()
}

// RangeLabel renders the range state for display.
func (l RangeLimits) RangeLabel(r ColorRange) string {
	if l.IsFullRange(r) {
		return "Full"
	}
	return "Limited"
}
