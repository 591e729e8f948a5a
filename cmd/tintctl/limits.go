package main

import (
	"errors"
	"fmt"
	"math"
)

// Limits holds the bounds and defaults of every editable color parameter.
// They are configuration, not compile-time constants; see DefaultLimits.
type Limits struct {
	Temperature TemperatureLimits `yaml:"temperature"`
	Saturation  FloatLimits       `yaml:"saturation"`
	Hue         FloatLimits       `yaml:"hue"`
	Contrast    FloatLimits       `yaml:"contrast"`
	Gamma       FloatLimits       `yaml:"gamma"`
	Luminance   FloatLimits       `yaml:"luminance"`
	Range       RangeLimits       `yaml:"range"`
}

// TemperatureLimits bounds the color temperature in Kelvin.
//
// D65 is the neutral white point. Temperatures above it are only reachable
// on the slider when the stored value already exceeds it.
type TemperatureLimits struct {
	Min     int `yaml:"min"`
	Max     int `yaml:"max"`
	D65     int `yaml:"d65"`
	Default int `yaml:"default"`
}

type FloatLimits struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
}

// RangeLimits bounds the output range and names the limited preset.
type RangeLimits struct {
	Min     float64    `yaml:"min"`
	Max     float64    `yaml:"max"`
	Limited ColorRange `yaml:"limited"`
}

// DefaultLimits returns the stock bounds.
func DefaultLimits() Limits {
	return Limits{
		Temperature: TemperatureLimits{Min: 1000, Max: 20000, D65: 6500, Default: 6500},
		Saturation:  FloatLimits{Min: 0, Max: 2, Default: 1},
		Hue:         FloatLimits{Min: -math.Pi, Max: math.Pi, Default: 0},
		Contrast:    FloatLimits{Min: 0, Max: 2, Default: 1},
		Gamma:       FloatLimits{Min: 0, Max: 5, Default: 2.4},
		Luminance:   FloatLimits{Min: -1, Max: 1, Default: 0},
		Range: RangeLimits{
			Min:     0,
			Max:     1,
			Limited: ColorRange{Lo: 16.0 / 255.0, Hi: 235.0 / 255.0},
		},
	}
}

// Validate checks ordering invariants. Every bound pair must be strictly
// increasing so the slider codec never divides by zero.
func (l Limits) Validate() error {
	t := l.Temperature
	if t.Min >= t.Max {
		return errors.New("limits.temperature.min must be < limits.temperature.max")
	}
	if t.D65 <= t.Min || t.D65 > t.Max {
		return errors.New("limits.temperature.d65 must be > min and <= max")
	}
	if t.Default < t.Min || t.Default > t.Max {
		return errors.New("limits.temperature.default must be within [min, max]")
	}

	for _, f := range []struct {
		name string
		l    FloatLimits
	}{
		{"saturation", l.Saturation},
		{"hue", l.Hue},
		{"contrast", l.Contrast},
		{"gamma", l.Gamma},
		{"luminance", l.Luminance},
	} {
		if f.l.Min >= f.l.Max {
			return fmt.Errorf("limits.%s.min must be < limits.%s.max", f.name, f.name)
		}
		if f.l.Default < f.l.Min || f.l.Default > f.l.Max {
			return fmt.Errorf("limits.%s.default must be within [min, max]", f.name)
		}
	}

	r := l.Range
	if r.Min >= r.Max {
		return errors.New("limits.range.min must be < limits.range.max")
	}
	if r.Limited.Lo > r.Limited.Hi {
		return errors.New("limits.range.limited.lo must be <= limits.range.limited.hi")
	}
	if r.Limited.Lo < r.Min || r.Limited.Hi > r.Max {
		return errors.New("limits.range.limited must lie within [min, max]")
	}
	if r.IsFullRange(r.Limited) {
		return errors.New("limits.range.limited must differ from the full range")
	}
	return nil
}

// TemperatureBound picks the temperature slider's upper bound for a stored
// value: the extended maximum once the value is already above D65.
func (t TemperatureLimits) TemperatureBound(stored int) int {
	if stored > t.D65 {
		return t.Max
	}
	return t.D65
}

// Clamp pulls every field of s into its declared bounds and repairs an
// inverted range.
func (l Limits) Clamp(s *ColorSettings) {
	s.Temperature = clampInt(s.Temperature, l.Temperature.Min, l.Temperature.Max)
	s.Saturation = l.Saturation.clamp(s.Saturation)
	s.Hue = l.Hue.clamp(s.Hue)
	s.Contrast = l.Contrast.clamp(s.Contrast)
	s.Gamma = l.Gamma.clamp(s.Gamma)
	s.Luminance = l.Luminance.clamp(s.Luminance)
	s.Range.Lo = clampFloat(s.Range.Lo, l.Range.Min, l.Range.Max)
	s.Range.Hi = clampFloat(s.Range.Hi, l.Range.Min, l.Range.Max)
	if s.Range.Lo > s.Range.Hi {
		s.Range.Hi = s.Range.Lo
	}
}

func (f FloatLimits) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return f.Default
	}
	return clampFloat(v, f.Min, f.Max)
}

// DefaultSettings returns settings with every field at its default.
func (l Limits) DefaultSettings() ColorSettings {
	return ColorSettings{
		Temperature: l.Temperature.Default,
		Saturation:  l.Saturation.Default,
		Hue:         l.Hue.Default,
		Contrast:    l.Contrast.Default,
		Gamma:       l.Gamma.Default,
		Luminance:   l.Luminance.Default,
		Range:       l.Range.Full(),
	}
}
