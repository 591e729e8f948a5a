package main

import (
	"fmt"
	"strconv"
	"strings"
)

// ParamKind names an editable field of the profile.
type ParamKind int

const (
	ParamTemperature ParamKind = iota
	ParamSaturation
	ParamHue
	ParamContrast
	ParamGamma
	ParamLuminance
	ParamComponents
	ParamFilter

	paramCount
)

var paramNames = [...]string{
	ParamTemperature: "temperature",
	ParamSaturation:  "saturation",
	ParamHue:         "hue",
	ParamContrast:    "contrast",
	ParamGamma:       "gamma",
	ParamLuminance:   "luminance",
	ParamComponents:  "components",
	ParamFilter:      "filter",
}

func (k ParamKind) String() string {
	if k < 0 || k >= paramCount {
		return "ParamKind(" + strconv.Itoa(int(k)) + ")"
	}
	return paramNames[k]
}

// ParseParamKind resolves a parameter by name (case-insensitive).
func ParseParamKind(s string) (ParamKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range paramNames {
		if name == s {
			return ParamKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown parameter: %q", s)
}

// MarshalText lets ParamKind travel as its name in IPC payloads.
func (k ParamKind) MarshalText() ([]byte, error) {
	if k < 0 || k >= paramCount {
		return nil, fmt.Errorf("invalid parameter kind %d", int(k))
	}
	return []byte(paramNames[k]), nil
}

func (k *ParamKind) UnmarshalText(b []byte) error {
	parsed, err := ParseParamKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// editTarget is what a parameter reads and writes: the profile being edited
// and the settings block of the current period, resolved once per event.
type editTarget struct {
	profile  *Profile
	settings *ColorSettings
}

// Parameter is one editable field. Positions are slider units in
// [0, Steps()]. Every write clamps to the field's bounds.
type Parameter interface {
	Kind() ParamKind
	Steps() int
	Position(t editTarget, bound int) int
	SetPosition(t editTarget, bound, pos int)
	SetValue(t editTarget, v float64)
	Reset(t editTarget)
	Display(t editTarget) string
	// Accelerates reports whether repeated nudges may take larger steps.
	Accelerates() bool
}

// boundedParam is a continuous field mapped onto the 0-100 slider.
type boundedParam[T int | float64] struct {
	kind    ParamKind
	label   string
	format  func(T) string
	get     func(*ColorSettings) T
	set     func(*ColorSettings, T)
	min     T
	max     T
	def     T
	dynamic bool // upper slider bound supplied by the caller (temperature)
}

func (p *boundedParam[T]) Kind() ParamKind   { return p.kind }
func (p *boundedParam[T]) Steps() int        { return sliderMax }
func (p *boundedParam[T]) Accelerates() bool { return true }

func (p *boundedParam[T]) upper(bound int) T {
	if p.dynamic {
		return T(bound)
	}
	return p.max
}

func (p *boundedParam[T]) Position(t editTarget, bound int) int {
	return Encode(p.get(t.settings), p.min, p.upper(bound))
}

func (p *boundedParam[T]) SetPosition(t editTarget, bound, pos int) {
	v := Decode(clampInt(pos, 0, sliderMax), p.min, p.upper(bound))
	p.write(t, v)
}

// SetValue clamps in float64 before converting so out-of-range values
// cannot overflow T.
func (p *boundedParam[T]) SetValue(t editTarget, v float64) {
	p.write(t, T(clampFloat(v, float64(p.min), float64(p.max))))
}

func (p *boundedParam[T]) Reset(t editTarget) {
	p.write(t, p.def)
}

func (p *boundedParam[T]) write(t editTarget, v T) {
	if v < p.min {
		v = p.min
	}
	if v > p.max {
		v = p.max
	}
	p.set(t.settings, v)
}

func (p *boundedParam[T]) Display(t editTarget) string {
	return p.label + ": " + p.format(p.get(t.settings))
}

// indexParam is a discrete selector over a label table, stored as a mask on
// the profile (not per period).
type indexParam struct {
	kind    ParamKind
	label   string
	labels  []string
	toIndex func(ComponentMask) int
	toMask  func(int) ComponentMask
	field   func(*Profile) *ComponentMask
	def     ComponentMask
}

func (p *indexParam) Kind() ParamKind   { return p.kind }
func (p *indexParam) Steps() int        { return len(p.labels) - 1 }
func (p *indexParam) Accelerates() bool { return false }

func (p *indexParam) Position(t editTarget, _ int) int {
	return p.toIndex(*p.field(t.profile))
}

func (p *indexParam) SetPosition(t editTarget, _ int, pos int) {
	*p.field(t.profile) = p.toMask(clampInt(pos, 0, p.Steps()))
}

func (p *indexParam) SetValue(t editTarget, v float64) {
	p.SetPosition(t, 0, int(v))
}

func (p *indexParam) Reset(t editTarget) {
	*p.field(t.profile) = p.def
}

func (p *indexParam) Display(t editTarget) string {
	return p.label + ": " + p.labels[p.Position(t, 0)]
}

func formatKelvin(v int) string { return strconv.Itoa(v) + "K" }
func formatHundredths(v float64) string { return fmt.Sprintf("%.2f", v) }

// newParameters builds the parameter table for the given limits, indexed by
// ParamKind.
func newParameters(l Limits) [paramCount]Parameter {
	float := func(kind ParamKind, label string, fl FloatLimits, get func(*ColorSettings) *float64) Parameter {
		return &boundedParam[float64]{
			kind:   kind,
			label:  label,
			format: formatHundredths,
			get:    func(s *ColorSettings) float64 { return *get(s) },
			set:    func(s *ColorSettings, v float64) { *get(s) = v },
			min:    fl.Min,
			max:    fl.Max,
			def:    fl.Default,
		}
	}

	return [paramCount]Parameter{
		ParamTemperature: &boundedParam[int]{
			kind:    ParamTemperature,
			label:   "Temperature",
			format:  formatKelvin,
			get:     func(s *ColorSettings) int { return s.Temperature },
			set:     func(s *ColorSettings, v int) { s.Temperature = v },
			min:     l.Temperature.Min,
			max:     l.Temperature.Max,
			def:     l.Temperature.Default,
			dynamic: true,
		},
		ParamSaturation: float(ParamSaturation, "Saturation", l.Saturation, func(s *ColorSettings) *float64 { return &s.Saturation }),
		ParamHue:        float(ParamHue, "Hue", l.Hue, func(s *ColorSettings) *float64 { return &s.Hue }),
		ParamContrast:   float(ParamContrast, "Contrast", l.Contrast, func(s *ColorSettings) *float64 { return &s.Contrast }),
		ParamGamma:      float(ParamGamma, "Gamma", l.Gamma, func(s *ColorSettings) *float64 { return &s.Gamma }),
		ParamLuminance:  float(ParamLuminance, "Luminance", l.Luminance, func(s *ColorSettings) *float64 { return &s.Luminance }),
		ParamComponents: &indexParam{
			kind:    ParamComponents,
			label:   "Components",
			labels:  componentLabels[:],
			toIndex: ComponentsIndex,
			toMask:  ComponentsFromIndex,
			field:   func(p *Profile) *ComponentMask { return &p.Components },
			def:     ComponentAll,
		},
		ParamFilter: &indexParam{
			kind:    ParamFilter,
			label:   "Filter",
			labels:  filterLabels[:],
			toIndex: FilterIndex,
			toMask:  FilterFromIndex,
			field:   func(p *Profile) *ComponentMask { return &p.Filter },
			def:     ComponentNone,
		},
	}
}
