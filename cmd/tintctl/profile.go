package main

import (
	"errors"
	"fmt"
	"strconv"
)

// ProfileID numbers the stored profiles. It is zero-based internally and
// displayed one-based.
type ProfileID int

const (
	ProfileID1 ProfileID = iota
	ProfileID2
	ProfileID3
	ProfileID4

	ProfileIDInvalid ProfileID = -1
)

// profileCount is the number of profile slots the service keeps.
const profileCount = 4

// Valid reports whether id names one of the stored profiles.
func (id ProfileID) Valid() bool {
	return id >= ProfileID1 && id < profileCount
}

func (id ProfileID) String() string {
	if !id.Valid() {
		return "invalid"
	}
	return strconv.Itoa(int(id) + 1)
}

// PerformanceMode is the device's power/docking mode. Normal selects the
// internal profile, anything else the external one.
type PerformanceMode int

const (
	PerformanceModeNormal PerformanceMode = iota
	PerformanceModeOther
)

func (m PerformanceMode) String() string {
	if m == PerformanceModeNormal {
		return "normal"
	}
	return "other"
}

// ParsePerformanceMode accepts "normal" and "other" (alias "boost").
func ParsePerformanceMode(s string) (PerformanceMode, error) {
	switch s {
	case "normal", "":
		return PerformanceModeNormal, nil
	case "other", "boost":
		return PerformanceModeOther, nil
	default:
		return 0, fmt.Errorf("invalid performance mode: %q (must be normal or other)", s)
	}
}

// ColorRange is the output range [Lo, Hi] in normalized units.
type ColorRange struct {
	Lo float64 `yaml:"lo" json:"lo"`
	Hi float64 `yaml:"hi" json:"hi"`
}

// ColorSettings is one period's color correction.
type ColorSettings struct {
	Temperature int        `yaml:"temperature" json:"temperature"`
	Saturation  float64    `yaml:"saturation" json:"saturation"`
	Hue         float64    `yaml:"hue" json:"hue"`
	Contrast    float64    `yaml:"contrast" json:"contrast"`
	Gamma       float64    `yaml:"gamma" json:"gamma"`
	Luminance   float64    `yaml:"luminance" json:"luminance"`
	Range       ColorRange `yaml:"range" json:"range"`
}

// DimmingTimeout is forwarded to the service verbatim. Zero means the system
// setting is used.
type DimmingTimeout struct {
	Minutes int `yaml:"minutes" json:"minutes"`
	Seconds int `yaml:"seconds" json:"seconds"`
}

// Profile is the unit that is opened from, applied to, and persisted for the
// service.
type Profile struct {
	DawnBegin TimeOfDay `yaml:"dawn_begin" json:"dawn_begin"`
	DawnEnd   TimeOfDay `yaml:"dawn_end" json:"dawn_end"`
	DuskBegin TimeOfDay `yaml:"dusk_begin" json:"dusk_begin"`
	DuskEnd   TimeOfDay `yaml:"dusk_end" json:"dusk_end"`

	Day   ColorSettings `yaml:"day" json:"day"`
	Night ColorSettings `yaml:"night" json:"night"`

	Components ComponentMask `yaml:"components" json:"components"`
	Filter     ComponentMask `yaml:"filter" json:"filter"`

	DimmingTimeout DimmingTimeout `yaml:"dimming_timeout" json:"dimming_timeout"`
}

// IsDay reports whether now falls in the day period, which runs from dawn to
// dusk.
func (p *Profile) IsDay(now TimeOfDay) bool {
	return IsInInterval(p.DawnBegin, p.DuskBegin, now)
}

// Settings resolves the settings block that edits for the given period go to.
func (p *Profile) Settings(isDay bool) *ColorSettings {
	if isDay {
		return &p.Day
	}
	return &p.Night
}

// Validate checks transition times. Each transition must end no earlier than
// it begins.
func (p *Profile) Validate() error {
	for _, t := range []TimeOfDay{p.DawnBegin, p.DawnEnd, p.DuskBegin, p.DuskEnd} {
		if !t.Valid() {
			return fmt.Errorf("invalid time of day %v", t)
		}
	}
	if p.DawnEnd.Before(p.DawnBegin) {
		return errors.New("invalid dawn transition times: end before begin")
	}
	if p.DuskEnd.Before(p.DuskBegin) {
		return errors.New("invalid dusk transition times: end before begin")
	}
	return nil
}

// Clamp pulls both settings blocks into bounds and strips stray mask bits.
func (p *Profile) Clamp(l Limits) {
	l.Clamp(&p.Day)
	l.Clamp(&p.Night)
	p.Components &= ComponentAll
	p.Filter = FilterFromIndex(FilterIndex(p.Filter))
}

// DefaultProfile returns a profile with stock settings for both periods and
// a 07:00 dawn / 21:00 dusk schedule.
func DefaultProfile(l Limits) Profile {
	return Profile{
		DawnBegin:  TimeOfDay{Hour: 7},
		DawnEnd:    TimeOfDay{Hour: 7},
		DuskBegin:  TimeOfDay{Hour: 21},
		DuskEnd:    TimeOfDay{Hour: 21},
		Day:        l.DefaultSettings(),
		Night:      l.DefaultSettings(),
		Components: ComponentAll,
		Filter:     ComponentNone,
	}
}

// ProfileSet is everything the config store persists: the profiles, which
// of them is bound to each performance mode, and the global active flag.
type ProfileSet struct {
	Active   bool                   `yaml:"active" json:"active"`
	Internal ProfileID              `yaml:"internal_profile" json:"internal_profile"`
	External ProfileID              `yaml:"external_profile" json:"external_profile"`
	Profiles [profileCount]Profile `yaml:"profiles" json:"profiles"`
}

// DefaultProfileSet returns an inactive set with default profiles, profile 1
// internal and profile 2 external.
func DefaultProfileSet(l Limits) ProfileSet {
	set := ProfileSet{Internal: ProfileID1, External: ProfileID2}
	for i := range set.Profiles {
		set.Profiles[i] = DefaultProfile(l)
	}
	return set
}

// ProfileFor selects the profile bound to the performance mode.
func (s *ProfileSet) ProfileFor(mode PerformanceMode) ProfileID {
	if mode == PerformanceModeNormal {
		return s.Internal
	}
	return s.External
}

// Validate checks the profile bindings and each profile's transition times.
func (s *ProfileSet) Validate() error {
	if !s.Internal.Valid() {
		return fmt.Errorf("internal profile id %d out of range", int(s.Internal))
	}
	if !s.External.Valid() {
		return fmt.Errorf("external profile id %d out of range", int(s.External))
	}
	for i := range s.Profiles {
		if err := s.Profiles[i].Validate(); err != nil {
			return fmt.Errorf("profile %d: %w", i+1, err)
		}
	}
	return nil
}
