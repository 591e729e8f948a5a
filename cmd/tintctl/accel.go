package main

import (
	"time"
)

// Nudge acceleration defaults.
const (
	defaultNudgeWindowMS   = 250 // window for counting repeated nudges (ms)
	defaultNudgeThreshold  = 4   // nudges in window before steps grow
	defaultNudgeMultiplier = 5   // slider units per nudge once accelerated
)

// NudgeConfig controls how fast repeated nudges accelerate.
type NudgeConfig struct {
	WindowMS   int
	Threshold  int
	Multiplier int
}

// nudgeTracker remembers recent nudges so a held button or fast tapping can
// cover the slider quickly. It is a value owned by the session state; addStep
// never mutates a backing array it might share with an earlier state copy.
type nudgeTracker struct {
	recent []nudgeStep
}

type nudgeStep struct {
	at        time.Time
	direction int
}

// addStep records a nudge at time at and returns the number of nudges in the
// same direction inside the window, including this one.
func (n *nudgeTracker) addStep(direction int, at time.Time, windowMS int) int {
	cutoff := at.Add(-time.Duration(windowMS) * time.Millisecond)

	kept := make([]nudgeStep, 0, len(n.recent)+1)
	for _, s := range n.recent {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}
	kept = append(kept, nudgeStep{at: at, direction: direction})
	n.recent = kept

	sameDir := 0
	for _, s := range kept {
		if s.direction == direction {
			sameDir++
		}
	}
	return sameDir
}

// stepSize converts a same-direction count into slider units.
func (c NudgeConfig) stepSize(count int) int {
	if c.Threshold > 0 && c.Multiplier > 1 && count >= c.Threshold {
		return c.Multiplier
	}
	return 1
}
