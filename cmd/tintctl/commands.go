package main

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command represents a side effect to be executed by the session loop
// against the tint service.
type Command interface {
	commandMarker()
	String() string
}

// CmdApply pushes the full edit buffer to the running service. Commits are
// whole-profile, never deltas.
type CmdApply struct {
	ID      ProfileID
	Profile Profile
	Reason  string // "debounce", "reset", "reset_all", "toggle_range", "teardown"
}

func (CmdApply) commandMarker() {}
func (c CmdApply) String() string {
	return fmt.Sprintf("CmdApply(profile=%s, reason=%s)", c.ID, c.Reason)
}

// CmdSetActive switches color correction on or off.
type CmdSetActive struct {
	Active bool
}

func (CmdSetActive) commandMarker()   {}
func (c CmdSetActive) String() string { return fmt.Sprintf("CmdSetActive(active=%v)", c.Active) }
