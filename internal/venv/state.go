// SPDX-License-Identifier: MPL-2.0

package venv

// State is a step of the bootstrap sequence.
type State int

const (
	// StateStart is the initial state.
	StateStart State = iota
	// StateCompatible means the stored fingerprint matched.
	StateCompatible
	// StateIncompatible means the directory or fingerprint was missing or different.
	StateIncompatible
	// StateTornDown means the old directory was removed (or never existed).
	StateTornDown
	// StateRecreated means a new environment was created and fingerprinted.
	StateRecreated
	// StateInstalled means the installer ran or was skipped for a missing manifest.
	StateInstalled
	// StateVerified means every required module imported.
	StateVerified
	// StateReinstalled means a module was missing and the installer ran again.
	StateReinstalled
	// StateDone is terminal.
	StateDone
)

var stateNames = [...]string{
	StateStart:        "START",
	StateCompatible:   "COMPATIBLE",
	StateIncompatible: "INCOMPATIBLE",
	StateTornDown:     "TORN_DOWN",
	StateRecreated:    "RECREATED",
	StateInstalled:    "INSTALLED",
	StateVerified:     "VERIFIED",
	StateReinstalled:  "REINSTALLED",
	StateDone:         "DONE",
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateStart:        {StateCompatible, StateIncompatible},
	StateIncompatible: {StateTornDown},
	StateTornDown:     {StateRecreated},
	StateRecreated:    {StateInstalled},
	StateCompatible:   {StateInstalled},
	StateInstalled:    {StateVerified, StateReinstalled},
	StateVerified:     {StateDone},
	StateReinstalled:  {StateDone},
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// CanTransition reports whether next directly follows s.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
