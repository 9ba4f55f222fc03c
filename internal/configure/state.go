package configure

import (
	"fmt"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateBindingDestination
	StateBindingSource
	StateProvisioningGas
	StateVerifying
	StateComplete
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:               "Idle",
	StateDiscovering:        "Discovering",
	StateBindingDestination: "BindingDestination",
	StateBindingSource:      "BindingSource",
	StateProvisioningGas:    "ProvisioningGas",
	StateVerifying:          "Verifying",
	StateComplete:           "Complete",
	StateFailed:             "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Transition is one recorded state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// canTransition allows forward moves only. Skipping states is fine, going
// back is not. Failed is reachable from every non-terminal state.
func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return to > from
}
