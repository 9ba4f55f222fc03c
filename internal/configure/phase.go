package configure

import (
	"strings"

	"github.com/fil-builders/onramp-configurator/internal/domain"
)

// Phase is an independently invocable configuration phase, named by its tag.
type Phase string

const (
	PhaseConfigFilecoin    Phase = "ConfigFilecoin"
	PhaseConfigSourceChain Phase = "ConfigSourceChain"
)

var phases = map[Phase]struct {
	dependency  string
	destination bool
}{
	PhaseConfigFilecoin:    {dependency: "Filecoin", destination: true},
	PhaseConfigSourceChain: {dependency: "SourceChain", destination: false},
}

// ParsePhase accepts a phase tag, case-insensitively.
func ParsePhase(name string) (Phase, error) {
	for phase := range phases {
		if strings.EqualFold(string(phase), strings.TrimSpace(name)) {
			return phase, nil
		}
	}
	return "", domain.NewConfigurationError("unknown phase '%s', expected '%s' or '%s'",
		name, PhaseConfigFilecoin, PhaseConfigSourceChain)
}

// Phases lists the supported tags.
func Phases() []Phase {
	return []Phase{PhaseConfigFilecoin, PhaseConfigSourceChain}
}

// Dependency is the deployment phase tag that must have run first.
func (p Phase) Dependency() string {
	return phases[p].dependency
}

// TargetsDestination reports whether the phase runs against the destination chain.
func (p Phase) TargetsDestination() bool {
	return phases[p].destination
}
