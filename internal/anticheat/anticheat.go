// Package anticheat maps reported cheat events to penalties. Like scoring it
// is pure; recording the event is the session layer's job.
package anticheat

import "emotech-quiz-service/internal/domain"

// Counter keys increment the matching field in a participant's cheat flags.
const (
	CounterTabSwitches      = "tab_switches"
	CounterCopyAttempts     = "copy_attempts"
	CounterDevToolsAttempts = "dev_tools_attempts"
)

// Penalty is the outcome of assessing one cheat event: how many points to
// deduct and which counter to increment.
type Penalty struct {
	Points  int
	Counter string
}

// defaultPenalty applies to unrecognized event types. Anything a client
// reports that we cannot classify is treated at the dev-tools tier.
var defaultPenalty = Penalty{Points: 20, Counter: CounterDevToolsAttempts}

// Assess returns the penalty for a cheat event type.
func Assess(t domain.CheatType) Penalty {
	switch t {
	case domain.CheatTabSwitch:
		return Penalty{Points: 10, Counter: CounterTabSwitches}
	case domain.CheatCopyAttempt:
		return Penalty{Points: 10, Counter: CounterCopyAttempts}
	case domain.CheatDevTools:
		return Penalty{Points: 20, Counter: CounterDevToolsAttempts}
	default:
		return defaultPenalty
	}
}
