package types

import "fmt"

// Outcome is the explicit result of probing a single candidate address
type Outcome int

const (
	Unknown Outcome = iota
	// HTTP probe outcomes
	Matched
	NoMatch
	BadStatus
	Timeout
	ConnectionFailed
	Canceled
	// Reachability outcomes
	Reached
	Unreachable
	ResolutionFailed
)

var outcomeNames = map[Outcome]string{
	Unknown:          "unknown",
	Matched:          "matched",
	NoMatch:          "no-match",
	BadStatus:        "bad-status",
	Timeout:          "timeout",
	ConnectionFailed: "connection-failed",
	Canceled:         "canceled",
	Reached:          "reached",
	Unreachable:      "unreachable",
	ResolutionFailed: "resolution-failed",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return outcomeNames[Unknown]
}

// MarshalText renders the outcome by name in JSON output
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name
func (o *Outcome) UnmarshalText(text []byte) error {
	for outcome, name := range outcomeNames {
		if name == string(text) {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown outcome: %s", text)
}

// Alive reports whether the address answered at all
func (o Outcome) Alive() bool {
	switch o {
	case Matched, NoMatch, BadStatus, Reached, ResolutionFailed:
		return true
	default:
		return false
	}
}
