package reconciler

import "fmt"

// Issue is one non-fatal problem collected during a sync cycle. Stages
// return partial results plus issues instead of aborting the cycle.
type Issue struct {
	Stage    string `json:"stage"`
	Sport    string `json:"sport,omitempty"`
	Provider string `json:"provider,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	s := i.Stage
	if i.Provider != "" {
		s += "/" + i.Provider
	}
	return fmt.Sprintf("%s: %s", s, i.Message)
}

func issuef(stage, sport, provider, format string, args ...any) Issue {
	return Issue{
		Stage:    stage,
		Sport:    sport,
		Provider: provider,
		Message:  fmt.Sprintf(format, args...),
	}
}
