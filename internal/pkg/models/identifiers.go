package models

import (
	"sort"
	"strings"
	"time"
)

// GameIdentifiers is the matching key bundle captured from a single
// provider response: team names, kickoff time, and whatever native IDs
// the provider reported. Instances are merged, never mutated in place.
type GameIdentifiers struct {
	HomeTeam    string            `json:"home_team"`
	AwayTeam    string            `json:"away_team"`
	StartTime   time.Time         `json:"start_time"`
	ProviderIDs map[string]string `json:"provider_ids,omitempty"` // provider name -> native ID
}

// Merged returns a new bundle combining both sets of provider IDs.
// The receiver's names and time win; the argument only contributes IDs.
func (g GameIdentifiers) Merged(other GameIdentifiers) GameIdentifiers {
	ids := make(map[string]string, len(g.ProviderIDs)+len(other.ProviderIDs))
	for k, v := range other.ProviderIDs {
		ids[k] = v
	}
	for k, v := range g.ProviderIDs {
		ids[k] = v
	}
	out := g
	out.ProviderIDs = ids
	return out
}

// SharedProviderID reports whether both bundles carry the same native ID
// for any provider. A shared ID makes the match certain.
func (g GameIdentifiers) SharedProviderID(other GameIdentifiers) bool {
	for name, id := range g.ProviderIDs {
		if id == "" {
			continue
		}
		if otherID, ok := other.ProviderIDs[name]; ok && otherID == id {
			return true
		}
	}
	return false
}

// ProviderIDList returns the native IDs sorted for stable output.
func (g GameIdentifiers) ProviderIDList() []string {
	out := make([]string, 0, len(g.ProviderIDs))
	for _, id := range g.ProviderIDs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CanonicalGameID builds the stable cross-provider game identifier.
//
// IMPORTANT: built from the schedule provider's team names, which are
// stable across cycles, so re-running with unchanged inputs yields the
// same ID. Format: sport|home|away|RFC3339 kickoff (UTC).
func CanonicalGameID(sport, homeTeam, awayTeam string, startTime time.Time) string {
	home := normalizeKeyPart(homeTeam)
	away := normalizeKeyPart(awayTeam)
	sport = normalizeKeyPart(sport)
	if sport == "" {
		sport = "unknown"
	}

	ts := "unknown-time"
	if !startTime.IsZero() {
		ts = startTime.UTC().Format(time.RFC3339)
	}

	return sport + "|" + home + "|" + away + "|" + ts
}

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	// Key separator must never appear inside a part.
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "|", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}
