package reconciler

import (
	"sort"

	"github.com/Rut304/matchups/internal/pkg/models"
)

// Dedupe collapses duplicate records inside a single provider's feed.
// A schedule correction can reissue a game under a new ID; the stale
// copy must merge into the fresh one, not show up as a second game.
//
// Survivor policy: most recent UpdatedAt wins; on a tie, the record
// with more populated optional fields wins. The loser's ID is retained
// as an alias of the survivor so a later fetch that still returns the
// old ID is recognized, not treated as a new game.
func Dedupe(games []models.ProviderGame, matcher *Matcher) ([]models.ProviderGame, []Issue) {
	var issues []Issue
	var survivors []models.ProviderGame

	for _, g := range games {
		idx := -1
		for i := range survivors {
			if survivors[i].Provider != g.Provider {
				continue
			}
			if matcher.Matches(survivors[i].Identifiers, g.Identifiers) {
				idx = i
				break
			}
		}
		if idx == -1 {
			survivors = append(survivors, g)
			continue
		}

		winner, loser := pickSurvivor(survivors[idx], g)
		winner.AliasIDs = appendAlias(winner.AliasIDs, loser.ID)
		for _, a := range loser.AliasIDs {
			winner.AliasIDs = appendAlias(winner.AliasIDs, a)
		}
		winner.Identifiers = winner.Identifiers.Merged(loser.Identifiers)
		survivors[idx] = winner

		issues = append(issues, issuef("dedupe", g.Sport, g.Provider,
			"collapsed duplicate record %s into %s", loser.ID, winner.ID))
	}

	return survivors, issues
}

func pickSurvivor(a, b models.ProviderGame) (winner, loser models.ProviderGame) {
	switch {
	case b.UpdatedAt.After(a.UpdatedAt):
		return b, a
	case a.UpdatedAt.After(b.UpdatedAt):
		return a, b
	case b.PopulatedFieldCount() > a.PopulatedFieldCount():
		return b, a
	default:
		return a, b
	}
}

func appendAlias(aliases []string, id string) []string {
	if id == "" {
		return aliases
	}
	for _, a := range aliases {
		if a == id {
			return aliases
		}
	}
	aliases = append(aliases, id)
	sort.Strings(aliases)
	return aliases
}
