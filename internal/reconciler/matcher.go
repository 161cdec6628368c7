package reconciler

import (
	"strings"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
)

// Matching scores. A side can contribute at most sideExact, so two
// perfect sides reach 100; the time penalty then pulls doubleheaders
// and rematches below any sane cutoff.
const (
	confidenceCertain = 100

	sideExact     = 50
	sideSubstring = 45
	sideAlias     = 45

	timePenaltyDrift  = 5  // kickoff differs but is inside the tolerance window
	timePenaltyBeyond = 60 // kickoff differs by more than the tolerance window
)

// Matcher decides whether two identifier bundles describe the same
// real-world game. Output is a 0-100 confidence score, never a hard
// boolean: the caller merges only above its configured cutoff.
type Matcher struct {
	cutoff    int
	tolerance time.Duration
	aliases   *AliasTable
}

func NewMatcher(cutoff int, tolerance time.Duration, aliases *AliasTable) *Matcher {
	if cutoff <= 0 {
		cutoff = 85
	}
	if tolerance <= 0 {
		tolerance = 2 * time.Hour
	}
	if aliases == nil {
		aliases = DefaultAliasTable()
	}
	return &Matcher{cutoff: cutoff, tolerance: tolerance, aliases: aliases}
}

// Cutoff returns the configured merge cutoff.
func (m *Matcher) Cutoff() int { return m.cutoff }

// Confidence scores how likely a and b describe the same game.
func (m *Matcher) Confidence(a, b models.GameIdentifiers) int {
	// A shared cross-reference ID makes the match certain.
	if a.SharedProviderID(b) {
		return confidenceCertain
	}

	home := m.sideScore(a.HomeTeam, b.HomeTeam)
	away := m.sideScore(a.AwayTeam, b.AwayTeam)
	// Both sides must match; one side alone is not a game match.
	if home == 0 || away == 0 {
		return 0
	}

	conf := home + away

	// Same calendar day is not sufficient: doubleheaders exist.
	if !a.StartTime.IsZero() && !b.StartTime.IsZero() {
		diff := a.StartTime.Sub(b.StartTime)
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff > m.tolerance:
			conf -= timePenaltyBeyond
		case diff > 15*time.Minute:
			conf -= timePenaltyDrift
		}
	}

	if conf < 0 {
		conf = 0
	}
	if conf > confidenceCertain {
		conf = confidenceCertain
	}
	return conf
}

// Matches reports whether confidence clears the merge cutoff.
func (m *Matcher) Matches(a, b models.GameIdentifiers) bool {
	return m.Confidence(a, b) >= m.cutoff
}

// sideScore scores one team-name pair. Rules are tried in order and the
// first hit wins: exact, substring containment, alias table.
func (m *Matcher) sideScore(x, y string) int {
	nx := normalizeTeam(x)
	ny := normalizeTeam(y)
	if nx == "" || ny == "" {
		return 0
	}
	if nx == ny {
		return sideExact
	}
	if containsName(nx, ny) {
		return sideSubstring
	}
	if m.aliases.SameTeam(nx, ny) {
		return sideAlias
	}
	return 0
}

// containsName reports substring containment in either direction. Very
// short names are excluded: "a" inside "atlanta" is noise, not a match.
func containsName(a, b string) bool {
	shorter := a
	if len(b) < len(shorter) {
		shorter = b
	}
	if len(shorter) < 4 {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// teamNameSuffixes are trailing words stripped during normalization so
// "Michigan State" and "Michigan St" compare equal. Stripping stops
// before the name would become empty.
var teamNameSuffixes = map[string]bool{
	"city":       true,
	"state":      true,
	"st":         true,
	"university": true,
	"college":    true,
}

// normalizeTeam lowercases, strips non-alphanumerics and trailing
// suffix words, and collapses whitespace.
func normalizeTeam(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	for len(fields) > 1 && teamNameSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}
