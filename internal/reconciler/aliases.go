package reconciler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AliasTable maps a normalized team name to the other normalized names
// that refer to the same franchise. Maintained as versioned data, not
// code: franchises rename, and providers disagree on nickname vs city
// forms ("Chiefs" vs "Kansas City Chiefs").
type AliasTable struct {
	Version int                 `yaml:"version"`
	Teams   map[string][]string `yaml:"teams"` // canonical normalized name -> aliases

	// reverse index: alias -> canonical, built on load
	lookup map[string]string
}

// defaultAliasTeams seeds the table with the franchise forms providers
// most commonly disagree on. An external file extends or overrides it.
var defaultAliasTeams = map[string][]string{
	"kansas city chiefs":   {"chiefs", "kc chiefs"},
	"buffalo bills":        {"bills"},
	"green bay packers":    {"packers"},
	"detroit lions":        {"lions"},
	"san francisco 49ers":  {"49ers", "niners"},
	"new york giants":      {"giants", "ny giants"},
	"new york jets":        {"jets", "ny jets"},
	"los angeles lakers":   {"lakers", "la lakers"},
	"los angeles clippers": {"clippers", "la clippers"},
	"golden state warriors": {"warriors", "gs warriors"},
	"brooklyn nets":        {"nets"},
	"new york knicks":      {"knicks", "ny knicks"},
	"boston celtics":       {"celtics"},
	"new york yankees":     {"yankees", "ny yankees"},
	"new york mets":        {"mets", "ny mets"},
	"los angeles dodgers":  {"dodgers", "la dodgers"},
	"vegas golden knights": {"golden knights", "las vegas golden knights"},
	"tampa bay lightning":  {"lightning"},
	"washington commanders": {"commanders", "washington football team"},
}

// DefaultAliasTable returns the built-in table.
func DefaultAliasTable() *AliasTable {
	t := &AliasTable{Version: 1, Teams: defaultAliasTeams}
	t.buildLookup()
	return t
}

// LoadAliasTable reads a yaml alias file and merges it over the
// defaults. File entries win on conflict.
func LoadAliasTable(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table: %w", err)
	}

	var file AliasTable
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}

	merged := &AliasTable{
		Version: file.Version,
		Teams:   make(map[string][]string, len(defaultAliasTeams)+len(file.Teams)),
	}
	for k, v := range defaultAliasTeams {
		merged.Teams[k] = v
	}
	for k, v := range file.Teams {
		merged.Teams[normalizeTeam(k)] = v
	}
	merged.buildLookup()
	return merged, nil
}

func (t *AliasTable) buildLookup() {
	t.lookup = make(map[string]string, len(t.Teams)*2)
	for canonical, aliases := range t.Teams {
		canonical = normalizeTeam(canonical)
		t.lookup[canonical] = canonical
		for _, a := range aliases {
			t.lookup[normalizeTeam(a)] = canonical
		}
	}
}

// SameTeam reports whether two normalized names resolve to the same
// franchise through the table.
func (t *AliasTable) SameTeam(a, b string) bool {
	if t == nil || t.lookup == nil {
		return false
	}
	ca, okA := t.lookup[a]
	cb, okB := t.lookup[b]
	return okA && okB && ca == cb
}
