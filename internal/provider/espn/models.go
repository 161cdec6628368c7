package espn

// scoreboardResponse mirrors the ESPN site API scoreboard shape. Only
// the fields the engine consumes are declared; anything else the API
// adds or renames is ignored rather than failing the whole record.
type scoreboardResponse struct {
	Events []event `json:"events"`
}

type event struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Status struct {
		Type struct {
			Name        string `json:"name"`
			State       string `json:"state"` // pre|in|post
			Description string `json:"description"`
		} `json:"type"`
	} `json:"status"`
	Weather *struct {
		DisplayValue string `json:"displayValue"`
		Temperature  int    `json:"temperature"`
	} `json:"weather"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Venue *struct {
		FullName string `json:"fullName"`
		Address  struct {
			City  string `json:"city"`
			State string `json:"state"`
		} `json:"address"`
	} `json:"venue"`
	Broadcasts []struct {
		Names []string `json:"names"`
	} `json:"broadcasts"`
	Competitors []competitor `json:"competitors"`
	Odds        []oddsBlock  `json:"odds"`
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		DisplayName  string `json:"displayName"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	Records []struct {
		Type    string `json:"type"`
		Summary string `json:"summary"`
	} `json:"records"`
}

type oddsBlock struct {
	Provider struct {
		Name string `json:"name"`
	} `json:"provider"`
	Spread       *float64 `json:"spread"` // home team spread
	OverUnder    *float64 `json:"overUnder"`
	OverOdds     *int     `json:"overOdds"`
	UnderOdds    *int     `json:"underOdds"`
	HomeTeamOdds struct {
		Moneyline  *int `json:"moneyline"`
		SpreadOdds *int `json:"spreadOdds"`
	} `json:"homeTeamOdds"`
	AwayTeamOdds struct {
		Moneyline  *int `json:"moneyline"`
		SpreadOdds *int `json:"spreadOdds"`
	} `json:"awayTeamOdds"`
}
