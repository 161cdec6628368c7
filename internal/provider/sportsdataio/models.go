package sportsdataio

// gameOdds mirrors one row of the SportsDataIO GameOddsByDate response.
type gameOdds struct {
	GameID       int64        `json:"GameId"`
	DateTime     string       `json:"DateTime"` // local eastern time, no offset
	DateTimeUTC  string       `json:"DateTimeUTC"`
	HomeTeamName string       `json:"HomeTeamName"`
	AwayTeamName string       `json:"AwayTeamName"`
	PregameOdds  []pregameOdd `json:"PregameOdds"`
}

type pregameOdd struct {
	Sportsbook            string   `json:"Sportsbook"`
	Updated               string   `json:"Updated"`
	HomeMoneyLine         *int     `json:"HomeMoneyLine"`
	AwayMoneyLine         *int     `json:"AwayMoneyLine"`
	HomePointSpread       *float64 `json:"HomePointSpread"`
	HomePointSpreadPayout *int     `json:"HomePointSpreadPayout"`
	AwayPointSpreadPayout *int     `json:"AwayPointSpreadPayout"`
	OverUnder             *float64 `json:"OverUnder"`
	OverPayout            *int     `json:"OverPayout"`
	UnderPayout           *int     `json:"UnderPayout"`
}
