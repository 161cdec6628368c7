package reconciler

import (
	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/oddsmath"
)

// ComputeConsensus averages each market across every quote known for a
// game. Books disagree; downstream wants one "the line" figure.
//
// A market with zero quotes stays nil: zero is a valid pick'em spread
// and must never stand in for "no data". BookmakerCount is the number
// of distinct books contributing anything.
func ComputeConsensus(quotes []models.RawOddsQuote) models.ConsensusLine {
	var out models.ConsensusLine

	var spreadSum, totalSum, homeMLSum, awayMLSum float64
	var spreadN, totalN, homeMLN, awayMLN int
	books := map[string]bool{}

	for _, q := range quotes {
		contributed := false
		switch q.Market {
		case models.MarketSpread:
			if q.Line != nil {
				spreadSum += *q.Line
				spreadN++
				contributed = true
			}
		case models.MarketTotal:
			if q.Line != nil {
				totalSum += *q.Line
				totalN++
				contributed = true
			}
		case models.MarketMoneyline:
			if p, ok := q.Prices[models.SideHome]; ok {
				homeMLSum += float64(p)
				homeMLN++
				contributed = true
			}
			if p, ok := q.Prices[models.SideAway]; ok {
				awayMLSum += float64(p)
				awayMLN++
				contributed = true
			}
		}
		if contributed && q.Book != "" {
			books[q.Book] = true
		}
	}

	if spreadN > 0 {
		mean := spreadSum / float64(spreadN)
		out.Spread = &mean
	}
	if totalN > 0 {
		mean := totalSum / float64(totalN)
		out.Total = &mean
	}
	if homeMLN > 0 {
		mean := homeMLSum / float64(homeMLN)
		out.HomeMoneyline = &mean
	}
	if awayMLN > 0 {
		mean := awayMLSum / float64(awayMLN)
		out.AwayMoneyline = &mean
	}
	out.BookmakerCount = len(books)

	return out
}

// ComputeBestOdds finds the single most favorable price per side for a
// user who can shop books. Independent of the consensus mean; the two
// are exposed side by side, never conflated. Returns nil when no side
// has a usable price.
func ComputeBestOdds(quotes []models.RawOddsQuote) *models.BestOdds {
	best := &models.BestOdds{}

	for _, q := range quotes {
		switch q.Market {
		case models.MarketMoneyline:
			best.Home = betterPrice(best.Home, q.Prices, models.SideHome, q.Book)
			best.Away = betterPrice(best.Away, q.Prices, models.SideAway, q.Book)
		case models.MarketTotal:
			best.Over = betterPrice(best.Over, q.Prices, models.SideOver, q.Book)
			best.Under = betterPrice(best.Under, q.Prices, models.SideUnder, q.Book)
		}
	}

	if best.Home == nil && best.Away == nil && best.Over == nil && best.Under == nil {
		return nil
	}
	return best
}

// betterPrice keeps the current best unless the candidate pays strictly
// better, so the first book seen wins ties and output stays stable.
func betterPrice(current *models.BestPrice, prices map[string]int, side, book string) *models.BestPrice {
	price, ok := prices[side]
	if !ok || price == 0 {
		return current
	}
	if current == nil || oddsmath.MoreFavorable(price, current.Price) {
		return &models.BestPrice{Price: price, Book: book}
	}
	return current
}
