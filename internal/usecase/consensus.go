package usecase

import "github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"

// Aggregate reduces provider results to a consensus verdict. Results
// carrying an error are excluded; if no rated result survives, nil is
// returned and the caller must render "no consensus" rather than a
// default verdict. The tally is independent of input order.
func Aggregate(results []models.ProviderResult) *models.ConsensusVerdict {
	counts := map[models.Rating]int{
		models.RatingBuy:  0,
		models.RatingHold: 0,
		models.RatingSell: 0,
	}

	rated := 0
	for _, r := range results {
		if r.Failed() || r.Answer == nil {
			continue
		}
		if !r.Answer.Rating.Valid() {
			continue
		}
		counts[r.Answer.Rating]++
		rated++
	}
	if rated == 0 {
		return nil
	}

	// Strictly highest count wins; any tie for the top count is SPLIT,
	// regardless of how many ratings share it or what trails below.
	top := 0
	winners := 0
	var verdict models.Verdict
	for _, rating := range models.Ratings {
		switch n := counts[rating]; {
		case n > top:
			top = n
			winners = 1
			verdict = models.Verdict(rating)
		case n == top && n > 0:
			winners++
		}
	}
	if winners > 1 {
		verdict = models.VerdictSplit
	}

	return &models.ConsensusVerdict{Verdict: verdict, Counts: counts}
}
