package domain

const (
	WeightActiveResume    = 40
	WeightPortfolioLink   = 20
	WeightVerifiedReferee = 40

	MaxProofScore = 100
	// FlagThreshold: profiles scoring below it are flagged for reviewers.
	FlagThreshold = 40
)

// Evidence is the current state of the three independent evidence channels.
type Evidence struct {
	HasActiveResume    bool `json:"has_active_resume"`
	HasPortfolioLink   bool `json:"has_portfolio_link"`
	HasVerifiedReferee bool `json:"has_verified_referee"`
}

type ProofScore struct {
	Score   int  `json:"proof_score"`
	Flagged bool `json:"flagged"`
}

// ComputeProofScore is a pure function of evidence.
func ComputeProofScore(e Evidence) ProofScore {
	score := 0
	if e.HasActiveResume {
		score += WeightActiveResume
	}
	if e.HasPortfolioLink {
		score += WeightPortfolioLink
	}
	if e.HasVerifiedReferee {
		score += WeightVerifiedReferee
	}
	score = min(max(score, 0), MaxProofScore)
	return ProofScore{Score: score, Flagged: score < FlagThreshold}
}

// IsFlagged derives the reviewer priority flag from a stored score.
func IsFlagged(score int) bool {
	return score < FlagThreshold
}
