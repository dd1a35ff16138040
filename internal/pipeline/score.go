package pipeline

// Score ranks a lead's hotness: up to 30 points for freshness, decaying one
// per day since opening, 10 for a phone (always present on extracted leads)
// and 5 for an email or social handle. The result is always within 10..45
// for non-negative ages.
func Score(daysSinceOpening int, hasEmailOrSocial bool) int {
	score := max(0, 30-daysSinceOpening) + 10
	if hasEmailOrSocial {
		score += 5
	}
	return score
}
