package week

import "time"

// Season numbering is 1-based: the genesis week opens season 1.

// SeasonOf returns the season containing w, given the genesis week.
func SeasonOf(genesis, w Week) int {
	return WeeksBetween(genesis, w)/WeeksPerSeason + 1
}

// SeasonEnd returns the final second of a season in UTC.
func SeasonEnd(genesis Week, season int) time.Time {
	return genesis.Start().
		AddDate(0, 0, season*WeeksPerSeason*7).
		Add(-time.Second)
}

// ClaimValidUntil returns the claim-window expiry for a settlement in
// the given week: the end of the current season plus one full grace
// season.
func ClaimValidUntil(genesis, w Week) time.Time {
	return SeasonEnd(genesis, SeasonOf(genesis, w)+1)
}
