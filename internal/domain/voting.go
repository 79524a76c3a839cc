package domain

// Tally is the vote count of one ACTIVE suggestion at close-out time.
type Tally struct {
	SuggestionID string
	BookID       string
	Votes        int
}

// CloseOutResult says what happens to each ACTIVE suggestion when a cycle ends.
type CloseOutResult struct {
	// Winners keep ACTIVE status. All suggestions tied at the maximum win.
	Winners []Tally
	// Rejected lost to at least one winner.
	Rejected []string
	// Expired is set when nobody voted at all.
	Expired  []string
	MaxVotes int
}

// CloseOut computes the outcome of a voting cycle. Winners are every
// suggestion with the highest count, provided that count is above zero;
// the rest are rejected. With no votes at all, every suggestion expires.
// Input order is preserved in every output slice.
func CloseOut(tallies []Tally) CloseOutResult {
	var res CloseOutResult
	for _, t := range tallies {
		res.MaxVotes = max(res.MaxVotes, t.Votes)
	}

	if res.MaxVotes == 0 {
		for _, t := range tallies {
			res.Expired = append(res.Expired, t.SuggestionID)
		}
		return res
	}

	for _, t := range tallies {
		if t.Votes == res.MaxVotes {
			res.Winners = append(res.Winners, t)
		} else {
			res.Rejected = append(res.Rejected, t.SuggestionID)
		}
	}
	return res
}
