package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestCloseOut(t *testing.T) {
	tests := []struct {
		name    string
		tallies []Tally
		want    CloseOutResult
	}{
		{
			name: "tie at max keeps both winners",
			tallies: []Tally{
				{SuggestionID: "s1", BookID: "dune", Votes: 3},
				{SuggestionID: "s2", BookID: "foundation", Votes: 3},
			},
			want: CloseOutResult{
				Winners: []Tally{
					{SuggestionID: "s1", BookID: "dune", Votes: 3},
					{SuggestionID: "s2", BookID: "foundation", Votes: 3},
				},
				MaxVotes: 3,
			},
		},
		{
			name:    "single zero vote suggestion expires",
			tallies: []Tally{{SuggestionID: "s3", BookID: "1984"}},
			want:    CloseOutResult{Expired: []string{"s3"}},
		},
		{
			name: "all zero expire",
			tallies: []Tally{
				{SuggestionID: "a"}, {SuggestionID: "b"}, {SuggestionID: "c"},
			},
			want: CloseOutResult{Expired: []string{"a", "b", "c"}},
		},
		{
			name: "single winner rejects the rest including zero counts",
			tallies: []Tally{
				{SuggestionID: "a", Votes: 1},
				{SuggestionID: "b", Votes: 4},
				{SuggestionID: "c", Votes: 0},
				{SuggestionID: "d", Votes: 2},
			},
			want: CloseOutResult{
				Winners:  []Tally{{SuggestionID: "b", Votes: 4}},
				Rejected: []string{"a", "c", "d"},
				MaxVotes: 4,
			},
		},
		{
			name:    "no suggestions",
			tallies: nil,
			want:    CloseOutResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CloseOut(tt.tallies)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("CloseOut() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCloseOut_PartitionsEverySuggestion(t *testing.T) {
	tallies := []Tally{
		{SuggestionID: "a", Votes: 2},
		{SuggestionID: "b", Votes: 2},
		{SuggestionID: "c", Votes: 1},
		{SuggestionID: "d", Votes: 0},
	}

	res := CloseOut(tallies)

	seen := map[string]int{}
	for _, w := range res.Winners {
		seen[w.SuggestionID]++
	}
	for _, id := range res.Rejected {
		seen[id]++
	}
	for _, id := range res.Expired {
		seen[id]++
	}

	want := map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("each suggestion must land in exactly one bucket (-want +got):\n%s", diff)
	}
}
