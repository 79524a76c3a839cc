package sqlite

import (
	"context"

	"github.com/bookcrush/bookcrush-server/internal/domain"
)

// InsertVote records a vote. It reports false, without error, when the user
// had already voted for the suggestion.
func (s *Store) InsertVote(ctx context.Context, v *domain.Vote) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO votes (id, suggestion_id, user_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (suggestion_id, user_id) DO NOTHING`,
		v.ID, v.SuggestionID, v.UserID, formatTime(v.CreatedAt),
	)
	if err != nil {
		return false, mapErr(err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeleteVote removes the user's vote. It reports whether a vote existed.
func (s *Store) DeleteVote(ctx context.Context, suggestionID, userID string) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM votes WHERE suggestion_id = ? AND user_id = ?`, suggestionID, userID)
	if err != nil {
		return false, mapErr(err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountVotes returns the number of votes on a suggestion.
func (s *Store) CountVotes(ctx context.Context, suggestionID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE suggestion_id = ?`, suggestionID).Scan(&n)
	return n, mapErr(err)
}

// HasVoted reports whether the user voted for the suggestion.
func (s *Store) HasVoted(ctx context.Context, suggestionID, userID string) (bool, error) {
	var voted bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM votes WHERE suggestion_id = ? AND user_id = ?)`,
		suggestionID, userID).Scan(&voted)
	return voted, mapErr(err)
}

// CountVotesFor returns vote counts keyed by suggestion ID. Suggestions without
// votes map to zero.
func (s *Store) CountVotesFor(ctx context.Context, suggestionIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(suggestionIDs))
	if len(suggestionIDs) == 0 {
		return counts, nil
	}
	for _, id := range suggestionIDs {
		counts[id] = 0
	}

	placeholders, args := inArgs(suggestionIDs)
	rows, err := s.q.QueryContext(ctx, `
		SELECT suggestion_id, COUNT(*) FROM votes
		WHERE suggestion_id IN (`+placeholders+`)
		GROUP BY suggestion_id`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// VotedBy returns the subset of suggestionIDs the user voted for.
func (s *Store) VotedBy(ctx context.Context, userID string, suggestionIDs []string) (map[string]bool, error) {
	voted := make(map[string]bool)
	if len(suggestionIDs) == 0 {
		return voted, nil
	}

	placeholders, args := inArgs(suggestionIDs)
	args = append([]any{userID}, args...)
	rows, err := s.q.QueryContext(ctx, `
		SELECT suggestion_id FROM votes
		WHERE user_id = ? AND suggestion_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		voted[id] = true
	}
	return voted, rows.Err()
}
