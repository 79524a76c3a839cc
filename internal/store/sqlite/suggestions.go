package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookcrush/bookcrush-server/internal/domain"
)

const suggestionColumns = `id, club_id, book_id, suggested_by, reason, status, voting_ends, created_at`

func scanSuggestion(scanner interface{ Scan(dest ...any) error }) (*domain.Suggestion, error) {
	var (
		sg                    domain.Suggestion
		reason                sql.NullString
		votingEnds, createdAt string
	)

	err := scanner.Scan(&sg.ID, &sg.ClubID, &sg.BookID, &sg.SuggestedBy, &reason, &sg.Status, &votingEnds, &createdAt)
	if err != nil {
		return nil, err
	}

	sg.Reason = stringPtr(reason)
	if sg.VotingEnds, err = parseTime(votingEnds); err != nil {
		return nil, fmt.Errorf("parse voting_ends: %w", err)
	}
	if sg.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &sg, nil
}

// CreateSuggestion inserts a suggestion. A second ACTIVE suggestion for the
// same (club, book) fails with store.ErrAlreadyExists.
func (s *Store) CreateSuggestion(ctx context.Context, sg *domain.Suggestion) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO suggestions (`+suggestionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sg.ID, sg.ClubID, sg.BookID, sg.SuggestedBy, nullableString(sg.Reason), string(sg.Status),
		formatTime(sg.VotingEnds), formatTime(sg.CreatedAt),
	)
	return mapErr(err)
}

// GetSuggestion returns a suggestion by ID.
func (s *Store) GetSuggestion(ctx context.Context, id string) (*domain.Suggestion, error) {
	sg, err := scanSuggestion(s.q.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return sg, nil
}

// HasActiveSuggestion reports whether the book already has an ACTIVE suggestion in the club.
func (s *Store) HasActiveSuggestion(ctx context.Context, clubID, bookID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM suggestions WHERE club_id = ? AND book_id = ? AND status = 'ACTIVE'
		)`, clubID, bookID).Scan(&exists)
	return exists, mapErr(err)
}

// CountActiveSuggestionsByUser counts the user's ACTIVE suggestions in the club.
func (s *Store) CountActiveSuggestionsByUser(ctx context.Context, clubID, userID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM suggestions
		WHERE club_id = ? AND suggested_by = ? AND status = 'ACTIVE'`, clubID, userID).Scan(&n)
	return n, mapErr(err)
}

// ListActiveSuggestions returns the club's ACTIVE suggestions, newest first.
func (s *Store) ListActiveSuggestions(ctx context.Context, clubID string) ([]*domain.Suggestion, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+suggestionColumns+` FROM suggestions
		WHERE club_id = ? AND status = 'ACTIVE'
		ORDER BY created_at DESC, id DESC`, clubID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*domain.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// ListActiveTallies returns every ACTIVE suggestion of the club with its vote
// count, oldest first.
func (s *Store) ListActiveTallies(ctx context.Context, clubID string) ([]domain.Tally, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT sg.id, sg.book_id, COUNT(v.id)
		FROM suggestions sg
		LEFT JOIN votes v ON v.suggestion_id = sg.id
		WHERE sg.club_id = ? AND sg.status = 'ACTIVE'
		GROUP BY sg.id, sg.book_id, sg.created_at
		ORDER BY sg.created_at, sg.id`, clubID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var tallies []domain.Tally
	for rows.Next() {
		var t domain.Tally
		if err := rows.Scan(&t.SuggestionID, &t.BookID, &t.Votes); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// SetSuggestionStatus moves the given suggestions to status.
func (s *Store) SetSuggestionStatus(ctx context.Context, ids []string, status domain.SuggestionStatus) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders, args := inArgs(ids)
	args = append([]any{string(status)}, args...)
	_, err := s.q.ExecContext(ctx, `UPDATE suggestions SET status = ? WHERE id IN (`+placeholders+`)`, args...)
	return mapErr(err)
}
