package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookcrush/bookcrush-server/internal/domain"
)

const clubColumns = `id, name, description, owner_id, current_book_id, voting_cycle_active,
	voting_starts_at, voting_ends_at, voting_started_by, created_at, updated_at`

func scanClub(scanner interface{ Scan(dest ...any) error }) (*domain.Club, error) {
	var (
		c                    domain.Club
		description          sql.NullString
		currentBookID        sql.NullString
		startsAt, endsAt     sql.NullString
		startedBy            sql.NullString
		createdAt, updatedAt string
	)

	err := scanner.Scan(
		&c.ID, &c.Name, &description, &c.OwnerID, &currentBookID, &c.VotingCycleActive,
		&startsAt, &endsAt, &startedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Description = description.String
	c.CurrentBookID = stringPtr(currentBookID)
	c.VotingStartedBy = stringPtr(startedBy)

	if c.VotingStartsAt, err = parseNullableTime(startsAt); err != nil {
		return nil, fmt.Errorf("parse voting_starts_at: %w", err)
	}
	if c.VotingEndsAt, err = parseNullableTime(endsAt); err != nil {
		return nil, fmt.Errorf("parse voting_ends_at: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &c, nil
}

// CreateClub inserts a club.
func (s *Store) CreateClub(ctx context.Context, c *domain.Club) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO clubs (`+clubColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, nullString(c.Description), c.OwnerID,
		nullableString(c.CurrentBookID), c.VotingCycleActive,
		nullTimeString(c.VotingStartsAt), nullTimeString(c.VotingEndsAt), nullableString(c.VotingStartedBy),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return mapErr(err)
}

// GetClub returns a club by ID.
func (s *Store) GetClub(ctx context.Context, id string) (*domain.Club, error) {
	c, err := scanClub(s.q.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = ?`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// UpdateClub writes every mutable club field.
func (s *Store) UpdateClub(ctx context.Context, c *domain.Club) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE clubs SET
			name = ?, description = ?, current_book_id = ?, voting_cycle_active = ?,
			voting_starts_at = ?, voting_ends_at = ?, voting_started_by = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, nullString(c.Description), nullableString(c.CurrentBookID), c.VotingCycleActive,
		nullTimeString(c.VotingStartsAt), nullTimeString(c.VotingEndsAt), nullableString(c.VotingStartedBy),
		formatTime(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	return affectedOne(res)
}

// ListClubsForUser returns the clubs where the user is an ACTIVE member, by name.
func (s *Store) ListClubsForUser(ctx context.Context, userID string) ([]*domain.Club, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.owner_id, c.current_book_id, c.voting_cycle_active,
			c.voting_starts_at, c.voting_ends_at, c.voting_started_by, c.created_at, c.updated_at
		FROM clubs c
		JOIN club_members m ON m.club_id = c.id
		WHERE m.user_id = ? AND m.status = 'ACTIVE'
		ORDER BY c.name COLLATE NOCASE, c.id`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var clubs []*domain.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}
