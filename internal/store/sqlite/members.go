package sqlite

import (
	"context"
	"fmt"

	"github.com/bookcrush/bookcrush-server/internal/domain"
)

const memberColumns = `club_id, user_id, role, status, joined_at`

func scanMembership(scanner interface{ Scan(dest ...any) error }) (*domain.Membership, error) {
	var (
		m        domain.Membership
		joinedAt string
	)
	if err := scanner.Scan(&m.ClubID, &m.UserID, &m.Role, &m.Status, &joinedAt); err != nil {
		return nil, err
	}
	var err error
	if m.JoinedAt, err = parseTime(joinedAt); err != nil {
		return nil, fmt.Errorf("parse joined_at: %w", err)
	}
	return &m, nil
}

// SaveMembership inserts or replaces the (club, user) membership.
func (s *Store) SaveMembership(ctx context.Context, m *domain.Membership) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO club_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (club_id, user_id) DO UPDATE SET
			role = excluded.role,
			status = excluded.status,
			joined_at = excluded.joined_at`,
		m.ClubID, m.UserID, string(m.Role), string(m.Status), formatTime(m.JoinedAt),
	)
	return mapErr(err)
}

// GetMembership returns the membership row regardless of status.
func (s *Store) GetMembership(ctx context.Context, clubID, userID string) (*domain.Membership, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM club_members WHERE club_id = ? AND user_id = ?`, clubID, userID)
	m, err := scanMembership(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

// ListActiveMembers returns ACTIVE members in join order.
func (s *Store) ListActiveMembers(ctx context.Context, clubID string) ([]*domain.Membership, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+memberColumns+` FROM club_members
		WHERE club_id = ? AND status = 'ACTIVE'
		ORDER BY joined_at, user_id`, clubID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var members []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
