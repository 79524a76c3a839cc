// Package service implements BookCrush's business operations on top of the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
)

// Recorder receives business metrics. *metrics.Metrics implements it.
type Recorder interface {
	SuggestionCreated()
	VoteChanged(voted bool)
	CycleStarted()
	CycleEnded(winners int)
	BookSelected()
}

type nopRecorder struct{}

func (nopRecorder) SuggestionCreated() {}
func (nopRecorder) VoteChanged(bool)   {}
func (nopRecorder) CycleStarted()      {}
func (nopRecorder) CycleEnded(int)     {}
func (nopRecorder) BookSelected()      {}

type nopEmitter struct{}

func (nopEmitter) Emit(sse.Event) {}

// Deps bundles the collaborators every club-scoped service needs.
type Deps struct {
	Store   store.Store
	Events  sse.Emitter
	Metrics Recorder
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = nopEmitter{}
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// mapStoreErr turns store sentinels into domain errors. what names the entity
// for NotFound messages. Lock contention surfaces as Internal so callers retry.
func mapStoreErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrBusy):
		return domainerrors.Internal("database busy, retry the request").WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(what + " already exists").WithCause(err)
	}

	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s: %w", what, err)
}

// clubAccess loads a club and the caller's membership. An unknown club is
// NotFound; a caller without an ACTIVE membership gets AccessDenied.
func clubAccess(ctx context.Context, q store.Queries, clubID, userID string) (*domain.Club, *domain.Membership, error) {
	club, err := q.GetClub(ctx, clubID)
	if err != nil {
		return nil, nil, mapStoreErr(err, "club")
	}

	m, err := q.GetMembership(ctx, clubID, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, mapStoreErr(err, "membership")
	}
	if !m.IsActive() {
		return nil, nil, domainerrors.AccessDenied("you are not a member of this club")
	}
	return club, m, nil
}

// clubManager is clubAccess for OWNER/ADMIN operations. Anyone else, members
// and non-members alike, gets InsufficientRole.
func clubManager(ctx context.Context, q store.Queries, clubID, userID string) (*domain.Club, *domain.Membership, error) {
	club, m, err := clubAccess(ctx, q, clubID, userID)
	if errors.Is(err, domainerrors.ErrAccessDenied) {
		return nil, nil, domainerrors.InsufficientRole("only club owners and admins can do this")
	}
	if err != nil {
		return nil, nil, err
	}
	if !m.Role.CanManage() {
		return nil, nil, domainerrors.InsufficientRole("only club owners and admins can do this")
	}
	return club, m, nil
}
