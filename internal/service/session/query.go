package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
)

func (s *Service) GetSession(ctx context.Context, id string) (sess *domain.Session, err error) {
	ctx, cancel, span := s.begin(ctx, "GetSession")
	defer cancel()
	defer func() { s.finish(span, "get", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidArgument)
	}
	return s.lookup(ctx, id, "")
}

func (s *Service) GetSessionByNumber(ctx context.Context, number string) (sess *domain.Session, err error) {
	ctx, cancel, span := s.begin(ctx, "GetSessionByNumber")
	defer cancel()
	defer func() { s.finish(span, "get_by_number", err) }()

	number = strings.TrimSpace(number)
	if number == "" {
		return nil, fmt.Errorf("%w: session number is required", domain.ErrInvalidArgument)
	}
	return s.lookup(ctx, "", number)
}

// ListActiveSessions returns open sessions, most recent entry first.
func (s *Service) ListActiveSessions(ctx context.Context) (list []domain.Session, err error) {
	ctx, cancel, span := s.begin(ctx, "ListActiveSessions")
	defer cancel()
	defer func() { s.finish(span, "list_active", err) }()

	list, err = circuitbreaker.Do(ctx, s.guard, "list open sessions", s.sessions.ListOpen)
	if err != nil {
		return nil, err
	}
	sortByEntryDesc(list)
	return list, nil
}

// ListSessions returns sessions whose entry falls in [from, to], most recent
// first. Nil bounds are open.
func (s *Service) ListSessions(ctx context.Context, from, to *time.Time) (list []domain.Session, err error) {
	ctx, cancel, span := s.begin(ctx, "ListSessions")
	defer cancel()
	defer func() { s.finish(span, "list", err) }()

	if from != nil && to != nil && from.After(*to) {
		return nil, fmt.Errorf("%w: from is after to", domain.ErrInvalidArgument)
	}
	filter := domain.SessionFilter{From: from, To: to}
	list, err = circuitbreaker.Do(ctx, s.guard, "list sessions", func(ctx context.Context) ([]domain.Session, error) {
		return s.sessions.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	sortByEntryDesc(list)
	return list, nil
}

// QuoteSession prices an open session as if it closed at the given instant,
// without changing it.
func (s *Service) QuoteSession(ctx context.Context, id string, at time.Time) (inv *domain.Invoice, err error) {
	ctx, cancel, span := s.begin(ctx, "QuoteSession")
	defer cancel()
	defer func() { s.finish(span, "quote", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidArgument)
	}
	if at.IsZero() {
		return nil, fmt.Errorf("%w: quote time is required", domain.ErrInvalidArgument)
	}

	sess, err := s.lookup(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if !sess.IsOpen() {
		return nil, fmt.Errorf("%w: session %s is already closed", domain.ErrConflict, sess.SessionNumber)
	}
	return s.price(ctx, sess, at)
}

func sortByEntryDesc(list []domain.Session) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].EntryTime.Equal(list[j].EntryTime) {
			return list[i].EntryTime.After(list[j].EntryTime)
		}
		return list[i].ID > list[j].ID
	})
}
