package cards

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when an operation references a session
	// that does not exist (or has already ended).
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptySequence is returned when creating a session (or replacing a
	// sequence) with no cards.
	ErrEmptySequence = errors.New("sequence has no cards")
)

// Service applies session lifecycle and navigation policy and delegates
// storage to Repository. Each created session gets its own Tracker; the
// MediaLoader and Preloader are shared, since they hold no per-session state
// beyond tracked hints.
type Service struct {
	repo      Repository
	loader    MediaLoader
	preloader Preloader
	timing    Timing
	hooks     TrackerHooks
	log       *slog.Logger
}

// NewService returns a Service using repo for session storage. hooks may be
// zero; log may be nil.
func NewService(repo Repository, loader MediaLoader, preloader Preloader, timing Timing, hooks TrackerHooks, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		loader:    loader,
		preloader: preloader,
		timing:    timing.withDefaults(),
		hooks:     hooks,
		log:       log,
	}
}

// CreateSession builds a session for seq starting at startIndex (clamped to
// 0 when out of bounds) and registers it. The sequence must have at least
// one card.
func (s *Service) CreateSession(seq Sequence, startIndex int) (*Session, error) {
	if seq.Len() == 0 {
		return nil, ErrEmptySequence
	}

	tracker := NewTrackerWithHooks(s.loader, s.timing, s.hooks)
	sess := &Session{
		ID:           SessionID(uuid.NewString()),
		Orchestrator: NewOrchestrator(seq, startIndex, tracker, s.preloader, s.log),
	}
	if err := s.repo.AddSession(sess); err != nil {
		sess.Orchestrator.Close()
		return nil, err
	}
	return sess, nil
}

// Navigate requests navigation to target and returns the post-request state.
// started is false when the request was rejected as a no-op.
func (s *Service) Navigate(id SessionID, target int) (state SessionState, started bool, err error) {
	sess, ok := s.repo.GetSession(id)
	if !ok {
		return SessionState{}, false, ErrSessionNotFound
	}
	started = sess.Orchestrator.RequestNavigate(target)
	return sess.State(), started, nil
}

// Next requests navigation one card forward.
func (s *Service) Next(id SessionID) (SessionState, bool, error) {
	sess, ok := s.repo.GetSession(id)
	if !ok {
		return SessionState{}, false, ErrSessionNotFound
	}
	started := sess.Orchestrator.Next()
	return sess.State(), started, nil
}

// Previous requests navigation one card back.
func (s *Service) Previous(id SessionID) (SessionState, bool, error) {
	sess, ok := s.repo.GetSession(id)
	if !ok {
		return SessionState{}, false, ErrSessionNotFound
	}
	started := sess.Orchestrator.Previous()
	return sess.State(), started, nil
}

// MarkMounted forwards the rendering surface's mount signal for the pending
// card.
func (s *Service) MarkMounted(id SessionID) (SessionState, error) {
	sess, ok := s.repo.GetSession(id)
	if !ok {
		return SessionState{}, ErrSessionNotFound
	}
	sess.Orchestrator.MarkMounted()
	return sess.State(), nil
}

// State returns the session's current snapshot.
func (s *Service) State(id SessionID) (SessionState, error) {
	sess, ok := s.repo.GetSession(id)
	if !ok {
		return SessionState{}, ErrSessionNotFound
	}
	return sess.State(), nil
}

// ReplaceSequence swaps the session's card list, abandoning any in-flight
// transition.
func (s *Service) ReplaceSequence(id SessionID, seq Sequence) (SessionState, error) {
	if seq.Len() == 0 {
		return SessionState{}, ErrEmptySequence
	}
	sess, ok := s.repo.GetSession(id)
	if !ok {
		return SessionState{}, ErrSessionNotFound
	}
	sess.Orchestrator.ReplaceSequence(seq)
	return sess.State(), nil
}

// EndSession removes the session and releases its readiness resources.
// Ending an absent session is a no-op for idempotency.
func (s *Service) EndSession(id SessionID) error {
	sess, ok := s.repo.RemoveSession(id)
	if !ok {
		return nil
	}
	sess.Orchestrator.Close()
	return nil
}

// ActiveSessionCount returns the number of live sessions.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}
