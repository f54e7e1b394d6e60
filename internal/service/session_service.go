package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
	"github.com/TezottoWell/app-rodrigo-martins/internal/session"
)

// SessionService runs one training session per client. Sessions live in
// memory only; progress reaches storage at Acknowledge.
type SessionService interface {
	Start(ctx context.Context, userID, planID primitive.ObjectID, day int) (session.Snapshot, error)
	State(ctx context.Context, userID primitive.ObjectID) (session.Snapshot, error)
	CompleteItem(ctx context.Context, userID primitive.ObjectID, index int) (session.Snapshot, error)
	Acknowledge(ctx context.Context, userID primitive.ObjectID) (session.Completion, error)
	Leave(ctx context.Context, userID primitive.ObjectID) (session.Snapshot, error)
}

type playerEntry struct {
	mu     sync.Mutex
	player *session.Player
	refs   int // guarded by sessionService.mu
}

type sessionService struct {
	userRepo repository.UserRepository
	planRepo repository.WorkoutPlanRepository
	clock    session.Clock

	mu      sync.Mutex
	players map[primitive.ObjectID]*playerEntry
}

// NewSessionService creates a new instance of sessionService. A nil clock
// uses the wall clock.
func NewSessionService(userRepo repository.UserRepository, planRepo repository.WorkoutPlanRepository, clock session.Clock) SessionService {
	if clock == nil {
		clock = session.SystemClock
	}
	return &sessionService{
		userRepo: userRepo,
		planRepo: planRepo,
		clock:    clock,
		players:  map[primitive.ObjectID]*playerEntry{},
	}
}

// entry returns the locked player entry of userID, creating it if needed.
// Every entry must be handed back with release.
func (s *sessionService) entry(userID primitive.ObjectID) *playerEntry {
	s.mu.Lock()
	e, ok := s.players[userID]
	if !ok {
		e = &playerEntry{player: session.NewPlayer(s.clock)}
		s.players[userID] = e
	}
	e.refs++
	s.mu.Unlock()
	e.mu.Lock()
	return e
}

// release unlocks e and forgets it once no call holds it and its player is
// Idle, so the map only keeps clients with a session under way.
func (s *sessionService) release(userID primitive.ObjectID, e *playerEntry) {
	idle := e.player.State() == session.StateIdle
	e.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs == 0 && idle && s.players[userID] == e {
		delete(s.players, userID)
	}
}

func (s *sessionService) Start(ctx context.Context, userID, planID primitive.ObjectID, day int) (session.Snapshot, error) {
	if _, err := activeUser(ctx, s.userRepo, userID); err != nil {
		return session.Snapshot{}, err
	}
	plan, err := ownedPlan(ctx, s.planRepo, userID, planID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if plan.ResetIfNewWeek(s.clock.Now()) {
		if err := s.planRepo.UpdateCompletion(ctx, plan.ID, plan.CompletedDays, plan.LastUpdatedAt); err != nil {
			return session.Snapshot{}, fromRepo("session", "weekly reset", "plan", plan.ID, err)
		}
	}

	e := s.entry(userID)
	defer s.release(userID, e)
	if err := e.player.SelectDay(plan, day); err != nil {
		return session.Snapshot{}, err
	}
	log.Debug().Str("uid", userID.Hex()).Str("planId", planID.Hex()).Int("day", day).Msg("session started")
	return e.player.Snapshot(), nil
}

func (s *sessionService) State(ctx context.Context, userID primitive.ObjectID) (session.Snapshot, error) {
	e := s.entry(userID)
	defer s.release(userID, e)
	e.player.Sync()
	return e.player.Snapshot(), nil
}

func (s *sessionService) CompleteItem(ctx context.Context, userID primitive.ObjectID, index int) (session.Snapshot, error) {
	e := s.entry(userID)
	defer s.release(userID, e)
	e.player.Sync()
	if err := e.player.CompleteItem(index); err != nil {
		return session.Snapshot{}, err
	}
	return e.player.Snapshot(), nil
}

// Acknowledge records the finished day. Completion marks are merged against
// the stored plan, so days removed by an edit during the session are not
// written back.
func (s *sessionService) Acknowledge(ctx context.Context, userID primitive.ObjectID) (session.Completion, error) {
	e := s.entry(userID)
	defer s.release(userID, e)
	return e.player.Acknowledge(func(updated *domain.WorkoutPlan) error {
		current, err := s.planRepo.GetByID(ctx, updated.ID)
		if err != nil {
			return fromRepo("session", "acknowledge", "plan", updated.ID, err)
		}
		completed := updated.CompletedDays.Within(current.PopulatedDays())
		if err := s.planRepo.UpdateCompletion(ctx, updated.ID, completed, updated.LastUpdatedAt); err != nil {
			return fromRepo("session", "acknowledge", "plan", updated.ID, err)
		}
		updated.CompletedDays = completed
		return nil
	})
}

func (s *sessionService) Leave(ctx context.Context, userID primitive.ObjectID) (session.Snapshot, error) {
	e := s.entry(userID)
	defer s.release(userID, e)
	if err := e.player.LeaveDay(); err != nil {
		return session.Snapshot{}, err
	}
	return e.player.Snapshot(), nil
}
