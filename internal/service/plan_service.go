package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/authoring"
	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
)

// PlanService covers the admin authoring surface over stored plans and the
// client's view of its own plans.
type PlanService interface {
	// Admin
	CreatePlan(ctx context.Context, ownerID primitive.ObjectID, b *authoring.Builder) (*domain.WorkoutPlan, error)
	GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	ListUserPlans(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	AddItem(ctx context.Context, planID primitive.ObjectID, day int, item authoring.ItemDraft) (*domain.WorkoutPlan, error)
	ReplaceItem(ctx context.Context, planID primitive.ObjectID, day, index int, item authoring.ItemDraft) (*domain.WorkoutPlan, error)
	RemoveItem(ctx context.Context, planID primitive.ObjectID, day, index int, confirm domain.Confirm) (*domain.WorkoutPlan, error)
	RemoveComboMember(ctx context.Context, planID primitive.ObjectID, day, index, member int, confirm domain.Confirm) (*domain.WorkoutPlan, *authoring.ComboCollapsed, error)
	CopyDay(ctx context.Context, planID primitive.ObjectID, from, to int, confirm domain.Confirm) (*domain.WorkoutPlan, error)
	ChangeFrequency(ctx context.Context, planID primitive.ObjectID, frequency int, confirm domain.Confirm) (*domain.WorkoutPlan, error)
	Rename(ctx context.Context, planID primitive.ObjectID, name string) (*domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, planID primitive.ObjectID, confirm domain.Confirm) error

	// Client
	ListClientPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetClientPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	RenameClientPlan(ctx context.Context, userID, planID primitive.ObjectID, name string) (*domain.WorkoutPlan, error)
	Watch(ctx context.Context, userID, planID primitive.ObjectID, onChange func(repository.PlanChange)) (repository.Unsubscribe, error)
}

type planService struct {
	userRepo repository.UserRepository
	planRepo repository.WorkoutPlanRepository
	now      func() time.Time
}

// NewPlanService creates a new instance of planService.
func NewPlanService(userRepo repository.UserRepository, planRepo repository.WorkoutPlanRepository) PlanService {
	return &planService{
		userRepo: userRepo,
		planRepo: planRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// === Admin ===

// CreatePlan stores the builder's content as a new plan for ownerID.
func (s *planService) CreatePlan(ctx context.Context, ownerID primitive.ObjectID, b *authoring.Builder) (*domain.WorkoutPlan, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fromRepo("plans", "create", "user", ownerID, err)
	}
	plan := &domain.WorkoutPlan{
		OwnerID:       owner.ID,
		OwnerName:     owner.Name,
		Frequency:     b.Frequency(),
		Days:          b.Days().Pruned(),
		CompletedDays: domain.DaySet{},
		CreatedAt:     s.now(),
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, persistFailure("plans", "create", err, map[string]string{"userId": ownerID.Hex()})
	}
	b.MarkSaved()
	log.Info().Str("planId", plan.ID.Hex()).Str("uid", ownerID.Hex()).Int("frequency", plan.Frequency).Msg("plan created")
	return plan, nil
}

func (s *planService) GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fromRepo("plans", "get", "plan", planID, err)
	}
	return plan, nil
}

func (s *planService) ListUserPlans(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		return nil, fromRepo("plans", "list", "user", ownerID, err)
	}
	plans, err := s.planRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, persistFailure("plans", "list", err, map[string]string{"userId": ownerID.Hex()})
	}
	return plans, nil
}

func (s *planService) AddItem(ctx context.Context, planID primitive.ObjectID, day int, item authoring.ItemDraft) (*domain.WorkoutPlan, error) {
	return s.edit(ctx, planID, "add item", func(b *authoring.Builder) error {
		if err := b.SelectDay(day); err != nil {
			return err
		}
		return b.AddDraft(item)
	})
}

func (s *planService) ReplaceItem(ctx context.Context, planID primitive.ObjectID, day, index int, item authoring.ItemDraft) (*domain.WorkoutPlan, error) {
	return s.edit(ctx, planID, "replace item", func(b *authoring.Builder) error {
		return b.ReplaceDraft(day, index, item)
	})
}

func (s *planService) RemoveItem(ctx context.Context, planID primitive.ObjectID, day, index int, confirm domain.Confirm) (*domain.WorkoutPlan, error) {
	return s.edit(ctx, planID, "remove item", func(b *authoring.Builder) error {
		if index >= 0 && index < len(b.Day(day)) {
			if err := domain.Ask(confirm, domain.Prompt{
				Kind:    domain.PromptRemoveItem,
				Message: fmt.Sprintf("Remove item %d from day %d?", index+1, day),
			}); err != nil {
				return err
			}
		}
		_, err := b.RemoveItem(day, index)
		return err
	})
}

func (s *planService) RemoveComboMember(ctx context.Context, planID primitive.ObjectID, day, index, member int, confirm domain.Confirm) (*domain.WorkoutPlan, *authoring.ComboCollapsed, error) {
	var collapsed *authoring.ComboCollapsed
	plan, err := s.edit(ctx, planID, "remove combo member", func(b *authoring.Builder) error {
		items := b.Day(day)
		if index >= 0 && index < len(items) && items[index].IsCombo() {
			if err := domain.Ask(confirm, domain.Prompt{
				Kind:    domain.PromptRemoveComboMember,
				Message: fmt.Sprintf("Remove exercise %d from the combo?", member+1),
			}); err != nil {
				return err
			}
		}
		var err error
		collapsed, err = b.RemoveComboMember(day, index, member)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return plan, collapsed, nil
}

func (s *planService) CopyDay(ctx context.Context, planID primitive.ObjectID, from, to int, confirm domain.Confirm) (*domain.WorkoutPlan, error) {
	return s.edit(ctx, planID, "copy day", func(b *authoring.Builder) error {
		if b.NeedsOverwriteConfirmation(to) && len(b.Day(from)) > 0 && from != to {
			if err := domain.Ask(confirm, domain.Prompt{
				Kind:    domain.PromptOverwriteDay,
				Message: fmt.Sprintf("Day %d already has exercises. Replace them with day %d?", to, from),
			}); err != nil {
				return err
			}
		}
		return b.CopyDay(from, to)
	})
}

func (s *planService) ChangeFrequency(ctx context.Context, planID primitive.ObjectID, frequency int, confirm domain.Confirm) (*domain.WorkoutPlan, error) {
	return s.edit(ctx, planID, "change frequency", func(b *authoring.Builder) error {
		if dropped := b.DroppedBy(frequency); len(dropped) > 0 && domain.ValidateFrequency(frequency) == nil {
			if err := domain.Ask(confirm, domain.Prompt{
				Kind:    domain.PromptReduceFrequency,
				Message: fmt.Sprintf("Days %v have exercises and will be removed. Continue?", dropped),
			}); err != nil {
				return err
			}
		}
		return b.SetFrequency(frequency)
	})
}

// edit reopens the stored plan in a builder, applies fn and saves the result.
func (s *planService) edit(ctx context.Context, planID primitive.ObjectID, action string, fn func(*authoring.Builder) error) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fromRepo("plans", action, "plan", planID, err)
	}
	b, err := authoring.FromDays(plan.Frequency, plan.Days)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	plan.ApplyDays(b.Frequency(), b.Days().Pruned())
	if err := s.planRepo.UpdateContent(ctx, plan); err != nil {
		return nil, fromRepo("plans", action, "plan", planID, err)
	}
	return plan, nil
}

func (s *planService) Rename(ctx context.Context, planID primitive.ObjectID, name string) (*domain.WorkoutPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("customName", "must not be empty")
	}
	if err := s.planRepo.Rename(ctx, planID, name); err != nil {
		return nil, fromRepo("plans", "rename", "plan", planID, err)
	}
	return s.GetPlan(ctx, planID)
}

func (s *planService) DeletePlan(ctx context.Context, planID primitive.ObjectID, confirm domain.Confirm) error {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	if err := domain.Ask(confirm, domain.Prompt{
		Kind:    domain.PromptDeletePlan,
		Message: fmt.Sprintf("Delete %q of %s?", plan.DisplayName(), plan.OwnerName),
	}); err != nil {
		return err
	}
	if err := s.planRepo.Delete(ctx, planID); err != nil {
		return fromRepo("plans", "delete", "plan", planID, err)
	}
	log.Info().Str("planId", planID.Hex()).Msg("plan deleted")
	return nil
}

// === Client ===

// activeUser loads userID and checks its training area is unlocked.
// Admins always pass.
func activeUser(ctx context.Context, users repository.UserRepository, userID primitive.ObjectID) (*domain.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, fromRepo("access", "check", "user", userID, err)
	}
	if !user.IsAdmin() && !user.ActivePlan {
		return nil, ErrAccessInactive
	}
	return user, nil
}

// ownedPlan loads planID and checks userID owns it.
func ownedPlan(ctx context.Context, plans repository.WorkoutPlanRepository, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := plans.GetByID(ctx, planID)
	if err != nil {
		return nil, fromRepo("plans", "get", "plan", planID, err)
	}
	if plan.OwnerID != userID {
		return nil, ErrForbidden
	}
	return plan, nil
}

// ListClientPlans returns the client's plans newest first, clearing stale
// weekly progress on the way. A failed reset write is logged and the
// cleared plan is still returned.
func (s *planService) ListClientPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	if _, err := activeUser(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	plans, err := s.planRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, persistFailure("plans", "list", err, map[string]string{"userId": userID.Hex()})
	}
	now := s.now()
	for i := range plans {
		s.weeklyReset(ctx, &plans[i], now)
	}
	return plans, nil
}

// weeklyReset clears stale progress on p and writes it back. A failed write
// is logged; p keeps the cleared state.
func (s *planService) weeklyReset(ctx context.Context, p *domain.WorkoutPlan, now time.Time) {
	if !p.ResetIfNewWeek(now) {
		return
	}
	if err := s.planRepo.UpdateCompletion(ctx, p.ID, p.CompletedDays, p.LastUpdatedAt); err != nil {
		_ = persistFailure("plans", "weekly reset", err, map[string]string{"planId": p.ID.Hex()})
	}
}

// GetClientPlan returns one of the client's plans with the weekly reset
// applied.
func (s *planService) GetClientPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	if _, err := activeUser(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	plan, err := ownedPlan(ctx, s.planRepo, userID, planID)
	if err != nil {
		return nil, err
	}
	s.weeklyReset(ctx, plan, s.now())
	return plan, nil
}

func (s *planService) RenameClientPlan(ctx context.Context, userID, planID primitive.ObjectID, name string) (*domain.WorkoutPlan, error) {
	if _, err := s.GetClientPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.Rename(ctx, planID, name)
}

// Watch subscribes to changes of one of the client's plans.
func (s *planService) Watch(ctx context.Context, userID, planID primitive.ObjectID, onChange func(repository.PlanChange)) (repository.Unsubscribe, error) {
	if _, err := s.GetClientPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	unsubscribe, err := s.planRepo.Watch(ctx, planID, onChange)
	if err != nil {
		if errors.Is(err, repository.ErrWatchNotReady) {
			return nil, err
		}
		return nil, persistFailure("plans", "watch", err, map[string]string{"planId": planID.Hex()})
	}
	return unsubscribe, nil
}
