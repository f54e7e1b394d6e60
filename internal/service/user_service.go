package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
	"github.com/TezottoWell/app-rodrigo-martins/internal/storage"
)

// Client search bounds.
const (
	SearchMinChars = 3
	SearchLimit    = 20
)

// CascadeReport summarizes an account deletion. Failures lists the related
// collections that could not be cleaned up; the account itself is gone.
type CascadeReport struct {
	PlansDeleted    int64    `json:"plansDeleted"`
	WeightsDeleted  int64    `json:"weightsDeleted"`
	RequestsDeleted int64    `json:"requestsDeleted"`
	Failures        []string `json:"failures,omitempty"`
}

type UserService interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// SearchClients matches clients by name prefix once the query has at
	// least SearchMinChars characters; shorter queries return nothing.
	SearchClients(ctx context.Context, query string) ([]domain.User, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*domain.User, error)
	// ToggleAdmin flips id between admin and client. Admins cannot demote
	// themselves.
	ToggleAdmin(ctx context.Context, actorID, id primitive.ObjectID) (*domain.User, error)
	// DeleteUser removes the account, then its plans, weights and access
	// requests one after another. Cleanup failures are logged and reported,
	// never retried.
	DeleteUser(ctx context.Context, actorID, id primitive.ObjectID, confirm domain.Confirm) (*CascadeReport, error)
	PromoteByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	planRepo    repository.WorkoutPlanRepository
	weightRepo  repository.WeightRepository
	requestRepo repository.AccessRequestRepository
	fileStorage storage.FileStorage
}

// NewUserService creates a new instance of userService.
func NewUserService(
	userRepo repository.UserRepository,
	planRepo repository.WorkoutPlanRepository,
	weightRepo repository.WeightRepository,
	requestRepo repository.AccessRequestRepository,
	fileStorage storage.FileStorage,
) UserService {
	return &userService{
		userRepo:    userRepo,
		planRepo:    planRepo,
		weightRepo:  weightRepo,
		requestRepo: requestRepo,
		fileStorage: fileStorage,
	}
}

func (s *userService) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo("users", "get", "user", id, err)
	}
	return user, nil
}

func (s *userService) SearchClients(ctx context.Context, query string) ([]domain.User, error) {
	key := domain.SearchKey(query)
	if len([]rune(key)) < SearchMinChars {
		return []domain.User{}, nil
	}
	users, err := s.userRepo.SearchClients(ctx, key, SearchLimit)
	if err != nil {
		return nil, persistFailure("users", "search", err, nil)
	}
	return users, nil
}

func (s *userService) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*domain.User, error) {
	if err := s.userRepo.SetActivePlan(ctx, id, active); err != nil {
		return nil, fromRepo("users", "set active", "user", id, err)
	}
	return s.GetUser(ctx, id)
}

func (s *userService) ToggleAdmin(ctx context.Context, actorID, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	role := domain.RoleAdmin
	if user.IsAdmin() {
		if actorID == id {
			return nil, domain.Invalid("role", "admins cannot remove their own admin role")
		}
		role = domain.RoleClient
	}
	if err := s.userRepo.SetRole(ctx, id, role); err != nil {
		return nil, fromRepo("users", "set role", "user", id, err)
	}
	log.Info().Str("uid", id.Hex()).Str("role", string(role)).Str("by", actorID.Hex()).Msg("role changed")
	user.Role = role
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id primitive.ObjectID, confirm domain.Confirm) (*CascadeReport, error) {
	if actorID == id {
		return nil, domain.Invalid("userId", "admins cannot delete their own account")
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Ask(confirm, domain.Prompt{
		Kind:    domain.PromptDeleteUser,
		Message: fmt.Sprintf("Delete %s and all of their plans, weights and requests?", user.Name),
	}); err != nil {
		return nil, err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return nil, fromRepo("users", "delete", "user", id, err)
	}

	report := &CascadeReport{}
	ids := map[string]string{"userId": id.Hex()}
	cleanup := func(name string, fn func() (int64, error)) int64 {
		n, err := fn()
		if err != nil {
			_ = persistFailure("users", "delete "+name, err, ids)
			report.Failures = append(report.Failures, name)
		}
		return n
	}
	report.PlansDeleted = cleanup("plans", func() (int64, error) { return s.planRepo.DeleteByOwner(ctx, id) })
	report.WeightsDeleted = cleanup("weights", func() (int64, error) { return s.weightRepo.DeleteByUser(ctx, id) })
	report.RequestsDeleted = cleanup("requests", func() (int64, error) { return s.requestRepo.DeleteByUser(ctx, id) })
	if user.PhotoKey != "" {
		cleanup("photo", func() (int64, error) { return 1, s.fileStorage.DeleteObject(ctx, user.PhotoKey) })
	}

	log.Info().Str("uid", id.Hex()).
		Int64("plans", report.PlansDeleted).
		Int64("weights", report.WeightsDeleted).
		Int64("requests", report.RequestsDeleted).
		Strs("failures", report.Failures).
		Msg("user deleted")
	return report, nil
}

func (s *userService) PromoteByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &domain.NotFoundError{Resource: "user", ID: email}
	}
	if err != nil {
		return nil, persistFailure("users", "promote", err, map[string]string{"email": email})
	}
	if user.IsAdmin() {
		return user, nil
	}
	if err := s.userRepo.SetRole(ctx, user.ID, domain.RoleAdmin); err != nil {
		return nil, fromRepo("users", "promote", "user", user.ID, err)
	}
	user.Role = domain.RoleAdmin
	return user, nil
}
