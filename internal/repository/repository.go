package repository

import (
	"context"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrDuplicateKey  = RepositoryError("duplicate key")
	ErrWatchNotReady = RepositoryError("change stream unavailable")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanChange is delivered to Watch subscribers. Plan is nil when the
// document was deleted.
type PlanChange struct {
	PlanID primitive.ObjectID
	Plan   *domain.WorkoutPlan
	Err    error
}

// Unsubscribe stops a subscription. Calling it more than once is harmless.
type Unsubscribe func()

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// SearchClients matches clients whose lowercased name starts with prefix.
	SearchClients(ctx context.Context, prefix string, limit int64) ([]domain.User, error)
	SetActivePlan(ctx context.Context, id primitive.ObjectID, active bool) error
	SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
	SetPhotoKey(ctx context.Context, id primitive.ObjectID, key string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutPlanRepository stores client plans (collection "treinos").
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	// ListByOwner returns the owner's plans, newest first.
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	ListByOwnerAndFrequency(ctx context.Context, ownerID primitive.ObjectID, frequency int) ([]domain.WorkoutPlan, error)
	// UpdateContent replaces frequency, days and completedDays.
	UpdateContent(ctx context.Context, plan *domain.WorkoutPlan) error
	UpdateCompletion(ctx context.Context, id primitive.ObjectID, completed domain.DaySet, lastUpdatedAt time.Time) error
	Rename(ctx context.Context, id primitive.ObjectID, customName string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error)
	// Watch calls onChange for every change to the plan until the returned
	// Unsubscribe is called or ctx ends.
	Watch(ctx context.Context, id primitive.ObjectID, onChange func(PlanChange)) (Unsubscribe, error)
}

// TemplateRepository stores workout templates (collection "treinosModelo").
type TemplateRepository interface {
	Create(ctx context.Context, tpl *domain.WorkoutTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	// List returns templates ordered by level then creation time.
	List(ctx context.Context) ([]domain.WorkoutTemplate, error)
	Update(ctx context.Context, tpl *domain.WorkoutTemplate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByLevel(ctx context.Context, level string) (int64, error)
}

// LevelRepository stores custom levels (collection "niveisPersonalizados").
type LevelRepository interface {
	Create(ctx context.Context, level *domain.CustomLevel) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CustomLevel, error)
	List(ctx context.Context) ([]domain.CustomLevel, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AccessRequestRepository stores access requests (collection "solicitacoes").
type AccessRequestRepository interface {
	Create(ctx context.Context, req *domain.AccessRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AccessRequest, error)
	// List returns requests newest first; an empty status matches all.
	List(ctx context.Context, status domain.RequestStatus) ([]domain.AccessRequest, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.AccessRequest, error)
	FindPendingByUser(ctx context.Context, userID primitive.ObjectID) (*domain.AccessRequest, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, respondedAt time.Time) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// WeightRepository stores body-weight entries (collection "weights").
type WeightRepository interface {
	Create(ctx context.Context, entry *domain.WeightEntry) (primitive.ObjectID, error)
	// ListByUser returns entries newest first.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightEntry, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
