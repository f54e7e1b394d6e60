// Package memory keeps every collection in process memory. It backs the
// "memory" database driver and the service and API tests.
package memory

import (
	"sync"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all collections behind one lock.
type Store struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]domain.User
	plans     map[primitive.ObjectID]*domain.WorkoutPlan
	templates map[primitive.ObjectID]*domain.WorkoutTemplate
	levels    map[primitive.ObjectID]domain.CustomLevel
	requests  map[primitive.ObjectID]domain.AccessRequest
	weights   map[primitive.ObjectID]domain.WeightEntry
	watchers  map[primitive.ObjectID]map[int]func(repository.PlanChange)
	nextWatch int

	// Fail, when set, is consulted before every write; a non-nil result is
	// returned instead of performing it. Tests use it to simulate outages.
	Fail func(collection, op string) error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     map[primitive.ObjectID]domain.User{},
		plans:     map[primitive.ObjectID]*domain.WorkoutPlan{},
		templates: map[primitive.ObjectID]*domain.WorkoutTemplate{},
		levels:    map[primitive.ObjectID]domain.CustomLevel{},
		requests:  map[primitive.ObjectID]domain.AccessRequest{},
		weights:   map[primitive.ObjectID]domain.WeightEntry{},
		watchers:  map[primitive.ObjectID]map[int]func(repository.PlanChange){},
	}
}

func (s *Store) fail(collection, op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(collection, op)
}

// Users returns the users collection.
func (s *Store) Users() repository.UserRepository { return &userRepository{s} }

// Plans returns the workout plans collection.
func (s *Store) Plans() repository.WorkoutPlanRepository { return &planRepository{s} }

// Templates returns the templates collection.
func (s *Store) Templates() repository.TemplateRepository { return &templateRepository{s} }

// Levels returns the custom levels collection.
func (s *Store) Levels() repository.LevelRepository { return &levelRepository{s} }

// AccessRequests returns the access requests collection.
func (s *Store) AccessRequests() repository.AccessRequestRepository {
	return &accessRequestRepository{s}
}

// Weights returns the weight entries collection.
func (s *Store) Weights() repository.WeightRepository { return &weightRepository{s} }
