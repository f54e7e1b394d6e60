// internal/repository/mongo/workout_plan_repo.go
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoWorkoutPlanRepository implements repository.WorkoutPlanRepository
type mongoWorkoutPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutPlanRepository creates a new WorkoutPlan repository.
func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{
		collection: db.Collection(PlanCollection),
	}
}

// checkPlan validates a decoded plan so malformed documents never reach
// callers.
func checkPlan(plan *domain.WorkoutPlan) error {
	plan.CompletedDays = plan.CompletedDays.Normalize()
	if plan.Days == nil {
		plan.Days = domain.DayPlans{}
	}
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("plan %s: %w", plan.ID.Hex(), err)
	}
	return nil
}

// Create inserts a new plan.
func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if err := plan.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	plan.ID = primitive.NewObjectID()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	if plan.CompletedDays == nil {
		plan.CompletedDays = domain.DaySet{}
	}

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a single plan by its ID.
func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.collection.FindOne(ctx, byID(id)).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := checkPlan(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListByOwner retrieves all plans of a client, newest first.
func (r *mongoWorkoutPlanRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{"ownerId": ownerID})
}

// ListByOwnerAndFrequency narrows ListByOwner to one frequency.
func (r *mongoWorkoutPlanRepository) ListByOwnerAndFrequency(ctx context.Context, ownerID primitive.ObjectID, frequency int) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{"ownerId": ownerID, "frequency": frequency})
}

func (r *mongoWorkoutPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.WorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.WorkoutPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	for i := range plans {
		if err := checkPlan(&plans[i]); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// UpdateContent replaces frequency, days and completion marks.
func (r *mongoWorkoutPlanRepository) UpdateContent(ctx context.Context, plan *domain.WorkoutPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	return r.set(ctx, plan.ID, bson.M{
		"frequency":     plan.Frequency,
		"days":          plan.Days,
		"completedDays": plan.CompletedDays,
	})
}

// UpdateCompletion stores the completed days and the time of the change.
func (r *mongoWorkoutPlanRepository) UpdateCompletion(ctx context.Context, id primitive.ObjectID, completed domain.DaySet, lastUpdatedAt time.Time) error {
	if completed == nil {
		completed = domain.DaySet{}
	}
	return r.set(ctx, id, bson.M{
		"completedDays": completed,
		"lastUpdatedAt": lastUpdatedAt,
	})
}

// Rename sets the custom display name.
func (r *mongoWorkoutPlanRepository) Rename(ctx context.Context, id primitive.ObjectID, customName string) error {
	return r.set(ctx, id, bson.M{"customName": customName})
}

func (r *mongoWorkoutPlanRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := r.collection.UpdateOne(ctx, byID(id), bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes one plan.
func (r *mongoWorkoutPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByOwner removes every plan of a client.
func (r *mongoWorkoutPlanRepository) DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// planEvent is the subset of a change stream event we read.
type planEvent struct {
	OperationType string              `bson:"operationType"`
	FullDocument  *domain.WorkoutPlan `bson:"fullDocument"`
}

// Watch opens a change stream on one plan document. Change streams need a
// replica set; on a standalone server the open fails.
func (r *mongoWorkoutPlanRepository) Watch(ctx context.Context, id primitive.ObjectID, onChange func(repository.PlanChange)) (repository.Unsubscribe, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}
	streamOptions := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	watchCtx, cancel := context.WithCancel(ctx)
	stream, err := r.collection.Watch(watchCtx, pipeline, streamOptions)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", repository.ErrWatchNotReady, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close(context.Background())
		for stream.Next(watchCtx) {
			var event planEvent
			if err := stream.Decode(&event); err != nil {
				onChange(repository.PlanChange{PlanID: id, Err: err})
				continue
			}
			switch {
			case event.OperationType == "delete":
				onChange(repository.PlanChange{PlanID: id})
			case event.FullDocument != nil:
				err := checkPlan(event.FullDocument)
				if err != nil {
					onChange(repository.PlanChange{PlanID: id, Err: err})
					continue
				}
				onChange(repository.PlanChange{PlanID: id, Plan: event.FullDocument})
			}
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			onChange(repository.PlanChange{PlanID: id, Err: err})
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// EnsureWorkoutPlanIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutPlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Client plan listing, newest first
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			// Duplicate detection on assignment
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "frequency", Value: 1}},
		},
	})
}
