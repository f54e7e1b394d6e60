package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoAccessRequestRepository implements repository.AccessRequestRepository
type mongoAccessRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoAccessRequestRepository creates a new AccessRequest repository backed by MongoDB.
func NewMongoAccessRequestRepository(db *mongo.Database) repository.AccessRequestRepository {
	return &mongoAccessRequestRepository{
		collection: db.Collection(AccessRequestCollection),
	}
}

// Create inserts a new request. The partial unique index rejects a second
// pending request for the same user.
func (r *mongoAccessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) (primitive.ObjectID, error) {
	if req.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("access request requires userId")
	}
	req.ID = primitive.NewObjectID()
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = domain.RequestPending
	}

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves one request.
func (r *mongoAccessRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AccessRequest, error) {
	return r.findOne(ctx, byID(id))
}

// FindPendingByUser returns the user's open request, if any.
func (r *mongoAccessRequestRepository) FindPendingByUser(ctx context.Context, userID primitive.ObjectID) (*domain.AccessRequest, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "status": domain.RequestPending})
}

func (r *mongoAccessRequestRepository) findOne(ctx context.Context, filter bson.M) (*domain.AccessRequest, error) {
	var req domain.AccessRequest
	err := r.collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// List retrieves requests newest first, optionally filtered by status.
func (r *mongoAccessRequestRepository) List(ctx context.Context, status domain.RequestStatus) ([]domain.AccessRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

// ListByUser retrieves one user's requests newest first.
func (r *mongoAccessRequestRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.AccessRequest, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *mongoAccessRequestRepository) find(ctx context.Context, filter bson.M) ([]domain.AccessRequest, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []domain.AccessRequest{}
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateStatus records the admin's decision.
func (r *mongoAccessRequestRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, respondedAt time.Time) error {
	update := bson.M{"$set": bson.M{"status": status, "respondedAt": respondedAt}}
	result, err := r.collection.UpdateOne(ctx, byID(id), update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUser removes every request filed by a user.
func (r *mongoAccessRequestRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureAccessRequestIndexes creates necessary indexes. Call during startup.
func EnsureAccessRequestIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// At most one pending request per user
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetName("one_pending_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.RequestPending}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "requestedAt", Value: -1}},
		},
	})
}
