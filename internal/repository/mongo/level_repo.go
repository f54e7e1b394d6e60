package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoLevelRepository implements repository.LevelRepository
type mongoLevelRepository struct {
	collection *mongo.Collection
}

// NewMongoLevelRepository creates a new CustomLevel repository.
func NewMongoLevelRepository(db *mongo.Database) repository.LevelRepository {
	return &mongoLevelRepository{
		collection: db.Collection(LevelCollection),
	}
}

// Create inserts a new custom level.
func (r *mongoLevelRepository) Create(ctx context.Context, level *domain.CustomLevel) (primitive.ObjectID, error) {
	level.Label = strings.TrimSpace(level.Label)
	if err := level.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	level.ID = primitive.NewObjectID()
	level.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, level)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a custom level.
func (r *mongoLevelRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CustomLevel, error) {
	var level domain.CustomLevel
	err := r.collection.FindOne(ctx, byID(id)).Decode(&level)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// List retrieves custom levels in creation order.
func (r *mongoLevelRepository) List(ctx context.Context) ([]domain.CustomLevel, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	levels := []domain.CustomLevel{}
	if err = cursor.All(ctx, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// Delete removes a custom level.
func (r *mongoLevelRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureLevelIndexes creates necessary indexes. Call during startup.
func EnsureLevelIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
}
