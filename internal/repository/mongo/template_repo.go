package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTemplateRepository implements repository.TemplateRepository
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new WorkoutTemplate repository.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(TemplateCollection),
	}
}

func checkTemplate(tpl *domain.WorkoutTemplate) error {
	if tpl.Days == nil {
		tpl.Days = domain.DayPlans{}
	}
	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("template %s: %w", tpl.ID.Hex(), err)
	}
	return nil
}

// Create inserts a new template.
func (r *mongoTemplateRepository) Create(ctx context.Context, tpl *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	if err := tpl.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	tpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a single template by its ID.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	var tpl domain.WorkoutTemplate
	err := r.collection.FindOne(ctx, byID(id)).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := checkTemplate(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// List retrieves every template grouped by level.
func (r *mongoTemplateRepository) List(ctx context.Context) ([]domain.WorkoutTemplate, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "level", Value: 1}, {Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []domain.WorkoutTemplate{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	for i := range templates {
		if err := checkTemplate(&templates[i]); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// Update replaces the editable fields of a template.
func (r *mongoTemplateRepository) Update(ctx context.Context, tpl *domain.WorkoutTemplate) error {
	if tpl.ID == primitive.NilObjectID {
		return errors.New("template ID is required for update")
	}
	if err := tpl.Validate(); err != nil {
		return err
	}
	tpl.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"level":      tpl.Level,
			"levelLabel": tpl.LevelLabel,
			"frequency":  tpl.Frequency,
			"days":       tpl.Days,
			"updatedAt":  tpl.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, byID(tpl.ID), update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes one template.
func (r *mongoTemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByLevel counts templates filed under level.
func (r *mongoTemplateRepository) CountByLevel(ctx context.Context, level string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"level": level})
}

// EnsureTemplateIndexes creates necessary indexes. Call during startup.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "level", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
}
