package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names.
const (
	UserCollection          = "users"
	PlanCollection          = "treinos"
	TemplateCollection      = "treinosModelo"
	LevelCollection         = "niveisPersonalizados"
	AccessRequestCollection = "solicitacoes"
	WeightCollection        = "weights"
)

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection concurrently.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	grp, ctx := errgroup.WithContext(ctx)
	for name, ensure := range map[string]func(context.Context, *mongo.Collection) error{
		UserCollection:          EnsureUserIndexes,
		PlanCollection:          EnsureWorkoutPlanIndexes,
		TemplateCollection:      EnsureTemplateIndexes,
		LevelCollection:         EnsureLevelIndexes,
		AccessRequestCollection: EnsureAccessRequestIndexes,
		WeightCollection:        EnsureWeightIndexes,
	} {
		name, ensure := name, ensure
		grp.Go(func() error {
			if err := ensure(ctx, db.Collection(name)); err != nil {
				return fmt.Errorf("indexes for %s: %w", name, err)
			}
			log.Info().Str("collection", name).Msg("indexes ensured")
			return nil
		})
	}
	return grp.Wait()
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// insertedID extracts the ObjectID from an insert result.
func insertedID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id, nil
}

// byID is the filter matching a single document.
func byID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}
