package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository implements storage.EventRepository using MongoDB
type EventRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewEventRepository creates a new MongoDB-backed deployment event journal
func NewEventRepository(mongoURI, database, collection string) (*EventRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	repo := &EventRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *EventRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

func (r *EventRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "deployment_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create event index: %w", err)
	}
	return nil
}

// Store stores an event in MongoDB
func (r *EventRepository) Store(ctx context.Context, event *domain.DeploymentEvent) error {
	if event == nil {
		return domain.ErrInvalidInput
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	_, err := r.coll().InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// BulkStore stores many events in one round trip
func (r *EventRepository) BulkStore(ctx context.Context, events []*domain.DeploymentEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(events))
	for _, e := range events {
		if e == nil || e.Validate() != nil {
			continue
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		docs = append(docs, e)
	}
	if len(docs) == 0 {
		return nil
	}

	_, err := r.coll().InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to insert events: %w", err)
	}
	return nil
}

// ListByDeployment retrieves the events of one deployment, ordered by timestamp
func (r *EventRepository) ListByDeployment(ctx context.Context, deploymentID uint, filter storage.EventFilter) ([]*domain.DeploymentEvent, error) {
	query := eventQuery(deploymentID, filter)

	// Newest first so the limit keeps the most recent events, then reversed below.
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer cursor.Close(ctx)

	var results []domain.DeploymentEvent
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	pointers := make([]*domain.DeploymentEvent, len(results))
	for i := range results {
		pointers[len(results)-1-i] = &results[i]
	}
	return pointers, nil
}

// Count returns the total number of events
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Close closes the MongoDB connection
func (r *EventRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func eventQuery(deploymentID uint, filter storage.EventFilter) bson.M {
	query := bson.M{"deployment_id": deploymentID}
	if filter.Since != nil {
		query["timestamp"] = bson.M{"$gte": *filter.Since}
	}
	return query
}
