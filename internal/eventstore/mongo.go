package eventstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

// MongoStore fetches event logs from a MongoDB collection where each
// document is one event tagged with its user id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to the given URI and binds to
// database/collection. The connection is verified with a ping.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeFetchFailed, "eventstore: connect mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.NewStoreError(errors.CodeFetchFailed, "eventstore: ping mongo", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// FetchEvents returns all events for the user, in persisted order.
func (s *MongoStore) FetchEvents(ctx context.Context, userID string) ([]types.RawEvent, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeFetchFailed,
			fmt.Sprintf("eventstore: query events for %s", userID), err)
	}
	defer cursor.Close(ctx)

	var events []types.RawEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, errors.NewStoreError(errors.CodeFetchFailed,
			fmt.Sprintf("eventstore: decode events for %s", userID), err)
	}
	if len(events) == 0 {
		return nil, errors.NewStoreError(errors.CodeEventsNotFound,
			fmt.Sprintf("eventstore: no events recorded for %s", userID), nil)
	}
	return events, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
