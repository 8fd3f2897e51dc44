package state

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps checkpoints in a MongoDB collection, one document per
// tap instance. Useful when several workers share state or the local
// filesystem is ephemeral.
type MongoStore struct {
	Coll *mongo.Collection
	Key  string
}

type stateDoc struct {
	ID        string                            `bson:"_id"`
	Bookmarks map[string]map[string]interface{} `bson:"bookmarks"`
	UpdatedAt time.Time                         `bson:"updated_at"`
}

// NewMongoStore creates a store writing to tap_appmetrica.<collection>,
// keyed by the tap name and application id so multiple apps can share a
// cluster.
func NewMongoStore(client *mongo.Client, collection, key string) *MongoStore {
	return &MongoStore{
		Coll: client.Database("tap_appmetrica").Collection(collection),
		Key:  key,
	}
}

func (m *MongoStore) Load() (*State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc stateDoc
	err := m.Coll.FindOne(ctx, bson.M{"_id": m.Key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Bookmarks == nil {
		doc.Bookmarks = make(map[string]map[string]interface{})
	}
	return &State{Bookmarks: doc.Bookmarks}, nil
}

func (m *MongoStore) Save(s *State) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filter := bson.M{"_id": m.Key}
	update := bson.M{"$set": bson.M{
		"bookmarks":  s.Bookmarks,
		"updated_at": time.Now().UTC(),
	}}
	_, err := m.Coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
