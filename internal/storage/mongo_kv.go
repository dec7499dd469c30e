package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greendrake/po/internal/db"
)

// KVCollection is the MongoDB collection holding one document per slot.
const KVCollection = "kv"

type slotDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type mongoKV struct {
	collection *mongo.Collection
}

// NewMongoKV stores each slot as a document in the kv collection of database.
func NewMongoKV(database *mongo.Database) IKeyValueStore {
	return &mongoKV{collection: database.Collection(KVCollection)}
}

func (m *mongoKV) Get(ctx context.Context, key string) ([]byte, error) {
	var doc slotDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from MongoDB: %w", key, err)
	}
	return doc.Value, nil
}

func (m *mongoKV) Set(ctx context.Context, key string, value []byte) error {
	update := bson.M{"$set": bson.M{"value": value, "updatedAt": time.Now().UTC()}}
	err := db.Try(func() error {
		_, err := m.collection.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write %s to MongoDB: %w", key, err)
	}
	return nil
}
