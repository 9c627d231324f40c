package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDoc is the persisted shape: caller data nested under "data" so that
// store-assigned fields never collide with application fields.
type mongoDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	Data      bson.M             `bson:"data"`
}

// Mongo implements Store on a MongoDB database.
type Mongo struct {
	db *mongo.Database
}

// NewMongo wraps the given database as a document store.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	filter := bson.M{}
	for k, v := range q.Filters {
		filter["data."+k] = v
	}

	opts := options.Find()
	if q.Sort != "" {
		dir := -1
		if q.Order == "asc" {
			dir = 1
		}
		key := "data." + q.Sort
		if q.Sort == "created_at" {
			key = "created_at"
		}
		opts.SetSort(bson.D{{Key: key, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, collection, err)
	}
	defer cur.Close(ctx)

	var out []Document
	for cur.Next(ctx) {
		var d mongoDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, collection, err)
		}
		out = append(out, Document{
			ID:        d.ID.Hex(),
			CreatedAt: d.CreatedAt,
			Data:      map[string]any(d.Data),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor %s: %v", ErrUnavailable, collection, err)
	}
	return out, nil
}

func (m *Mongo) Create(ctx context.Context, collection string, data map[string]any) (Document, error) {
	doc := mongoDoc{
		ID:        primitive.NewObjectID(),
		CreatedAt: time.Now().UTC(),
		Data:      bson.M(data),
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("%w: create %s: %v", ErrUnavailable, collection, err)
	}
	return Document{ID: doc.ID.Hex(), CreatedAt: doc.CreatedAt, Data: data}, nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	set := bson.M{}
	for k, v := range patch {
		set["data."+k] = v
	}
	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", ErrUnavailable, collection, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, collection, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
