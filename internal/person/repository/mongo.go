package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/peopledb/peopledb/internal/person"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// foodCollation makes favoriteFoods matches (and the name sort of food
// queries) case-insensitive, so "burritos" finds "Burritos".
var foodCollation = &options.Collation{Locale: "en", Strength: 2}

const idIndexName = "id_unique"

// MongoRepo implements a MongoDB-backed repository for people.
// Lookups by "id" use the application identifier, never the store's _id.
type MongoRepo struct {
	col       *mongo.Collection
	opTimeout time.Duration
}

var _ Repository = (*MongoRepo)(nil)

// NewMongoRepo wraps col. opTimeout bounds each operation; zero disables it.
// Call EnsureIndexes once at startup.
func NewMongoRepo(col *mongo.Collection, opTimeout time.Duration) *MongoRepo {
	return &MongoRepo{col: col, opTimeout: opTimeout}
}

// EnsureIndexes creates the unique index on "id". The partial filter keeps
// records without an id out of the index so they never collide.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	idx := mongo.IndexModel{
		Keys: bson.D{{Key: "id", Value: 1}},
		Options: options.Index().
			SetName(idIndexName).
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"id": bson.M{"$type": "string"}}),
	}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create id index: %w", err)
	}
	return nil
}

func (m *MongoRepo) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.opTimeout)
}

func (m *MongoRepo) Insert(ctx context.Context, p *person.Person) (*person.Person, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	withDefaults(p)
	res, err := m.col.InsertOne(ctx, p)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ObjectID = oid
	}
	return p, nil
}

func (m *MongoRepo) InsertMany(ctx context.Context, people []*person.Person) ([]*person.Person, error) {
	if len(people) == 0 {
		return []*person.Person{}, nil
	}
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	docs := make([]interface{}, 0, len(people))
	for _, p := range people {
		docs = append(docs, withDefaults(p))
	}
	res, err := m.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(people) {
			people[i].ObjectID = oid
		}
	}
	return people, nil
}

func (m *MongoRepo) FindByName(ctx context.Context, name string) ([]*person.Person, error) {
	return m.find(ctx, bson.M{"name": name}, options.Find())
}

func (m *MongoRepo) FindOneByFood(ctx context.Context, food string) (*person.Person, error) {
	opts := options.FindOne().SetCollation(foodCollation)
	return m.findOne(ctx, bson.M{"favoriteFoods": food}, opts)
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (*person.Person, error) {
	return m.findOne(ctx, bson.M{"id": id}, options.FindOne())
}

func (m *MongoRepo) PushFood(ctx context.Context, id, food string) (*person.Person, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$push": bson.M{"favoriteFoods": food}}
	var p person.Person
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, person.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) SetAgeByName(ctx context.Context, name string, age int) (*person.Person, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"age": age}}
	var p person.Person
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"name": name}, update, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) DeleteByID(ctx context.Context, id string) (*person.Person, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	var p person.Person
	if err := m.col.FindOneAndDelete(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) DeleteByName(ctx context.Context, name string) (int64, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	res, err := m.col.DeleteMany(ctx, bson.M{"name": name})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoRepo) Query(ctx context.Context, q person.Query) ([]*person.Person, error) {
	filter, opts := buildQuery(q)
	return m.find(ctx, filter, opts)
}

// buildQuery translates q into a find filter and options.
func buildQuery(q person.Query) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	opts := options.Find()
	if q.Food != "" {
		filter["favoriteFoods"] = q.Food
		opts.SetCollation(foodCollation)
	}
	if q.SortByName {
		opts.SetSort(bson.D{{Key: "name", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.OmitAge {
		opts.SetProjection(bson.D{{Key: "age", Value: 0}})
	}
	return filter, opts
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	return m.col.Database().Client().Ping(ctx, readpref.Primary())
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*person.Person, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*person.Person{}
	for cur.Next(ctx) {
		var p person.Person
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*person.Person, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	var p person.Person
	if err := m.col.FindOne(ctx, filter, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, person.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// mapWriteErr reports ErrDuplicateID only for collisions on the application
// id index; other duplicate keys (such as _id) stay plain store errors.
func mapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), idIndexName) {
		return fmt.Errorf("%w: %v", person.ErrDuplicateID, err)
	}
	return err
}
