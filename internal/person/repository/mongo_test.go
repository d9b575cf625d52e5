package repository

import (
	"context"
	"testing"

	"github.com/peopledb/peopledb/internal/person"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func personDoc(name, id string, age int, foods ...string) bson.D {
	arr := bson.A{}
	for _, f := range foods {
		arr = append(arr, f)
	}
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "name", Value: name},
		{Key: "age", Value: age},
		{Key: "favoriteFoods", Value: arr},
		{Key: "id", Value: id},
	}
}

// startedCommand pops the next recorded command and checks its name.
func startedCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, name, evt.CommandName)
	return evt.Command
}

type findCommand struct {
	Filter     bson.M `bson:"filter"`
	Sort       bson.D `bson:"sort"`
	Limit      int64  `bson:"limit"`
	Projection bson.M `bson:"projection"`
	Collation  bson.M `bson:"collation"`
}

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert sets object id and default foods", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p, err := repo.Insert(context.Background(), &person.Person{Name: "Jane", ID: "110"})
		require.NoError(mt, err)
		require.False(mt, p.ObjectID.IsZero())
		require.NotNil(mt, p.FavoriteFoods)
	})

	mt.Run("insert duplicate id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: people index: id_unique",
		}))

		_, err := repo.Insert(context.Background(), &person.Person{Name: "Jane", ID: "110"})
		require.ErrorIs(mt, err, person.ErrDuplicateID)
	})

	mt.Run("duplicate _id is not a duplicate application id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: people index: _id_ dup key",
		}))

		_, err := repo.Insert(context.Background(), &person.Person{Name: "A"})
		require.Error(mt, err)
		require.True(mt, mongo.IsDuplicateKeyError(err))
		require.NotErrorIs(mt, err, person.ErrDuplicateID)
	})

	mt.Run("insert many", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		people := []*person.Person{{Name: "Mary", ID: "109"}, {Name: "Jane", ID: "110"}}
		saved, err := repo.InsertMany(context.Background(), people)
		require.NoError(mt, err)
		require.Len(mt, saved, 2)
		require.False(mt, saved[0].ObjectID.IsZero())
		require.False(mt, saved[1].ObjectID.IsZero())
	})

	mt.Run("find by name", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			personDoc("Mary", "109", 30, "Pasta"),
			personDoc("Mary", "209", 41, "Rice"),
		))

		got, err := repo.FindByName(context.Background(), "Mary")
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		require.Equal(mt, "209", got[1].ID)
		require.Equal(mt, 41, *got[1].Age)
	})

	mt.Run("find by name no match", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.FindByName(context.Background(), "Nobody")
		require.NoError(mt, err)
		require.NotNil(mt, got)
		require.Empty(mt, got)
	})

	mt.Run("find one by food", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			personDoc("Jane", "110", 20, "Sushi", "Burritos"),
		))

		got, err := repo.FindOneByFood(context.Background(), "Sushi")
		require.NoError(mt, err)
		require.Equal(mt, "Jane", got.Name)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "404")
		require.ErrorIs(mt, err, person.ErrNotFound)
	})

	mt.Run("push food", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: personDoc("Chinedu Nwogu", "010", 70, "Rice", "Dodo", "Hamburger"),
		}))

		got, err := repo.PushFood(context.Background(), "010", "Hamburger")
		require.NoError(mt, err)
		require.Equal(mt, []string{"Rice", "Dodo", "Hamburger"}, got.FavoriteFoods)

		cmd := startedCommand(mt, "findAndModify")
		require.Equal(mt, "010", cmd.Lookup("query", "id").StringValue())
		_, err = cmd.LookupErr("query", "_id")
		require.Error(mt, err)
		require.Equal(mt, "Hamburger", cmd.Lookup("update", "$push", "favoriteFoods").StringValue())
		require.True(mt, cmd.Lookup("new").Boolean())
	})

	mt.Run("push food not found", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.PushFood(context.Background(), "999", "Hamburger")
		require.ErrorIs(mt, err, person.ErrNotFound)

		cmd := startedCommand(mt, "findAndModify")
		require.Equal(mt, "999", cmd.Lookup("query", "id").StringValue())
	})

	mt.Run("set age by name", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: personDoc("Mary", "109", 35, "Pasta"),
		}))

		got, err := repo.SetAgeByName(context.Background(), "Mary", 35)
		require.NoError(mt, err)
		require.NotNil(mt, got.Age)
		require.Equal(mt, 35, *got.Age)

		cmd := startedCommand(mt, "findAndModify")
		require.Equal(mt, "Mary", cmd.Lookup("query", "name").StringValue())
		require.EqualValues(mt, 35, cmd.Lookup("update", "$set", "age").AsInt64())
		require.True(mt, cmd.Lookup("new").Boolean())
	})

	mt.Run("set age by name no match", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		got, err := repo.SetAgeByName(context.Background(), "Nobody", 40)
		require.NoError(mt, err)
		require.Nil(mt, got)

		cmd := startedCommand(mt, "findAndModify")
		require.Equal(mt, "Nobody", cmd.Lookup("query", "name").StringValue())
	})

	mt.Run("delete by id returns removed", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: personDoc("Chioma", "111", 35, "Rice"),
		}))

		got, err := repo.DeleteByID(context.Background(), "111")
		require.NoError(mt, err)
		require.Equal(mt, "Chioma", got.Name)

		cmd := startedCommand(mt, "findAndModify")
		require.Equal(mt, "111", cmd.Lookup("query", "id").StringValue())
		_, err = cmd.LookupErr("query", "_id")
		require.Error(mt, err)
		require.True(mt, cmd.Lookup("remove").Boolean())
	})

	mt.Run("delete by id no match", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		got, err := repo.DeleteByID(context.Background(), "999")
		require.NoError(mt, err)
		require.Nil(mt, got)

		cmd := startedCommand(mt, "findAndModify")
		require.Equal(mt, "999", cmd.Lookup("query", "id").StringValue())
		require.True(mt, cmd.Lookup("remove").Boolean())
	})

	mt.Run("delete by name count", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		n, err := repo.DeleteByName(context.Background(), "Mary")
		require.NoError(mt, err)
		require.EqualValues(mt, 2, n)

		cmd := startedCommand(mt, "delete")
		require.Equal(mt, "Mary", cmd.Lookup("deletes", "0", "q", "name").StringValue())
		require.EqualValues(mt, 0, cmd.Lookup("deletes", "0", "limit").AsInt64())
	})

	mt.Run("burrito lovers query shape", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, 0)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		jane := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "name", Value: "Jane"},
			{Key: "favoriteFoods", Value: bson.A{"Sushi", "Burritos"}},
			{Key: "id", Value: "110"},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, jane))

		got, err := repo.Query(context.Background(), person.BurritoLovers())
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		require.Nil(mt, got[0].Age)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "find", evt.CommandName)
		var cmd findCommand
		require.NoError(mt, bson.Unmarshal(evt.Command, &cmd))
		require.Equal(mt, "burritos", cmd.Filter["favoriteFoods"])
		require.Len(mt, cmd.Sort, 1)
		require.Equal(mt, "name", cmd.Sort[0].Key)
		require.EqualValues(mt, 1, cmd.Sort[0].Value)
		require.EqualValues(mt, 2, cmd.Limit)
		require.EqualValues(mt, 0, cmd.Projection["age"])
		require.Equal(mt, "en", cmd.Collation["locale"])
		require.EqualValues(mt, 2, cmd.Collation["strength"])
	})
}

func TestBuildQuery_NoFood(t *testing.T) {
	filter, opts := buildQuery(person.Query{})
	require.Empty(t, filter)
	require.Nil(t, opts.Sort)
	require.Nil(t, opts.Limit)
	require.Nil(t, opts.Projection)
	require.Nil(t, opts.Collation)
}
