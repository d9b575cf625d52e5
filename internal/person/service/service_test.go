package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/peopledb/peopledb/internal/person"
	"github.com/peopledb/peopledb/internal/person/repository"
	"github.com/peopledb/peopledb/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func samplePeople() []*person.Person {
	return []*person.Person{
		{Name: "Mary", Age: person.IntPtr(30), ID: "109", FavoriteFoods: []string{"Pasta"}},
		{Name: "Jane", Age: person.IntPtr(20), ID: "110", FavoriteFoods: []string{"Sushi", "Burritos"}},
		{Name: "Chioma", Age: person.IntPtr(35), ID: "111", FavoriteFoods: []string{"Rice", "Beans", "Dodo"}},
	}
}

func TestCreateThenFindByName(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	saved, err := svc.Create(ctx, &person.Person{Name: "Chinedu Nwogu", Age: person.IntPtr(70), Club: "Manchester United", FavoriteFoods: []string{"Rice", "Dodo"}, ID: "010"})
	require.NoError(t, err)
	require.False(t, saved.ObjectID.IsZero())

	found, err := svc.FindByName(ctx, "Chinedu Nwogu")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "010", found[0].ID)
}

func TestCreate_MissingName(t *testing.T) {
	svc := NewMemoryService()
	_, err := svc.Create(context.Background(), &person.Person{Age: person.IntPtr(3)})
	require.ErrorIs(t, err, person.ErrValidation)
}

func TestCreateMany_RejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := NewService(repo)

	people := samplePeople()
	people = append(people, &person.Person{Club: "nameless"})
	_, err := svc.CreateMany(ctx, people)
	require.ErrorIs(t, err, person.ErrValidation)
	require.Zero(t, repo.Len())
}

func TestCreate_DuplicateIDIsStoreError(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	_, err := svc.Create(ctx, &person.Person{Name: "A", ID: "1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &person.Person{Name: "B", ID: "1"})
	var se *person.StoreError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "create", se.Op)
	require.ErrorIs(t, err, person.ErrDuplicateID)
}

func TestFindOneByFavoriteFoodAndBurritoLovers(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	_, err := svc.CreateMany(ctx, []*person.Person{
		{Name: "Jane", FavoriteFoods: []string{"Sushi", "Burritos"}, ID: "110"},
		{Name: "Mary", FavoriteFoods: []string{"Pasta"}, ID: "109"},
	})
	require.NoError(t, err)

	p, err := svc.FindOneByFavoriteFood(ctx, "Sushi")
	require.NoError(t, err)
	require.Equal(t, "Jane", p.Name)

	lovers, err := svc.QueryBurritoLovers(ctx)
	require.NoError(t, err)
	require.Len(t, lovers, 1)
	require.Equal(t, "Jane", lovers[0].Name)
	require.Nil(t, lovers[0].Age)

	_, err = svc.FindOneByFavoriteFood(ctx, "Pizza")
	require.ErrorIs(t, err, person.ErrNotFound)
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	_, err := svc.CreateMany(ctx, samplePeople())
	require.NoError(t, err)

	p, err := svc.FindByID(ctx, "110")
	require.NoError(t, err)
	require.Equal(t, "Jane", p.Name)

	_, err = svc.FindByID(ctx, "000")
	require.ErrorIs(t, err, person.ErrNotFound)
}

func TestAddFavoriteFood(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	_, err := svc.CreateMany(ctx, samplePeople())
	require.NoError(t, err)

	p, err := svc.AddFavoriteFood(ctx, "111", "Hamburger")
	require.NoError(t, err)
	require.Equal(t, []string{"Rice", "Beans", "Dodo", "Hamburger"}, p.FavoriteFoods)

	// not idempotent: a second call appends again
	p, err = svc.AddFavoriteFood(ctx, "111", "Hamburger")
	require.NoError(t, err)
	require.Equal(t, []string{"Rice", "Beans", "Dodo", "Hamburger", "Hamburger"}, p.FavoriteFoods)
}

func TestAddFavoriteFood_MissingHasNoSideEffect(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := NewService(repo)
	_, err := svc.CreateMany(ctx, samplePeople())
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.PersonOps.WithLabelValues("addFavoriteFood", "not_found"))
	_, err = svc.AddFavoriteFood(ctx, "404", "Hamburger")
	require.ErrorIs(t, err, person.ErrNotFound)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.PersonOps.WithLabelValues("addFavoriteFood", "not_found")))

	require.Equal(t, 3, repo.Len())
	for _, id := range []string{"109", "110", "111"} {
		p, err := svc.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotContains(t, p.FavoriteFoods, "Hamburger")
	}
}

func TestUpdateAgeByName(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	_, err := svc.CreateMany(ctx, samplePeople())
	require.NoError(t, err)

	p, err := svc.UpdateAgeByName(ctx, "Mary", 35)
	require.NoError(t, err)
	require.Equal(t, 35, *p.Age)

	none, err := svc.UpdateAgeByName(ctx, "Nobody", 99)
	require.NoError(t, err)
	require.Nil(t, none)
	all, err := svc.Query(ctx, person.Query{})
	require.NoError(t, err)
	for _, p := range all {
		require.NotEqual(t, 99, *p.Age)
	}
}

func TestDeleteByIDAndName(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	_, err := svc.CreateMany(ctx, samplePeople())
	require.NoError(t, err)
	_, err = svc.Create(ctx, &person.Person{Name: "Mary", ID: "309"})
	require.NoError(t, err)

	removed, err := svc.DeleteByID(ctx, "111")
	require.NoError(t, err)
	require.Equal(t, "Chioma", removed.Name)

	removed, err = svc.DeleteByID(ctx, "111")
	require.NoError(t, err)
	require.Nil(t, removed)

	matching, err := svc.FindByName(ctx, "Mary")
	require.NoError(t, err)
	n, err := svc.DeleteByName(ctx, "Mary")
	require.NoError(t, err)
	require.EqualValues(t, len(matching), n)
	left, err := svc.FindByName(ctx, "Mary")
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := NewService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, &person.Person{Name: "Twin"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	list, err := svc.FindByName(ctx, "Twin")
	require.NoError(t, err)
	require.Len(t, list, 20)
}

// failingRepo simulates a store that is unreachable.
type failingRepo struct {
	repository.Repository
	err error
}

func (f *failingRepo) FindByName(context.Context, string) ([]*person.Person, error) {
	return nil, f.err
}

func (f *failingRepo) DeleteByName(context.Context, string) (int64, error) {
	return 0, f.err
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	svc := NewService(&failingRepo{err: cause})

	_, err := svc.FindByName(ctx, "Mary")
	var se *person.StoreError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "findByName", se.Op)
	require.ErrorIs(t, err, cause)

	n, err := svc.DeleteByName(ctx, "Mary")
	require.Zero(t, n)
	require.ErrorIs(t, err, cause)
}

func TestCreate_StoreAssignsObjectID(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	preset := primitive.NewObjectID()

	a, err := svc.Create(ctx, &person.Person{ObjectID: preset, Name: "A"})
	require.NoError(t, err)
	many, err := svc.CreateMany(ctx, []*person.Person{{ObjectID: preset, Name: "A"}})
	require.NoError(t, err)

	require.NotEqual(t, preset, a.ObjectID)
	require.NotEqual(t, preset, many[0].ObjectID)
	require.NotEqual(t, a.ObjectID, many[0].ObjectID)
}
