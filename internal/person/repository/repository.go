package repository

import (
	"context"

	"github.com/peopledb/peopledb/internal/person"
)

// Repository is the persistence surface for Person records. MongoRepo is the
// production implementation; MemoryRepo mirrors its observable behaviour for
// tests and for running without a database.
type Repository interface {
	Insert(ctx context.Context, p *person.Person) (*person.Person, error)
	InsertMany(ctx context.Context, people []*person.Person) ([]*person.Person, error)
	FindByName(ctx context.Context, name string) ([]*person.Person, error)
	// FindOneByFood returns person.ErrNotFound when nobody likes food.
	FindOneByFood(ctx context.Context, food string) (*person.Person, error)
	// FindByID returns person.ErrNotFound when no record carries id.
	FindByID(ctx context.Context, id string) (*person.Person, error)
	// PushFood appends food and returns the updated record, or person.ErrNotFound.
	PushFood(ctx context.Context, id, food string) (*person.Person, error)
	// SetAgeByName updates the first match and returns it; (nil, nil) when nothing matches.
	SetAgeByName(ctx context.Context, name string, age int) (*person.Person, error)
	// DeleteByID removes the record with application id; (nil, nil) when nothing matches.
	DeleteByID(ctx context.Context, id string) (*person.Person, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	Query(ctx context.Context, q person.Query) ([]*person.Person, error)
	Ping(ctx context.Context) error
}

func withDefaults(p *person.Person) *person.Person {
	if p.FavoriteFoods == nil {
		p.FavoriteFoods = []string{}
	}
	return p
}
