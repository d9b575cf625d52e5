package service

import (
	"context"
	"errors"
	"time"

	"github.com/peopledb/peopledb/internal/person"
	"github.com/peopledb/peopledb/internal/person/repository"
	"github.com/peopledb/peopledb/pkg/logger"
	"github.com/peopledb/peopledb/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service defines the person operations used by the handler layer and the CLI.
//
// Writes are validated first. Store failures come back as *person.StoreError;
// lookups that need a record return person.ErrNotFound. Every outcome is
// logged and counted.
type Service interface {
	Create(ctx context.Context, p *person.Person) (*person.Person, error)
	CreateMany(ctx context.Context, people []*person.Person) ([]*person.Person, error)
	FindByName(ctx context.Context, name string) ([]*person.Person, error)
	FindOneByFavoriteFood(ctx context.Context, food string) (*person.Person, error)
	FindByID(ctx context.Context, id string) (*person.Person, error)
	AddFavoriteFood(ctx context.Context, id, food string) (*person.Person, error)
	UpdateAgeByName(ctx context.Context, name string, age int) (*person.Person, error)
	DeleteByID(ctx context.Context, id string) (*person.Person, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	QueryBurritoLovers(ctx context.Context) ([]*person.Person, error)
	Query(ctx context.Context, q person.Query) ([]*person.Person, error)
	Ping(ctx context.Context) error
}

// NewService returns a Service over any repository.
func NewService(repo repository.Repository) Service {
	return &personService{repo: repo}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return NewService(repository.NewMemoryRepo())
}

type personService struct {
	repo repository.Repository
}

func (s *personService) Create(ctx context.Context, p *person.Person) (*person.Person, error) {
	const op = "create"
	start := time.Now()
	if err := person.Validate(p); err != nil {
		return nil, finish(op, start, err)
	}
	// _id is assigned by the store, never by the caller.
	p.ObjectID = primitive.NilObjectID
	saved, err := s.repo.Insert(ctx, p)
	if err != nil {
		return nil, finish(op, start, err)
	}
	logger.Infof("saved person %q (id=%q)", saved.Name, saved.ID)
	return saved, finish(op, start, nil)
}

func (s *personService) CreateMany(ctx context.Context, people []*person.Person) ([]*person.Person, error) {
	const op = "createMany"
	start := time.Now()
	if err := person.ValidateAll(people); err != nil {
		return nil, finish(op, start, err)
	}
	for _, p := range people {
		p.ObjectID = primitive.NilObjectID
	}
	saved, err := s.repo.InsertMany(ctx, people)
	if err != nil {
		return nil, finish(op, start, err)
	}
	logger.Infof("created %d people", len(saved))
	return saved, finish(op, start, nil)
}

func (s *personService) FindByName(ctx context.Context, name string) ([]*person.Person, error) {
	const op = "findByName"
	start := time.Now()
	list, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, finish(op, start, err)
	}
	logger.Debugf("found %d people named %q", len(list), name)
	return list, finish(op, start, nil)
}

func (s *personService) FindOneByFavoriteFood(ctx context.Context, food string) (*person.Person, error) {
	const op = "findOneByFavoriteFood"
	start := time.Now()
	p, err := s.repo.FindOneByFood(ctx, food)
	if err != nil {
		return nil, finish(op, start, err)
	}
	return p, finish(op, start, nil)
}

func (s *personService) FindByID(ctx context.Context, id string) (*person.Person, error) {
	const op = "findById"
	start := time.Now()
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, finish(op, start, err)
	}
	return p, finish(op, start, nil)
}

func (s *personService) AddFavoriteFood(ctx context.Context, id, food string) (*person.Person, error) {
	const op = "addFavoriteFood"
	start := time.Now()
	p, err := s.repo.PushFood(ctx, id, food)
	if err != nil {
		return nil, finish(op, start, err)
	}
	logger.Infof("person %q now likes %q", id, food)
	return p, finish(op, start, nil)
}

func (s *personService) UpdateAgeByName(ctx context.Context, name string, age int) (*person.Person, error) {
	const op = "updateAgeByName"
	start := time.Now()
	p, err := s.repo.SetAgeByName(ctx, name, age)
	if err != nil {
		return nil, finish(op, start, err)
	}
	if p == nil {
		logger.Infof("update age: no person named %q", name)
	} else {
		logger.Infof("updated age of %q to %d", name, age)
	}
	return p, finish(op, start, nil)
}

func (s *personService) DeleteByID(ctx context.Context, id string) (*person.Person, error) {
	const op = "deleteById"
	start := time.Now()
	p, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, finish(op, start, err)
	}
	if p != nil {
		logger.Infof("deleted person %q (id=%q)", p.Name, id)
	}
	return p, finish(op, start, nil)
}

func (s *personService) DeleteByName(ctx context.Context, name string) (int64, error) {
	const op = "deleteByName"
	start := time.Now()
	n, err := s.repo.DeleteByName(ctx, name)
	if err != nil {
		return 0, finish(op, start, err)
	}
	logger.Infof("deleted %d people named %q", n, name)
	return n, finish(op, start, nil)
}

func (s *personService) QueryBurritoLovers(ctx context.Context) ([]*person.Person, error) {
	return s.query(ctx, "queryBurritoLovers", person.BurritoLovers())
}

func (s *personService) Query(ctx context.Context, q person.Query) ([]*person.Person, error) {
	return s.query(ctx, "query", q)
}

func (s *personService) query(ctx context.Context, op string, q person.Query) ([]*person.Person, error) {
	start := time.Now()
	list, err := s.repo.Query(ctx, q)
	if err != nil {
		return nil, finish(op, start, err)
	}
	return list, finish(op, start, nil)
}

func (s *personService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// finish records the outcome of op and returns err in its public shape:
// not-found and validation errors pass through, anything else is a store failure.
func finish(op string, start time.Time, err error) error {
	switch {
	case err == nil:
		metrics.ObservePersonOp(op, "ok", start)
		return nil
	case errors.Is(err, person.ErrNotFound):
		metrics.ObservePersonOp(op, "not_found", start)
		logger.Debugf("%s: %v", op, err)
		return err
	case errors.Is(err, person.ErrValidation):
		metrics.ObservePersonOp(op, "invalid", start)
		logger.Warnf("%s: %v", op, err)
		return err
	default:
		metrics.ObservePersonOp(op, "error", start)
		logger.Errorf("%s failed: %v", op, err)
		return &person.StoreError{Op: op, Err: err}
	}
}
