package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/peopledb/peopledb/internal/person"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used by unit tests and by
// peoplectl --memory. Records keep insertion order,
// which stands in for the store's natural order.
type MemoryRepo struct {
	mu     sync.RWMutex
	people []*person.Person
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) Insert(_ context.Context, p *person.Person) (*person.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(p)
}

func (m *MemoryRepo) insertLocked(p *person.Person) (*person.Person, error) {
	if p.ID != "" && m.indexByID(p.ID) >= 0 {
		return nil, person.ErrDuplicateID
	}
	withDefaults(p)
	if p.ObjectID.IsZero() {
		p.ObjectID = primitive.NewObjectID()
	}
	m.people = append(m.people, p.Clone())
	return p, nil
}

// InsertMany is ordered: it stops at the first failing record and keeps
// the ones already inserted, like an ordered bulk insert.
func (m *MemoryRepo) InsertMany(_ context.Context, people []*person.Person) ([]*person.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*person.Person, 0, len(people))
	for _, p := range people {
		saved, err := m.insertLocked(p)
		if err != nil {
			return out, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (m *MemoryRepo) FindByName(_ context.Context, name string) ([]*person.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*person.Person{}
	for _, p := range m.people {
		if p.Name == name {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *MemoryRepo) FindOneByFood(_ context.Context, food string) (*person.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.people {
		if p.LikesFood(food) {
			return p.Clone(), nil
		}
	}
	return nil, person.ErrNotFound
}

func (m *MemoryRepo) FindByID(_ context.Context, id string) (*person.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexByID(id); i >= 0 {
		return m.people[i].Clone(), nil
	}
	return nil, person.ErrNotFound
}

func (m *MemoryRepo) PushFood(_ context.Context, id, food string) (*person.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexByID(id)
	if i < 0 {
		return nil, person.ErrNotFound
	}
	m.people[i].FavoriteFoods = append(m.people[i].FavoriteFoods, food)
	return m.people[i].Clone(), nil
}

func (m *MemoryRepo) SetAgeByName(_ context.Context, name string, age int) (*person.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.people {
		if p.Name == name {
			p.Age = person.IntPtr(age)
			return p.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MemoryRepo) DeleteByID(_ context.Context, id string) (*person.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexByID(id)
	if i < 0 {
		return nil, nil
	}
	removed := m.people[i]
	m.people = append(m.people[:i], m.people[i+1:]...)
	return removed, nil
}

func (m *MemoryRepo) DeleteByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.people[:0]
	var n int64
	for _, p := range m.people {
		if p.Name == name {
			n++
			continue
		}
		kept = append(kept, p)
	}
	m.people = kept
	return n, nil
}

func (m *MemoryRepo) Query(_ context.Context, q person.Query) ([]*person.Person, error) {
	m.mu.RLock()
	out := []*person.Person{}
	for _, p := range m.people {
		if q.Food == "" || p.LikesFood(q.Food) {
			out = append(out, p.Clone())
		}
	}
	m.mu.RUnlock()

	if q.SortByName {
		// mirrors the case-insensitive collation used by MongoRepo
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	if q.OmitAge {
		for _, p := range out {
			p.Age = nil
		}
	}
	return out, nil
}

func (m *MemoryRepo) Ping(context.Context) error { return nil }

// Len reports how many records are stored.
func (m *MemoryRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.people)
}

func (m *MemoryRepo) indexByID(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range m.people {
		if p.ID == id {
			return i
		}
	}
	return -1
}
