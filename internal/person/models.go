package person

import "go.mongodb.org/mongo-driver/bson/primitive"

// Person is the single record type stored in the people collection.
// ID is the application-level identifier; ObjectID is the store's own identity.
type Person struct {
	ObjectID      primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name" validate:"required"`
	Age           *int               `json:"age,omitempty" bson:"age,omitempty"`
	Club          string             `json:"club,omitempty" bson:"club,omitempty"`
	FavoriteFoods []string           `json:"favoriteFoods" bson:"favoriteFoods"`
	ID            string             `json:"id,omitempty" bson:"id,omitempty"`
}

// LikesFood reports whether food is one of p's favorites. Matching ignores case.
func (p *Person) LikesFood(food string) bool {
	for _, f := range p.FavoriteFoods {
		if FoldEqual(f, food) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias stored state.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	c.FavoriteFoods = append([]string{}, p.FavoriteFoods...)
	return &c
}

// IntPtr is a small helper for building optional ages.
func IntPtr(v int) *int { return &v }

// BurritoFood is the food matched by the burrito-lovers query.
const BurritoFood = "burritos"

// Query describes a food lookup with optional ordering, limit and projection.
type Query struct {
	Food       string
	SortByName bool
	Limit      int64
	OmitAge    bool
}

// BurritoLovers returns the canned query: people who like burritos, sorted
// by name, first two only, without their age.
func BurritoLovers() Query {
	return Query{Food: BurritoFood, SortByName: true, Limit: 2, OmitAge: true}
}
