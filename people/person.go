// Package people stores Person documents: a name, an optional age and an
// ordered list of favourite foods.
package people

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/dwoolworth/doccoll"
)

// CollectionName is the collection Person documents live in.
const CollectionName = "people"

// Person is one stored person. Tags holds favourite foods in the order they
// were added.
type Person struct {
	doccoll.Model `bson:",inline"`
	Name          string   `bson:"name"           doccoll:"required,index,max=200" json:"name"`
	Age           int      `bson:"age,omitempty"  doccoll:"min=0,max=200"          json:"age,omitempty"`
	Tags          []string `bson:"tags"           doccoll:"index"                  json:"tags"`
}

// Indexes declares the compound index used by "by food, sorted by name" reads.
func (p *Person) Indexes() []doccoll.CompoundIndex {
	return []doccoll.CompoundIndex{doccoll.NewCompoundIndex("tags", "name")}
}

// CollectionOptions asks for majority-acknowledged writes.
func (p *Person) CollectionOptions() doccoll.CollectionOptions {
	return doccoll.CollectionOptions{WriteConcern: writeconcern.Majority()}
}

// BeforeInsert stores a missing tag list as an empty array, so the field is
// always an array that $push and $unwind can work with.
func (p *Person) BeforeInsert(ctx context.Context) error {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return nil
}

// AddTag appends tag. Duplicates are kept; order is insertion order.
func (p *Person) AddTag(tag string) {
	p.Tags = append(p.Tags, tag)
}
