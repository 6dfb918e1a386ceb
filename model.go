package doccoll

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ID is the store-assigned identifier of a document.
type ID = bson.ObjectID

// Model is the base struct that every document type stored through a
// Collection must embed. The ID is assigned on insert and never changes.
type Model struct {
	ID        ID        `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time `bson:"created_at"    json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"    json:"updated_at"`
}

// ParseID converts a 24 character hex string into an ID.
func ParseID(hex string) (ID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return ID{}, ValidationError{Field: "_id", Message: "not a valid object id"}
	}
	return id, nil
}

// timestamp returns now in the precision the store keeps (milliseconds, UTC),
// so a value written and read back compares equal.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
