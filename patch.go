package doccoll

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// normalizePatch turns a caller patch into an update document. A patch made
// only of plain fields becomes {$set: patch}; a patch made only of update
// operators is used as is. updated_at is set unless the patch touches it.
func normalizePatch(patch any, now time.Time) (bson.D, error) {
	if patch == nil {
		return nil, ValidationError{Field: "patch", Message: "patch is empty"}
	}
	doc, err := toD(patch)
	if err != nil {
		return nil, ValidationError{Field: "patch", Message: "patch is not a document: " + err.Error()}
	}
	if len(doc) == 0 {
		return nil, ValidationError{Field: "patch", Message: "patch is empty"}
	}

	operators := 0
	for _, e := range doc {
		if strings.HasPrefix(e.Key, "$") {
			operators++
		}
	}
	switch operators {
	case 0:
		doc = bson.D{{Key: "$set", Value: doc}}
	case len(doc):
	default:
		return nil, ValidationError{Field: "patch", Message: "patch mixes update operators and plain fields"}
	}

	for _, e := range doc {
		body, ok := e.Value.(bson.D)
		if !ok {
			return nil, ValidationError{Field: e.Key, Message: "operator argument must be a document"}
		}
		for _, f := range body {
			if f.Key == "updated_at" {
				return doc, nil
			}
		}
	}

	for i, e := range doc {
		if e.Key == "$set" {
			doc[i].Value = append(e.Value.(bson.D), bson.E{Key: "updated_at", Value: now})
			return doc, nil
		}
	}
	return append(doc, bson.E{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}}), nil
}

// toD converts bson.D, bson.M, maps and structs into a bson.D whose nested
// documents are bson.D as well.
func toD(v any) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
