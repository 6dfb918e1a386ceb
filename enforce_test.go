package doccoll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestIndexName(t *testing.T) {
	assert.Equal(t, "name_1", indexName(bson.D{{Key: "name", Value: 1}}))
	assert.Equal(t, "tags_1_name_-1", indexName(bson.D{{Key: "tags", Value: 1}, {Key: "name", Value: -1}}))
}

func TestExpectedIndexes(t *testing.T) {
	s, err := ParseSchema(&testUser{}, "test_users")
	require.NoError(t, err)
	models := expectedIndexes(s)
	require.Len(t, models, 1)
	assert.Equal(t, bson.D{{Key: "email", Value: 1}}, models[0].Keys)
	assert.NotNil(t, models[0].Options)

	s, err = ParseSchema(&testIndexed{}, "test_indexed")
	require.NoError(t, err)
	models = expectedIndexes(s)
	require.Len(t, models, 2)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, models[0].Keys)
	assert.Nil(t, models[0].Options)
	assert.Equal(t, "owner_1_name_1", indexName(models[1].Keys.(bson.D)))
	assert.NotNil(t, models[1].Options)
}
