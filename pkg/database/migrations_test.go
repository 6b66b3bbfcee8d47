package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func findIndexByName(t *testing.T, name string) bson.D {
	t.Helper()
	for _, model := range tripIndexModels() {
		if model.Options != nil && model.Options.Name != nil && *model.Options.Name == name {
			filter, ok := model.Options.PartialFilterExpression.(bson.D)
			require.True(t, ok, "partial filter must be a bson.D")
			return filter
		}
	}
	t.Fatalf("index %s not defined", name)
	return nil
}

func TestOpenTripIndexPartialFilterUsesSupportedOperators(t *testing.T) {
	filter := findIndexByName(t, "uniq_open_trip_per_vehicle")

	// MongoDB rejects $ne/$not in partialFilterExpression; the filter must
	// stick to plain equality so index creation succeeds at startup.
	for _, clause := range filter {
		switch v := clause.Value.(type) {
		case bson.D:
			for _, op := range v {
				assert.NotContains(t, []string{"$ne", "$not", "$nin"}, op.Key,
					"unsupported operator %s on %s", op.Key, clause.Key)
			}
		default:
			// plain equality, always supported
		}
	}

	assert.Equal(t, bson.D{
		{Key: "status", Value: "open"},
		{Key: "is_deleted", Value: false},
	}, filter)
}

func TestOpenTripIndexIsUnique(t *testing.T) {
	for _, model := range tripIndexModels() {
		if model.Options != nil && model.Options.Name != nil && *model.Options.Name == "uniq_open_trip_per_vehicle" {
			require.NotNil(t, model.Options.Unique)
			assert.True(t, *model.Options.Unique)
			return
		}
	}
	t.Fatal("uniq_open_trip_per_vehicle not defined")
}
