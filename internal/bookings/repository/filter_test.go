package repository

import (
	"testing"

	"fixify/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter(t *testing.T) {
	t.Run("empty filter matches everything", func(t *testing.T) {
		assert.Empty(t, buildFilter(BookingFilter{}))
	})

	t.Run("party and status", func(t *testing.T) {
		f := buildFilter(BookingFilter{ProviderID: "p1", Status: model.BookingPending})
		assert.Equal(t, "p1", f["provider_id"])
		assert.Equal(t, model.BookingPending, f["status"])
		assert.NotContains(t, f, "customer_id")
		assert.NotContains(t, f, "$or")
	})

	t.Run("search quotes regex metacharacters", func(t *testing.T) {
		f := buildFilter(BookingFilter{Search: "a+b"})
		or, ok := f["$or"].([]bson.M)
		require.True(t, ok)
		require.Len(t, or, 1)
		assert.Equal(t, `a\+b`, or[0]["service.name"].(bson.M)["$regex"])
	})

	t.Run("search by id and party ids", func(t *testing.T) {
		id := primitive.NewObjectID()
		f := buildFilter(BookingFilter{
			Search:      id.Hex(),
			CustomerIDs: []string{"c1"},
			ProviderIDs: []string{"p1"},
		})
		or := f["$or"].([]bson.M)
		require.Len(t, or, 4)
		assert.Equal(t, id, or[1]["_id"])
	})
}
