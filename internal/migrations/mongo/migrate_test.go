package mongo

import (
	"testing"
	"time"

	"fixify/internal/migrations/mongo/validators"
	"fixify/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func findSpec(t *testing.T, name string) CollectionSpec {
	t.Helper()
	for _, spec := range Collections() {
		if spec.Name == name {
			return spec
		}
	}
	t.Fatalf("collection %s not declared", name)
	return CollectionSpec{}
}

func hasUniqueIndex(models []mongo.IndexModel, key string) bool {
	for _, m := range models {
		keys, ok := m.Keys.(bson.D)
		if !ok || len(keys) != 1 || keys[0].Key != key {
			continue
		}
		if m.Options != nil && m.Options.Unique != nil && *m.Options.Unique {
			return true
		}
	}
	return false
}

func TestCollections(t *testing.T) {
	specs := Collections()
	require.Len(t, specs, 5)

	seen := map[string]bool{}
	for _, spec := range specs {
		assert.False(t, seen[spec.Name], "duplicate collection %s", spec.Name)
		seen[spec.Name] = true
		assert.Contains(t, spec.Validator, "$jsonSchema", spec.Name)
		assert.NotEmpty(t, spec.Indexes, spec.Name)
	}

	for _, name := range []string{"users", "bookings", "reviews", "messages", "notifications"} {
		assert.True(t, seen[name], name)
	}
}

func TestUniqueIndexes(t *testing.T) {
	assert.True(t, hasUniqueIndex(findSpec(t, "users").Indexes, "email"))
	assert.True(t, hasUniqueIndex(findSpec(t, "reviews").Indexes, "booking_id"))
	assert.False(t, hasUniqueIndex(findSpec(t, "bookings").Indexes, "status"))
}

func TestValidatorEnumsTrackModel(t *testing.T) {
	for _, s := range validators.BookingStatuses {
		assert.True(t, model.BookingStatus(s).Valid(), s)
	}
	for _, s := range validators.PaymentStatuses {
		assert.True(t, model.PaymentStatus(s).Valid(), s)
	}
	for _, s := range validators.ReviewStatuses {
		assert.True(t, model.ReviewStatus(s).Valid(), s)
	}
	assert.Contains(t, validators.BookingStatuses, "in-progress")
	assert.Contains(t, validators.PaymentStatuses, "held-in-escrow")
}

func TestAdminDocument(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	doc := adminDocument("Administrator", "admin@fixify.ph", "hash", now)

	assert.Equal(t, model.RoleAdmin, doc["role"])
	assert.Equal(t, true, doc["is_active"])
	assert.Equal(t, "hash", doc["password"])
	assert.Equal(t, now, doc["created_at"])
	assert.NotContains(t, doc, "_id")
}

func TestBackfillFilters(t *testing.T) {
	t.Run("services by category", func(t *testing.T) {
		f := missingServicesIn(model.CategoryPlumbing)
		assert.Equal(t, model.RoleProvider, f["role"])
		assert.Equal(t, model.CategoryPlumbing, f["provider_info.category"])
		assert.Len(t, f["$or"], 2)
	})

	t.Run("uncategorised", func(t *testing.T) {
		f := missingServicesUncategorised()
		assert.Equal(t, bson.M{"$exists": false}, f["provider_info.category"])
	})

	t.Run("builders do not share state", func(t *testing.T) {
		_ = missingServicesIn("cleaning")
		assert.NotContains(t, missingServices(), "provider_info.category")
	})

	t.Run("service area", func(t *testing.T) {
		f := missingServiceArea()
		assert.Equal(t, model.RoleProvider, f["role"])
		assert.Len(t, f["$or"], 2)
	})
}
