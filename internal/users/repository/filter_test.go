package repository

import (
	"testing"

	"fixify/pkg/model"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildUserFilter(t *testing.T) {
	active := false
	verified := true

	f := buildUserFilter(model.UserFilter{
		Roles:    []model.Role{model.RoleCustomer, model.RoleProvider},
		Active:   &active,
		Verified: &verified,
		Search:   "ana.r",
	})

	assert.Equal(t, bson.M{"$in": []model.Role{model.RoleCustomer, model.RoleProvider}}, f["role"])
	assert.Equal(t, false, f["is_active"])
	assert.Equal(t, true, f["provider_info.verified"])
	or := f["$or"].([]bson.M)
	assert.Len(t, or, 2)
	assert.Equal(t, `ana\.r`, or[0]["name"].(bson.M)["$regex"])

	single := buildUserFilter(model.UserFilter{Role: model.RoleProvider, Roles: []model.Role{model.RoleCustomer}})
	assert.Equal(t, model.RoleProvider, single["role"])
}

func TestProviderSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "provider_info.hourly_rate", Value: 1}}, providerSort(model.ProviderSortPriceLow))
	assert.Equal(t, bson.D{{Key: "provider_info.review_count", Value: -1}}, providerSort(model.ProviderSortReviews))
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}}, providerSort(""))
}
