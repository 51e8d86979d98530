package mongo

import (
	"context"
	"time"

	"fixify/pkg/config"
	"fixify/pkg/model"
	"fixify/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// seedAdmin inserts the configured admin account unless a user with that
// email already exists.
func seedAdmin(ctx context.Context, cfg *config.Config, users *mongo.Collection, hasher passwordHasher) error {
	email := sanitizer.NormalizeEmail(cfg.AdminEmail)
	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": adminDocument(cfg.AdminName, email, hash, now)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	if result.UpsertedCount == 0 {
		cfg.Log.Info("Admin account already present", "email", email)
		return nil
	}
	cfg.Log.Info("Admin account seeded", "email", email)
	return nil
}

func adminDocument(name, email, passwordHash string, now time.Time) bson.M {
	return bson.M{
		"name":       name,
		"email":      email,
		"phone":      "",
		"password":   passwordHash,
		"role":       model.RoleAdmin,
		"is_active":  true,
		"created_at": now,
		"updated_at": now,
	}
}

// backfillProviders gives providers created before service areas and
// starter catalogues existed the same defaults registration applies now.
func backfillProviders(ctx context.Context, cfg *config.Config, users *mongo.Collection) error {
	areaResult, err := users.UpdateMany(ctx, missingServiceArea(), bson.M{
		"$set": bson.M{"provider_info.service_area": cfg.ServiceArea},
	})
	if err != nil {
		return err
	}

	categories, err := users.Distinct(ctx, "provider_info.category", missingServices())
	if err != nil {
		return err
	}

	var servicesUpdated int64
	for _, raw := range categories {
		category, ok := raw.(string)
		if !ok {
			continue
		}
		result, err := users.UpdateMany(ctx, missingServicesIn(category), bson.M{
			"$set": bson.M{"provider_info.services": model.DefaultServices(category)},
		})
		if err != nil {
			return err
		}
		servicesUpdated += result.ModifiedCount
	}

	uncategorised, err := users.UpdateMany(ctx, missingServicesUncategorised(), bson.M{
		"$set": bson.M{"provider_info.services": model.DefaultServices("")},
	})
	if err != nil {
		return err
	}
	servicesUpdated += uncategorised.ModifiedCount

	cfg.Log.Info("Provider backfill complete",
		"service_area_set", areaResult.ModifiedCount,
		"services_set", servicesUpdated,
	)
	return nil
}

func missingServiceArea() bson.M {
	return bson.M{
		"role": model.RoleProvider,
		"$or": bson.A{
			bson.M{"provider_info.service_area": nil},
			bson.M{"provider_info.service_area": ""},
		},
	}
}

func missingServices() bson.M {
	return bson.M{
		"role": model.RoleProvider,
		"$or": bson.A{
			bson.M{"provider_info.services": nil},
			bson.M{"provider_info.services": bson.M{"$size": 0}},
		},
	}
}

func missingServicesIn(category string) bson.M {
	filter := missingServices()
	filter["provider_info.category"] = category
	return filter
}

func missingServicesUncategorised() bson.M {
	filter := missingServices()
	filter["provider_info.category"] = bson.M{"$exists": false}
	return filter
}
