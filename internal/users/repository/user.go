package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	userserrors "fixify/internal/users/errors"
	"fixify/pkg/config"
	mongotx "fixify/pkg/db/mongo"
	"fixify/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "users"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAll(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context, filter model.UserFilter) (int64, error)
	FindProviders(ctx context.Context, q model.ProviderQuery) ([]*model.User, error)
	Update(ctx context.Context, id string, fields bson.M) (*model.User, error)
	IncrementCompletedJobs(ctx context.Context, providerID string) error
	SetRating(ctx context.Context, providerID string, summary model.RatingSummary) error
	SetVerified(ctx context.Context, providerID string, verified bool) (*model.User, error)
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	user.CreatedAt = now
	user.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userserrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindByIDs returns the users that exist among ids, keyed by hex id.
// Malformed ids are skipped.
func (r *mongoUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if _, ok := seen[oid]; ok {
			continue
		}
		seen[oid] = struct{}{}
		oids = append(oids, oid)
	}

	users := make(map[string]*model.User, len(oids))
	if len(oids) == 0 {
		return users, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*model.User
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for _, u := range found {
		users[u.ID] = u
	}
	return users, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindAll(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildUserFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *mongoUserRepository) Count(ctx context.Context, filter model.UserFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildUserFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *mongoUserRepository) FindProviders(ctx context.Context, q model.ProviderQuery) ([]*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"role": model.RoleProvider, "is_active": true}
	if q.Category != "" {
		filter["provider_info.category"] = q.Category
	}
	if q.MinRating != nil {
		filter["provider_info.rating"] = bson.M{"$gte": *q.MinRating}
	}
	if q.Verified != nil && *q.Verified {
		filter["provider_info.verified"] = true
	}
	if q.ServiceArea != "" {
		filter["provider_info.service_area"] = q.ServiceArea
	}

	opts := options.Find().SetSort(providerSort(q.Sort))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find providers: %w", err)
	}
	defer cursor.Close(ctx)

	providers := []*model.User{}
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return providers, nil
}

// Update sets fields on the user and returns the stored result.
func (r *mongoUserRepository) Update(ctx context.Context, id string, fields bson.M) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	for k, v := range fields {
		set[k] = v
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
}

func (r *mongoUserRepository) IncrementCompletedJobs(ctx context.Context, providerID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(providerID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, providerID)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "role": model.RoleProvider},
		bson.M{"$inc": bson.M{"provider_info.completed_jobs": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment completed jobs: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) SetRating(ctx context.Context, providerID string, summary model.RatingSummary) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(providerID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, providerID)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "role": model.RoleProvider},
		bson.M{"$set": bson.M{
			"provider_info.rating":       summary.Average,
			"provider_info.review_count": summary.Count,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set provider rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) SetVerified(ctx context.Context, providerID string, verified bool) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(providerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, providerID)
	}

	return r.findOneAndUpdate(ctx,
		bson.M{"_id": objectID, "role": model.RoleProvider},
		bson.M{"$set": bson.M{
			"provider_info.verified": verified,
			"updated_at":             time.Now().UTC().Truncate(time.Millisecond),
		}},
	)
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

func buildUserFilter(f model.UserFilter) bson.M {
	filter := bson.M{}
	switch {
	case f.Role != "":
		filter["role"] = f.Role
	case len(f.Roles) > 0:
		filter["role"] = bson.M{"$in": f.Roles}
	}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	if f.Verified != nil {
		filter["provider_info.verified"] = *f.Verified
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = []bson.M{
			{"name": pattern},
			{"email": pattern},
		}
	}
	return filter
}

func providerSort(sort string) bson.D {
	switch sort {
	case model.ProviderSortRating:
		return bson.D{{Key: "provider_info.rating", Value: -1}}
	case model.ProviderSortPriceLow:
		return bson.D{{Key: "provider_info.hourly_rate", Value: 1}}
	case model.ProviderSortPriceHigh:
		return bson.D{{Key: "provider_info.hourly_rate", Value: -1}}
	case model.ProviderSortExperience:
		return bson.D{{Key: "provider_info.years_experience", Value: -1}}
	case model.ProviderSortReviews:
		return bson.D{{Key: "provider_info.review_count", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}
