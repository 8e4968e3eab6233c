package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldsignal/incident-backend/internal/models"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	PhoneHash    string    `bson:"phone_hash"`
	Reputation   int       `bson:"reputation"`
	CreatedAt    time.Time `bson:"created_at"`
	LastSeenAt   time.Time `bson:"last_seen_at"`
	TokenVersion int       `bson:"token_version"`
}

func (d userDoc) toModel() *models.AppUser {
	return &models.AppUser{
		ID:           d.ID,
		PhoneHash:    d.PhoneHash,
		Reputation:   d.Reputation,
		CreatedAt:    d.CreatedAt,
		LastSeenAt:   d.LastSeenAt,
		TokenVersion: d.TokenVersion,
	}
}

type userRepository struct {
	col *mongo.Collection
}

func (r *userRepository) Get(ctx context.Context, userID string) (*models.AppUser, error) {
	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toModel(), nil
}

func (r *userRepository) GetMany(ctx context.Context, userIDs []string) (map[string]*models.AppUser, error) {
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make(map[string]*models.AppUser, len(docs))
	for _, doc := range docs {
		users[doc.ID] = doc.toModel()
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, userID, phoneHash string, now time.Time) (*models.AppUser, error) {
	doc := userDoc{
		ID:           userID,
		PhoneHash:    phoneHash,
		Reputation:   0,
		CreatedAt:    now,
		LastSeenAt:   now,
		TokenVersion: 1,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to persist user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *userRepository) TouchLastSeen(ctx context.Context, userID string, now time.Time) (*models.AppUser, error) {
	return r.findAndUpdate(ctx, userID, bson.M{"$set": bson.M{"last_seen_at": now}})
}

func (r *userRepository) AdjustReputation(ctx context.Context, userID string, delta int) (*models.AppUser, error) {
	return r.findAndUpdate(ctx, userID, bson.M{"$inc": bson.M{"reputation": delta}})
}

func (r *userRepository) SetTokenVersion(ctx context.Context, userID string, version int) (*models.AppUser, error) {
	return r.findAndUpdate(ctx, userID, bson.M{"$set": bson.M{"token_version": version}})
}

func (r *userRepository) findAndUpdate(ctx context.Context, userID string, update bson.M) (*models.AppUser, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toModel(), nil
}
