package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"

	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

type userRepository struct {
	col *fs.CollectionRef
}

func snapshotToUser(snap *fs.DocumentSnapshot, fallback time.Time) *models.AppUser {
	data := snap.Data()
	phoneHash := asString(data["phone_hash"])
	if phoneHash == "" {
		phoneHash = snap.Ref.ID
	}
	return &models.AppUser{
		ID:           snap.Ref.ID,
		PhoneHash:    phoneHash,
		Reputation:   asInt(data["reputation"], 0),
		CreatedAt:    asTime(data["created_at"], fallback),
		LastSeenAt:   asTime(data["last_seen_at"], fallback),
		TokenVersion: asInt(data["token_version"], 1),
	}
}

func (r *userRepository) Get(ctx context.Context, userID string) (*models.AppUser, error) {
	snap, err := r.col.Doc(userID).Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return snapshotToUser(snap, time.Now().UTC()), nil
}

func (r *userRepository) GetMany(ctx context.Context, userIDs []string) (map[string]*models.AppUser, error) {
	users := make(map[string]*models.AppUser, len(userIDs))
	for _, id := range userIDs {
		user, err := r.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users[id] = user
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, userID, phoneHash string, now time.Time) (*models.AppUser, error) {
	ref := r.col.Doc(userID)
	_, err := ref.Set(ctx, map[string]interface{}{
		"phone_hash":    phoneHash,
		"reputation":    0,
		"created_at":    now,
		"last_seen_at":  now,
		"token_version": 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist user: %w", err)
	}
	return r.readBack(ctx, ref, now)
}

func (r *userRepository) TouchLastSeen(ctx context.Context, userID string, now time.Time) (*models.AppUser, error) {
	return r.update(ctx, userID, now, fs.Update{Path: "last_seen_at", Value: now})
}

func (r *userRepository) AdjustReputation(ctx context.Context, userID string, delta int) (*models.AppUser, error) {
	return r.update(ctx, userID, time.Now().UTC(), fs.Update{Path: "reputation", Value: fs.Increment(delta)})
}

func (r *userRepository) SetTokenVersion(ctx context.Context, userID string, version int) (*models.AppUser, error) {
	return r.update(ctx, userID, time.Now().UTC(), fs.Update{Path: "token_version", Value: version})
}

// update applies field updates to an existing user document. Firestore
// rejects updates to missing documents, which maps onto ErrNotFound.
func (r *userRepository) update(ctx context.Context, userID string, fallback time.Time, updates ...fs.Update) (*models.AppUser, error) {
	ref := r.col.Doc(userID)
	if _, err := ref.Update(ctx, updates); err != nil {
		return nil, notFound(err)
	}
	return r.readBack(ctx, ref, fallback)
}

func (r *userRepository) readBack(ctx context.Context, ref *fs.DocumentRef, fallback time.Time) (*models.AppUser, error) {
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return snapshotToUser(snap, fallback), nil
}
