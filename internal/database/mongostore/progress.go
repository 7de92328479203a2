package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

func (s *Store) GetProgress(ctx context.Context, userID string) (*entities.UserProgress, error) {
	return findOne[entities.UserProgress](ctx, s.progress, "userId", userID, "User progress")
}

func (s *Store) CreateProgress(ctx context.Context, p *entities.UserProgress) error {
	now := time.Now().UTC()
	p.Version = 0
	p.CreatedAt, p.UpdatedAt = now, now
	return insertIfAbsent(ctx, s.progress, p, "User progress", p.UserID)
}

// SaveProgress is a compare-and-swap on the version field.
func (s *Store) SaveProgress(ctx context.Context, p *entities.UserProgress) error {
	now := time.Now().UTC()
	res, err := s.progress.UpdateOne(ctx,
		bson.M{"userId": p.UserID, "version": p.Version},
		bson.M{
			"$set": bson.M{"bookProgress": p.BookProgress, "updatedAt": now},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		ok, err := exists(ctx, s.progress, "userId", p.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return library.NotFound("User progress", p.UserID)
		}
		return library.ErrStaleVersion
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

func (s *Store) DeleteProgress(ctx context.Context, userID string) error {
	res, err := s.progress.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return library.NotFound("User progress", userID)
	}
	return nil
}
