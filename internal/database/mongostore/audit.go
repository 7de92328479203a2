package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mrlokans/booklearn/internal/entities"
)

func (s *Store) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.audit.InsertOne(ctx, event)
	return err
}

// GetEvents returns newest events first. Empty filter fields match all.
func (s *Store) GetEvents(ctx context.Context, f entities.AuditFilter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{}
	for field, value := range map[string]string{
		"entityType": f.EntityType,
		"entityId":   f.EntityID,
		"bookId":     f.BookID,
	} {
		if value != "" {
			filter[field] = value
		}
	}

	total, err := s.audit.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := s.audit.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	events := []entities.AuditEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (s *Store) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.audit.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": olderThan}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
