package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "audit_logs"

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection(auditCollection),
		logger: logger,
	}
}

// AuditLog is one domain event as stored in Mongo. ID is the message id
// assigned by the outbox, so redelivered messages collapse into one document.
type AuditLog struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	UserID    string    `bson:"user_id,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) EnsureIndexes(ctx context.Context) error {
	_, err := a.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
	})
	return errors.Wrap(err, "create audit indexes")
}

// LogEvent stores entry unless a document with the same id already exists.
func (a *AuditLogger) LogEvent(ctx context.Context, entry AuditLog) error {
	_, err := a.coll.UpdateOne(ctx,
		bson.M{"_id": entry.ID},
		bson.M{"$setOnInsert": bson.M{
			"action":    entry.Action,
			"user_id":   entry.UserID,
			"timestamp": entry.Timestamp,
			"data":      entry.Data,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		a.logger.WithError(err).WithField("action", entry.Action).Error("failed to insert audit log")
		return errors.Wrap(err, "insert audit log")
	}
	return nil
}

// ListByUser returns the user's most recent audit entries, newest first.
func (a *AuditLogger) ListByUser(ctx context.Context, userID string, limit int64) ([]AuditLog, error) {
	cur, err := a.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "find audit logs")
	}
	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, errors.Wrap(err, "decode audit logs")
	}
	return logs, nil
}
