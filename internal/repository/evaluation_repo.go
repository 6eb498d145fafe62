package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingocache/internal/model"
	"lingocache/internal/store"
)

// EvaluationRepo is the durable store.Persistence backed by MongoDB
type EvaluationRepo struct {
	collection *mongo.Collection
}

// NewEvaluationRepo creates a new evaluation repository
func NewEvaluationRepo(db *mongo.Database) *EvaluationRepo {
	return &EvaluationRepo{
		collection: db.Collection("evaluations"),
	}
}

var _ store.Persistence = (*EvaluationRepo)(nil)

// EnsureIndexes creates the unique key index and the recency index
func (r *EvaluationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "contentId", Value: 1}, {Key: "normalizedInput", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "contentId", Value: 1}, {Key: "lastUsedAt", Value: -1}},
		},
	})
	return err
}

func keyFilter(key model.Key) bson.M {
	return bson.M{"contentId": key.ContentID, "normalizedInput": key.Input}
}

func (r *EvaluationRepo) Get(ctx context.Context, key model.Key) (*model.EvaluationRecord, error) {
	var rec model.EvaluationRecord
	err := r.collection.FindOne(ctx, keyFilter(key)).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *EvaluationRepo) Put(ctx context.Context, rec *model.EvaluationRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, keyFilter(rec.Key()), rec, opts)
	if mongo.IsDuplicateKeyError(err) {
		// lost a concurrent upsert race; the document exists now
		_, err = r.collection.ReplaceOne(ctx, keyFilter(rec.Key()), rec)
	}
	return err
}

func (r *EvaluationRepo) IncrementUsage(ctx context.Context, key model.Key, at time.Time) (*model.EvaluationRecord, error) {
	update := bson.M{
		"$inc": bson.M{"usageCount": 1},
		"$set": bson.M{"lastUsedAt": at},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec model.EvaluationRecord
	err := r.collection.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *EvaluationRepo) ListRecent(ctx context.Context, contentID string, limit int) ([]*model.EvaluationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastUsedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"contentId": contentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.EvaluationRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
