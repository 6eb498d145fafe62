package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingocache/internal/model"
)

// ContentRepo holds exercise prompts and their reference translations
type ContentRepo interface {
	GetContent(ctx context.Context, contentID string) (*model.ContentItem, error)
	Upsert(ctx context.Context, item *model.ContentItem) error
	GetAll(ctx context.Context) ([]*model.ContentItem, error)
	Delete(ctx context.Context, contentID string) error
}

type contentRepo struct {
	collection *mongo.Collection
}

// NewContentRepo creates a new content repository
func NewContentRepo(db *mongo.Database) ContentRepo {
	return &contentRepo{
		collection: db.Collection("content_items"),
	}
}

func (r *contentRepo) GetContent(ctx context.Context, contentID string) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.collection.FindOne(ctx, bson.M{"_id": contentID}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *contentRepo) Upsert(ctx context.Context, item *model.ContentItem) error {
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ContentID}, item, opts)
	return err
}

func (r *contentRepo) GetAll(ctx context.Context) ([]*model.ContentItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*model.ContentItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentRepo) Delete(ctx context.Context, contentID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": contentID})
	return err
}
