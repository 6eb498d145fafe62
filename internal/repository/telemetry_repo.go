package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingocache/internal/model"
)

// SourceCount is one row of the per-source aggregation
type SourceCount struct {
	Source       model.ResponseSource `bson:"_id" json:"source"`
	Count        int64                `bson:"count" json:"count"`
	AvgLatencyMS float64              `bson:"avgLatencyMs" json:"avgLatencyMs"`
	CostUnits    float64              `bson:"costUnits" json:"costUnits"`
}

// TelemetryRepo persists telemetry events. It is a telemetry.Sink.
type TelemetryRepo struct {
	collection *mongo.Collection
}

// NewTelemetryRepo creates a new telemetry repository
func NewTelemetryRepo(db *mongo.Database) *TelemetryRepo {
	return &TelemetryRepo{
		collection: db.Collection("telemetry_events"),
	}
}

func (r *TelemetryRepo) Name() string { return "mongo" }

func (r *TelemetryRepo) Record(ctx context.Context, ev model.TelemetryEvent) error {
	_, err := r.collection.InsertOne(ctx, ev)
	return err
}

// SummarySince aggregates events by response source
func (r *TelemetryRepo) SummarySince(ctx context.Context, since time.Time) ([]SourceCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$source",
			"count":        bson.M{"$sum": 1},
			"avgLatencyMs": bson.M{"$avg": "$latencyMs"},
			"costUnits":    bson.M{"$sum": bson.M{"$ifNull": bson.A{"$costUnits", 0}}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []SourceCount
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
