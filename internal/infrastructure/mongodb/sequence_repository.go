package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SequenceRepository issues monotonically increasing push sequence numbers
// per shipment from an atomic counter document
type SequenceRepository struct {
	collection *mongo.Collection
}

func NewSequenceRepository(db *mongo.Database) *SequenceRepository {
	return &SequenceRepository{collection: db.Collection("counters")}
}

func (r *SequenceRepository) NextPushSeq(ctx context.Context, factoryID, shipmentID string) (int64, error) {
	filter := bson.M{"_id": fmt.Sprintf("pushSeq:%s:%s", factoryID, shipmentID)}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to advance push sequence: %w", err)
	}
	return counter.Seq, nil
}
