package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/export-service/internal/domain"
)

// OutboundRecordRepository stores the editable outbound rows that the
// export ledger is derived from
type OutboundRecordRepository struct {
	collection *mongo.Collection
}

func NewOutboundRecordRepository(db *mongo.Database) *OutboundRecordRepository {
	repo := &OutboundRecordRepository{collection: db.Collection("outbound_records")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OutboundRecordRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "factoryId", Value: 1}, {Key: "shipmentId", Value: 1}, {Key: "pushSeq", Value: 1}}},
		{Keys: bson.D{{Key: "factoryId", Value: 1}, {Key: "approved", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *OutboundRecordRepository) Save(ctx context.Context, record *domain.OutboundRecord) error {
	record.UpdatedAt = time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = record.UpdatedAt
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts); err != nil {
		return fmt.Errorf("failed to save outbound record: %w", err)
	}
	return nil
}

func (r *OutboundRecordRepository) FindByID(ctx context.Context, id string) (*domain.OutboundRecord, error) {
	var record domain.OutboundRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find outbound record: %w", err)
	}
	return &record, nil
}

func (r *OutboundRecordRepository) FindByShipment(ctx context.Context, factoryID, shipmentID string) ([]*domain.OutboundRecord, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"factoryId": factoryID, "shipmentId": shipmentID},
		options.Find().SetSort(bson.D{{Key: "pushSeq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find outbound records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.OutboundRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode outbound records: %w", err)
	}
	return records, nil
}

func (r *OutboundRecordRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"approved": approved, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to update outbound record: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbound record %s not found", id)
	}
	return nil
}

func (r *OutboundRecordRepository) UpdateQuantity(ctx context.Context, id string, quantity, cartons, remainder int64) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "approved": false},
		bson.M{"$set": bson.M{
			"quantity":  quantity,
			"cartons":   cartons,
			"remainder": remainder,
			"updatedAt": time.Now().UTC(),
		}})
	if err != nil {
		return fmt.Errorf("failed to update outbound record: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrAlreadyApproved
	}
	return nil
}
