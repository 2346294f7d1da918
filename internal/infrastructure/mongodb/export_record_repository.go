package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/export-service/internal/domain"
)

// ExportRecordRepository is the approved-export ledger, one document per
// committed allocation line
type ExportRecordRepository struct {
	collection *mongo.Collection
}

func NewExportRecordRepository(db *mongo.Database) *ExportRecordRepository {
	repo := &ExportRecordRepository{collection: db.Collection("export_records")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ExportRecordRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "factoryId", Value: 1},
				{Key: "shipmentId", Value: 1},
				{Key: "pushSeq", Value: 1},
				{Key: "itemCode", Value: 1},
				{Key: "batchNo", Value: 1},
				{Key: "productionOrderRef", Value: 1},
				{Key: "lotRef", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "factoryId", Value: 1}, {Key: "shipmentId", Value: 1}}},
		{Keys: bson.D{{Key: "approvedAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *ExportRecordRepository) Save(ctx context.Context, record *domain.ExportRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to save export record: %w", err)
	}
	return nil
}

func (r *ExportRecordRepository) FindByIdentity(ctx context.Context, factoryID string, key domain.LotKey, shipmentID string, pushSeq int64) (*domain.ExportRecord, error) {
	filter := keyFilter(factoryID, key)
	filter["shipmentId"] = shipmentID
	filter["pushSeq"] = pushSeq

	var record domain.ExportRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find export record: %w", err)
	}
	return &record, nil
}

func (r *ExportRecordRepository) FindByShipment(ctx context.Context, factoryID, shipmentID string) ([]*domain.ExportRecord, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"factoryId": factoryID, "shipmentId": shipmentID},
		options.Find().SetSort(bson.D{{Key: "pushSeq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find export records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.ExportRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode export records: %w", err)
	}
	return records, nil
}

func (r *ExportRecordRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete export record: %w", err)
	}
	return nil
}
