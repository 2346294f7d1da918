package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/export-service/internal/domain"
)

// ShipmentDemandRepository reads shipment line items; this service never
// writes them, the order intake pipeline owns that collection
type ShipmentDemandRepository struct {
	collection *mongo.Collection
}

func NewShipmentDemandRepository(db *mongo.Database) *ShipmentDemandRepository {
	repo := &ShipmentDemandRepository{collection: db.Collection("shipment_lines")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ShipmentDemandRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "factoryId", Value: 1}, {Key: "shipmentId", Value: 1}, {Key: "status", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *ShipmentDemandRepository) FindLines(ctx context.Context, factoryID, shipmentID, status string) ([]domain.ShipmentLine, error) {
	filter := bson.M{"factoryId": factoryID, "shipmentId": shipmentID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find shipment lines: %w", err)
	}
	defer cursor.Close(ctx)

	var lines []domain.ShipmentLine
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode shipment lines: %w", err)
	}
	return lines, nil
}
