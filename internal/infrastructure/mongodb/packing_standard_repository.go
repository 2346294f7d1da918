package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/export-service/internal/domain"
)

// PackingStandardRepository looks up configured units-per-carton values
type PackingStandardRepository struct {
	collection *mongo.Collection
}

func NewPackingStandardRepository(db *mongo.Database) *PackingStandardRepository {
	repo := &PackingStandardRepository{collection: db.Collection("packing_standards")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *PackingStandardRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "factoryId", Value: 1}, {Key: "itemCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// FindByItemCode returns nil when no standard is configured; callers then
// record zero cartons and zero remainder
func (r *PackingStandardRepository) FindByItemCode(ctx context.Context, factoryID, itemCode string) (*domain.PackingStandard, error) {
	var standard domain.PackingStandard
	err := r.collection.FindOne(ctx, bson.M{
		"factoryId": factoryID,
		"itemCode":  domain.NormalizeItemCode(itemCode),
	}).Decode(&standard)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find packing standard: %w", err)
	}
	return &standard, nil
}
