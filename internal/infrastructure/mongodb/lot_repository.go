package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/metrics"
	shareddb "github.com/wms-platform/export-service/pkg/mongodb"
)

// LotRepository persists stock lots in the "lots" collection
type LotRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

func NewLotRepository(db *mongo.Database, m *metrics.Metrics) *LotRepository {
	repo := &LotRepository{collection: db.Collection("lots"), metrics: m}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *LotRepository) recordOperation(operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordMongoDBOperation("lots", operation, err == nil, time.Since(start))
	}
}

func (r *LotRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "factoryId", Value: 1},
				{Key: "itemCode", Value: 1},
				{Key: "batchNo", Value: 1},
				{Key: "productionOrderRef", Value: 1},
				{Key: "lotRef", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "factoryId", Value: 1}, {Key: "itemCode", Value: 1}}},
		{Keys: bson.D{{Key: "factoryId", Value: 1}, {Key: "importedAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// itemCodeFilter widens an item code query the same way the matcher does:
// exact (case-insensitive), candidate codes extending the demand code, and
// demand codes extending a stored code of at least six characters.
func itemCodeFilter(itemCode string) bson.M {
	code := domain.NormalizeItemCode(itemCode)
	quoted := regexp.QuoteMeta(code)

	clauses := []bson.M{
		{"itemCode": primitive.Regex{Pattern: "^" + quoted + "$", Options: "i"}},
	}
	if len(code) >= 6 {
		clauses = append(clauses, bson.M{
			"itemCode": primitive.Regex{Pattern: "^" + quoted, Options: "i"},
		})
	}
	for i := 6; i < len(code); i++ {
		clauses = append(clauses, bson.M{
			"itemCode": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(code[:i]) + "$", Options: "i"},
		})
	}
	return bson.M{"$or": clauses}
}

func (r *LotRepository) FindByItemCode(ctx context.Context, factoryID, itemCode string) ([]*domain.Lot, error) {
	filter := itemCodeFilter(itemCode)
	filter["factoryId"] = factoryID

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "itemCode", Value: 1}, {Key: "importedAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find lots: %w", err)
	}
	defer cursor.Close(ctx)

	var lots []*domain.Lot
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, fmt.Errorf("failed to decode lots: %w", err)
	}

	// the regex widening can overmatch on case-folded prefixes, so the
	// matcher has the final say
	matched := lots[:0]
	for _, lot := range lots {
		if domain.MatchesItemCode(itemCode, lot.ItemCode) {
			matched = append(matched, lot)
		}
	}
	return matched, nil
}

func (r *LotRepository) FindByItemCodes(ctx context.Context, factoryID string, itemCodes []string) ([]*domain.Lot, error) {
	if len(itemCodes) == 0 {
		return nil, nil
	}

	clauses := make([]bson.M, 0, len(itemCodes))
	for _, code := range itemCodes {
		clauses = append(clauses, itemCodeFilter(code))
	}
	filter := bson.M{"factoryId": factoryID, "$or": clauses}

	// the allocator's sort is stable, so ties between lots whose batch
	// codes carry no usable key must rest on a defined snapshot order
	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "itemCode", Value: 1}, {Key: "importedAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find lots: %w", err)
	}
	defer cursor.Close(ctx)

	var lots []*domain.Lot
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, fmt.Errorf("failed to decode lots: %w", err)
	}

	matched := lots[:0]
	for _, lot := range lots {
		for _, code := range itemCodes {
			if domain.MatchesItemCode(code, lot.ItemCode) {
				matched = append(matched, lot)
				break
			}
		}
	}
	return matched, nil
}

func keyFilter(factoryID string, key domain.LotKey) bson.M {
	k := key.Normalized()
	return bson.M{
		"factoryId":          factoryID,
		"itemCode":           k.ItemCode,
		"batchNo":            k.BatchNo,
		"productionOrderRef": k.ProductionOrderRef,
		"lotRef":             k.LotRef,
	}
}

func (r *LotRepository) FindByKey(ctx context.Context, factoryID string, key domain.LotKey) (*domain.Lot, error) {
	var lot domain.Lot
	err := r.collection.FindOne(ctx, keyFilter(factoryID, key)).Decode(&lot)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lot: %w", err)
	}
	return &lot, nil
}

func (r *LotRepository) FindByFactory(ctx context.Context, factoryID string) ([]*domain.Lot, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"factoryId": factoryID},
		options.Find().SetSort(bson.D{{Key: "itemCode", Value: 1}, {Key: "importedAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find lots: %w", err)
	}
	defer cursor.Close(ctx)

	var lots []*domain.Lot
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, fmt.Errorf("failed to decode lots: %w", err)
	}
	return lots, nil
}

// DecrementOnHand only matches when the lot still holds at least the
// requested quantity, which closes the race between preview and commit.
func (r *LotRepository) DecrementOnHand(ctx context.Context, factoryID string, key domain.LotKey, quantity int64) error {
	filter := keyFilter(factoryID, key)
	filter["onHandQuantity"] = bson.M{"$gte": quantity}

	start := time.Now()
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{
			"onHandQuantity":   -quantity,
			"exportedQuantity": quantity,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	r.recordOperation("decrementOnHand", start, err)
	if err != nil {
		return fmt.Errorf("failed to decrement lot: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrStaleAllocation
	}
	return nil
}

func (r *LotRepository) IncrementOnHand(ctx context.Context, factoryID string, key domain.LotKey, quantity int64) error {
	start := time.Now()
	result, err := r.collection.UpdateOne(ctx, keyFilter(factoryID, key), bson.M{
		"$inc": bson.M{
			"onHandQuantity":   quantity,
			"exportedQuantity": -quantity,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	r.recordOperation("incrementOnHand", start, err)
	if err != nil {
		return fmt.Errorf("failed to increment lot: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

// ReplaceAll upserts the merged survivors and deletes the absorbed rows,
// chunked to stay under the server's write batch limit
func (r *LotRepository) ReplaceAll(ctx context.Context, factoryID string, merged []*domain.Lot, removedIDs []string) error {
	writes := make([]mongo.WriteModel, 0, len(merged)+1)
	for _, lot := range merged {
		if lot.ID.IsZero() {
			lot.ID = primitive.NewObjectID()
		}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": lot.ID, "factoryId": factoryID}).
			SetReplacement(lot).
			SetUpsert(true))
	}

	if len(removedIDs) > 0 {
		ids := make([]primitive.ObjectID, 0, len(removedIDs))
		for _, hex := range removedIDs {
			id, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				return fmt.Errorf("invalid lot id %q: %w", hex, err)
			}
			ids = append(ids, id)
		}
		writes = append(writes, mongo.NewDeleteManyModel().
			SetFilter(bson.M{"_id": bson.M{"$in": ids}, "factoryId": factoryID}))
	}

	began := time.Now()
	for start := 0; start < len(writes); start += shareddb.MaxWriteBatchSize {
		end := start + shareddb.MaxWriteBatchSize
		if end > len(writes) {
			end = len(writes)
		}
		if _, err := r.collection.BulkWrite(ctx, writes[start:end], options.BulkWrite().SetOrdered(true)); err != nil {
			r.recordOperation("replaceAll", began, err)
			return fmt.Errorf("failed to replace lots: %w", err)
		}
	}
	r.recordOperation("replaceAll", began, nil)
	return nil
}
