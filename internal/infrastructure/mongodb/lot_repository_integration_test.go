package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/metrics"
)

type LotRepositoryIntegrationTestSuite struct {
	suite.Suite
	mongoContainer *mongodb.MongoDBContainer
	client         *mongo.Client
	db             *mongo.Database
	metrics        *metrics.Metrics
	lots           *LotRepository
	sequences      *SequenceRepository
	outbound       *OutboundRecordRepository
	ctx            context.Context
}

func (s *LotRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := mongodb.Run(s.ctx, "mongo:6",
		mongodb.WithReplicaSet("rs"),
	)
	s.Require().NoError(err)
	s.mongoContainer = container

	connStr, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	clientOpts := options.Client().ApplyURI(connStr).SetDirect(true)
	client, err := mongo.Connect(s.ctx, clientOpts)
	s.Require().NoError(err)
	s.client = client
	s.Require().NoError(client.Ping(s.ctx, nil))

	s.db = client.Database("export_test")
	s.metrics = metrics.New(metrics.DefaultConfig("export-service-test"))
	s.lots = NewLotRepository(s.db, s.metrics)
	s.sequences = NewSequenceRepository(s.db)
	s.outbound = NewOutboundRecordRepository(s.db)
}

func (s *LotRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Disconnect(s.ctx)
	}
	if s.mongoContainer != nil {
		s.Require().NoError(s.mongoContainer.Terminate(s.ctx))
	}
}

func (s *LotRepositoryIntegrationTestSuite) TearDownTest() {
	s.db.Collection("lots").Drop(s.ctx)
	s.db.Collection("counters").Drop(s.ctx)
	s.db.Collection("outbound_records").Drop(s.ctx)
}

func TestLotRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(LotRepositoryIntegrationTestSuite))
}

func (s *LotRepositoryIntegrationTestSuite) insertLot(itemCode, batchNo string, onHand int64) *domain.Lot {
	lot := &domain.Lot{
		ID:                 primitive.NewObjectID(),
		ItemCode:           itemCode,
		BatchNo:            batchNo,
		ProductionOrderRef: "PO-1",
		LotRef:             "L-1",
		FactoryID:          "F01",
		OnHandQuantity:     onHand,
		ImportedAt:         time.Now().UTC(),
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	_, err := s.db.Collection("lots").InsertOne(s.ctx, lot)
	s.Require().NoError(err)
	return lot
}

func (s *LotRepositoryIntegrationTestSuite) TestFindByItemCode_WidensToSuffixVariants() {
	s.insertLot("P030105", "B1", 100)
	s.insertLot("P030105_B", "B2", 50)
	s.insertLot("P0301", "B3", 25)  // shorter than six chars, no prefix match
	s.insertLot("P040201", "B4", 10)

	lots, err := s.lots.FindByItemCode(s.ctx, "F01", "p030105")
	s.Require().NoError(err)
	s.Require().Len(lots, 2)

	codes := []string{lots[0].ItemCode, lots[1].ItemCode}
	s.Contains(codes, "P030105")
	s.Contains(codes, "P030105_B")
}

func (s *LotRepositoryIntegrationTestSuite) TestFindByItemCodes_Deduplicates() {
	s.insertLot("P030105", "B1", 100)

	lots, err := s.lots.FindByItemCodes(s.ctx, "F01", []string{"P030105", "P030105"})
	s.Require().NoError(err)
	s.Len(lots, 1)
}

func (s *LotRepositoryIntegrationTestSuite) insertLotImported(itemCode, batchNo string, onHand int64, importedAt time.Time) *domain.Lot {
	lot := s.insertLot(itemCode, batchNo, onHand)
	_, err := s.db.Collection("lots").UpdateOne(s.ctx,
		primitive.M{"_id": lot.ID},
		primitive.M{"$set": primitive.M{"importedAt": importedAt}})
	s.Require().NoError(err)
	lot.ImportedAt = importedAt
	return lot
}

// Batch codes too short to carry a usable key all tie in the FIFO sort, so
// the query itself has to return them in a defined order.
func (s *LotRepositoryIntegrationTestSuite) TestFindByItemCodes_OrderedByImportDate() {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s.insertLotImported("P030105", "B3", 10, base.Add(48*time.Hour))
	s.insertLotImported("P030105", "B1", 10, base)
	s.insertLotImported("P030105", "B2", 10, base.Add(24*time.Hour))

	lots, err := s.lots.FindByItemCodes(s.ctx, "F01", []string{"P030105"})
	s.Require().NoError(err)
	s.Require().Len(lots, 3)
	s.Equal("B1", lots[0].BatchNo)
	s.Equal("B2", lots[1].BatchNo)
	s.Equal("B3", lots[2].BatchNo)
}

func (s *LotRepositoryIntegrationTestSuite) TestDecrementOnHand_Conditional() {
	lot := s.insertLot("P030105", "B1", 100)
	opCounter := s.metrics.MongoDBOperations.WithLabelValues("export-service-test", "lots", "decrementOnHand", "success")
	before := testutil.ToFloat64(opCounter)

	err := s.lots.DecrementOnHand(s.ctx, "F01", lot.Key(), 60)
	s.Require().NoError(err)

	// a second draw that overshoots the remaining 40 must not match
	err = s.lots.DecrementOnHand(s.ctx, "F01", lot.Key(), 60)
	s.Require().ErrorIs(err, domain.ErrStaleAllocation)

	got, err := s.lots.FindByKey(s.ctx, "F01", lot.Key())
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(int64(40), got.OnHandQuantity)
	s.Equal(int64(60), got.ExportedQuantity)

	// both updates ran without a driver error, unmatched or not
	s.Equal(before+2, testutil.ToFloat64(opCounter))
}

func (s *LotRepositoryIntegrationTestSuite) TestIncrementOnHand_RestoresStock() {
	lot := s.insertLot("P030105", "B1", 100)
	s.Require().NoError(s.lots.DecrementOnHand(s.ctx, "F01", lot.Key(), 30))

	s.Require().NoError(s.lots.IncrementOnHand(s.ctx, "F01", lot.Key(), 30))

	got, err := s.lots.FindByKey(s.ctx, "F01", lot.Key())
	s.Require().NoError(err)
	s.Equal(int64(100), got.OnHandQuantity)
	s.Equal(int64(0), got.ExportedQuantity)
}

func (s *LotRepositoryIntegrationTestSuite) TestIncrementOnHand_MissingLot() {
	err := s.lots.IncrementOnHand(s.ctx, "F01", domain.LotKey{ItemCode: "NOPE", BatchNo: "X"}, 10)
	s.Require().ErrorIs(err, domain.ErrLotNotFound)
}

func (s *LotRepositoryIntegrationTestSuite) TestReplaceAll_MergeAndRemove() {
	survivor := s.insertLot("P030105", "B1", 100)
	absorbed := s.insertLot("P030105", "B2", 50)
	// survivor carries the merged totals
	survivor.OnHandQuantity = 150

	err := s.lots.ReplaceAll(s.ctx, "F01", []*domain.Lot{survivor}, []string{absorbed.ID.Hex()})
	s.Require().NoError(err)

	remaining, err := s.lots.FindByFactory(s.ctx, "F01")
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(int64(150), remaining[0].OnHandQuantity)
}

func (s *LotRepositoryIntegrationTestSuite) TestNextPushSeq_Monotonic() {
	first, err := s.sequences.NextPushSeq(s.ctx, "F01", "SH-001")
	s.Require().NoError(err)
	second, err := s.sequences.NextPushSeq(s.ctx, "F01", "SH-001")
	s.Require().NoError(err)
	other, err := s.sequences.NextPushSeq(s.ctx, "F01", "SH-002")
	s.Require().NoError(err)

	s.Equal(int64(1), first)
	s.Equal(int64(2), second)
	s.Equal(int64(1), other)
}

func (s *LotRepositoryIntegrationTestSuite) TestOutboundRecord_ApproveAndEditGuard() {
	record := &domain.OutboundRecord{
		ID:         "ob-1",
		ItemCode:   "P030105",
		BatchNo:    "B1",
		FactoryID:  "F01",
		ShipmentID: "SH-001",
		PushSeq:    1,
		Quantity:   100,
	}
	s.Require().NoError(s.outbound.Save(s.ctx, record))

	s.Require().NoError(s.outbound.UpdateQuantity(s.ctx, "ob-1", 120, 1, 20))
	s.Require().NoError(s.outbound.SetApproved(s.ctx, "ob-1", true))

	// approved rows are frozen
	err := s.outbound.UpdateQuantity(s.ctx, "ob-1", 200, 2, 0)
	s.Require().ErrorIs(err, domain.ErrAlreadyApproved)

	got, err := s.outbound.FindByID(s.ctx, "ob-1")
	s.Require().NoError(err)
	s.True(got.Approved)
	s.Equal(int64(120), got.Quantity)
}
