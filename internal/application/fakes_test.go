package application

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/logging"
	"github.com/wms-platform/export-service/pkg/outbox"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("export-service-test")
	cfg.Level = logging.LogLevel("error")
	return logging.New(cfg)
}

// fakeLotRepo keeps lots in a slice and implements the conditional
// decrement the same way the store does: no match means stale.
type fakeLotRepo struct {
	mu   sync.Mutex
	lots []*domain.Lot

	lastRemovedIDs []string
	replacedWith   []*domain.Lot
}

func (f *fakeLotRepo) FindByItemCode(_ context.Context, factoryID, itemCode string) ([]*domain.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Lot
	for _, lot := range f.lots {
		if lot.FactoryID == factoryID && domain.MatchesItemCode(itemCode, lot.ItemCode) {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (f *fakeLotRepo) FindByItemCodes(ctx context.Context, factoryID string, itemCodes []string) ([]*domain.Lot, error) {
	seen := make(map[*domain.Lot]struct{})
	var out []*domain.Lot
	for _, code := range itemCodes {
		lots, _ := f.FindByItemCode(ctx, factoryID, code)
		for _, lot := range lots {
			if _, ok := seen[lot]; !ok {
				seen[lot] = struct{}{}
				out = append(out, lot)
			}
		}
	}
	return out, nil
}

func (f *fakeLotRepo) FindByKey(_ context.Context, factoryID string, key domain.LotKey) (*domain.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := key.Normalized()
	for _, lot := range f.lots {
		if lot.FactoryID == factoryID && lot.Key().Normalized() == want {
			return lot, nil
		}
	}
	return nil, nil
}

func (f *fakeLotRepo) FindByFactory(_ context.Context, factoryID string) ([]*domain.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Lot
	for _, lot := range f.lots {
		if lot.FactoryID == factoryID {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (f *fakeLotRepo) DecrementOnHand(_ context.Context, factoryID string, key domain.LotKey, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := key.Normalized()
	for _, lot := range f.lots {
		if lot.FactoryID == factoryID && lot.Key().Normalized() == want && lot.OnHandQuantity >= quantity {
			lot.OnHandQuantity -= quantity
			lot.ExportedQuantity += quantity
			return nil
		}
	}
	return domain.ErrStaleAllocation
}

func (f *fakeLotRepo) IncrementOnHand(_ context.Context, factoryID string, key domain.LotKey, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := key.Normalized()
	for _, lot := range f.lots {
		if lot.FactoryID == factoryID && lot.Key().Normalized() == want {
			lot.OnHandQuantity += quantity
			if lot.ExportedQuantity >= quantity {
				lot.ExportedQuantity -= quantity
			}
			return nil
		}
	}
	return domain.ErrLotNotFound
}

func (f *fakeLotRepo) ReplaceAll(_ context.Context, factoryID string, merged []*domain.Lot, removedIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replacedWith = merged
	f.lastRemovedIDs = removedIDs
	var kept []*domain.Lot
	for _, lot := range f.lots {
		if lot.FactoryID != factoryID {
			kept = append(kept, lot)
		}
	}
	f.lots = append(kept, merged...)
	return nil
}

type fakeExportRepo struct {
	mu      sync.Mutex
	records []*domain.ExportRecord
	saveErr error
}

func (f *fakeExportRepo) Save(_ context.Context, record *domain.ExportRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeExportRepo) FindByIdentity(_ context.Context, factoryID string, key domain.LotKey, shipmentID string, pushSeq int64) (*domain.ExportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := key.Normalized()
	for _, r := range f.records {
		if r.FactoryID == factoryID && r.Key().Normalized() == want && r.ShipmentID == shipmentID && r.PushSeq == pushSeq {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeExportRepo) FindByShipment(_ context.Context, factoryID, shipmentID string) ([]*domain.ExportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ExportRecord
	for _, r := range f.records {
		if r.FactoryID == factoryID && r.ShipmentID == shipmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeExportRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeOutboundRepo struct {
	mu      sync.Mutex
	records map[string]*domain.OutboundRecord
}

func newFakeOutboundRepo() *fakeOutboundRepo {
	return &fakeOutboundRepo{records: make(map[string]*domain.OutboundRecord)}
}

func (f *fakeOutboundRepo) Save(_ context.Context, record *domain.OutboundRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = record
	return nil
}

func (f *fakeOutboundRepo) FindByID(_ context.Context, id string) (*domain.OutboundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id], nil
}

func (f *fakeOutboundRepo) FindByShipment(_ context.Context, factoryID, shipmentID string) ([]*domain.OutboundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.OutboundRecord
	for _, r := range f.records {
		if r.FactoryID == factoryID && r.ShipmentID == shipmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeOutboundRepo) SetApproved(_ context.Context, id string, approved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		r.Approved = approved
	}
	return nil
}

func (f *fakeOutboundRepo) UpdateQuantity(_ context.Context, id string, quantity, cartons, remainder int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		r.Quantity = quantity
		r.Cartons = cartons
		r.Remainder = remainder
	}
	return nil
}

type fakeShipmentRepo struct {
	lines []domain.ShipmentLine
}

func (f *fakeShipmentRepo) FindLines(_ context.Context, factoryID, shipmentID, status string) ([]domain.ShipmentLine, error) {
	var out []domain.ShipmentLine
	for _, line := range f.lines {
		if line.FactoryID != factoryID || line.ShipmentID != shipmentID {
			continue
		}
		if status != "" && line.Status != status {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

type fakePackingRepo struct {
	standards map[string]int64
}

func (f *fakePackingRepo) FindByItemCode(_ context.Context, _, itemCode string) (*domain.PackingStandard, error) {
	units, ok := f.standards[domain.NormalizeItemCode(itemCode)]
	if !ok {
		return nil, nil
	}
	return &domain.PackingStandard{ItemCode: itemCode, UnitsPerCarton: units}, nil
}

type fakeSequenceRepo struct {
	mu   sync.Mutex
	next int64
}

func (f *fakeSequenceRepo) NextPushSeq(_ context.Context, _, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return f.next, nil
}

// fakeTransactor runs the function directly; fakes mutate in place so there
// is no rollback, which the commit tests account for
type fakeTransactor struct{}

func (fakeTransactor) InTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*outbox.OutboxEvent
}

func (f *fakeOutboxRepo) Save(_ context.Context, event *outbox.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	for _, e := range events {
		if err := f.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeOutboxRepo) FindUnpublished(_ context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*outbox.OutboxEvent
	for _, e := range f.events {
		if !e.IsPublished() {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkPublished(_ context.Context, eventID string) error {
	return nil
}

func (f *fakeOutboxRepo) IncrementRetry(_ context.Context, eventID string, lastError string) error {
	return nil
}

func (f *fakeOutboxRepo) DeletePublished(_ context.Context, olderThan int64) error {
	return nil
}

func (f *fakeOutboxRepo) GetByID(_ context.Context, eventID string) (*outbox.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == eventID {
			return e, nil
		}
	}
	return nil, nil
}
