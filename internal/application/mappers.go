package application

import (
	"github.com/wms-platform/export-service/internal/domain"
)

// ToLotDTO converts a domain lot to its response representation
func ToLotDTO(lot *domain.Lot) LotDTO {
	return LotDTO{
		ID:                    lot.ID.Hex(),
		ItemCode:              lot.ItemCode,
		ItemName:              lot.ItemName,
		BatchNo:               lot.BatchNo,
		ProductionOrderRef:    lot.ProductionOrderRef,
		LotRef:                lot.LotRef,
		FactoryID:             lot.FactoryID,
		LocationLabel:         lot.LocationLabel,
		OnHandQuantity:        lot.OnHandQuantity,
		ExportedQuantity:      lot.ExportedQuantity,
		PlannedExportQuantity: lot.PlannedExportQuantity,
		ImportedAt:            lot.ImportedAt,
		ExpiresAt:             lot.ExpiresAt,
		Supplier:              lot.Supplier,
		Notes:                 lot.Notes,
	}
}

// ToLotDTOs converts a slice of lots
func ToLotDTOs(lots []*domain.Lot) []LotDTO {
	dtos := make([]LotDTO, len(lots))
	for i, lot := range lots {
		dtos[i] = ToLotDTO(lot)
	}
	return dtos
}

// ToAllocationLineDTO converts an allocation line
func ToAllocationLineDTO(line domain.AllocationLine) AllocationLineDTO {
	return AllocationLineDTO{
		ItemCode:           line.ItemCode,
		ItemName:           line.ItemName,
		BatchNo:            line.BatchNo,
		ProductionOrderRef: line.ProductionOrderRef,
		LotRef:             line.LotRef,
		LocationLabel:      line.LocationLabel,
		AllocatedQuantity:  line.AllocatedQuantity,
		Selected:           line.Selected,
		Notes:              line.Notes,
	}
}

// ToAllocationPreviewDTO converts an allocation result into a preview response
func ToAllocationPreviewDTO(shipmentID, factoryID string, result domain.AllocationResult) *AllocationPreviewDTO {
	lines := make([]AllocationLineDTO, len(result.Lines))
	for i, line := range result.Lines {
		lines[i] = ToAllocationLineDTO(line)
	}

	dto := &AllocationPreviewDTO{
		ShipmentID:   shipmentID,
		FactoryID:    factoryID,
		Lines:        lines,
		FullyCovered: result.FullyCovered(),
	}
	if len(result.Shortages) > 0 {
		dto.Shortages = result.Shortages
	}
	return dto
}

// ToOutboundRecordDTO converts an outbound ledger row
func ToOutboundRecordDTO(record *domain.OutboundRecord) OutboundRecordDTO {
	return OutboundRecordDTO{
		ID:                 record.ID,
		ItemCode:           record.ItemCode,
		ItemName:           record.ItemName,
		BatchNo:            record.BatchNo,
		ProductionOrderRef: record.ProductionOrderRef,
		LotRef:             record.LotRef,
		ShipmentID:         record.ShipmentID,
		PushSeq:            record.PushSeq,
		Quantity:           record.Quantity,
		Cartons:            record.Cartons,
		Remainder:          record.Remainder,
		LocationLabel:      record.LocationLabel,
		Approved:           record.Approved,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

// ToOutboundRecordDTOs converts a slice of outbound rows
func ToOutboundRecordDTOs(records []*domain.OutboundRecord) []OutboundRecordDTO {
	dtos := make([]OutboundRecordDTO, len(records))
	for i, record := range records {
		dtos[i] = ToOutboundRecordDTO(record)
	}
	return dtos
}

// toDomainLine converts a selected input line back to a domain allocation line
func toDomainLine(input AllocationLineInput) domain.AllocationLine {
	return domain.AllocationLine{
		ItemCode:           input.ItemCode,
		ItemName:           input.ItemName,
		BatchNo:            input.BatchNo,
		ProductionOrderRef: input.ProductionOrderRef,
		LotRef:             input.LotRef,
		LocationLabel:      input.LocationLabel,
		AllocatedQuantity:  input.AllocatedQuantity,
		Selected:           input.Selected,
		Notes:              input.Notes,
	}
}
