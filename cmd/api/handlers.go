package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/export-service/internal/application"
	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/logging"
	"github.com/wms-platform/export-service/pkg/middleware"
)

func getDemandHandler(service *application.AllocationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.GetDemandQuery{
			ShipmentID: c.Param("shipmentId"),
			FactoryID:  middleware.GetFactoryID(c),
			Status:     c.DefaultQuery("status", domain.ShipmentLineStatusOpen),
		}

		demand, err := service.GetDemand(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, demand)
	}
}

func buildAllocationHandler(service *application.AllocationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		cmd := application.BuildAllocationCommand{
			ShipmentID: c.Param("shipmentId"),
			FactoryID:  middleware.GetFactoryID(c),
		}

		preview, err := service.BuildAllocation(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, preview)
	}
}

func commitReservationHandler(service *application.ReservationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ActorID string                            `json:"actorId" binding:"required"`
			Lines   []application.AllocationLineInput `json:"lines" binding:"required,min=1,dive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.CommitReservationCommand{
			ShipmentID: c.Param("shipmentId"),
			FactoryID:  middleware.GetFactoryID(c),
			ActorID:    req.ActorID,
			Lines:      req.Lines,
		}

		result, err := service.CommitReservation(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		// partial application is a success response; failed lines carry
		// their own error text
		status := http.StatusCreated
		if result.Failed > 0 {
			status = http.StatusMultiStatus
		}
		c.JSON(status, result)
	}
}

func listOutboundHandler(service *application.ReservationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		records, err := service.ListOutbound(c.Request.Context(), application.ListOutboundQuery{
			FactoryID:  middleware.GetFactoryID(c),
			ShipmentID: c.Param("shipmentId"),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
	}
}

func listLotsHandler(service *application.AllocationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		lots, err := service.ListLots(c.Request.Context(), application.ListLotsQuery{
			FactoryID: middleware.GetFactoryID(c),
			ItemCode:  c.Query("itemCode"),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"lots": lots, "count": len(lots)})
	}
}

func availabilityHandler(service *application.AllocationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		itemCode := c.Query("itemCode")
		if itemCode == "" {
			responder.RespondBadRequest("itemCode query parameter is required")
			return
		}

		var required int64
		if raw := c.Query("required"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 0 {
				responder.RespondBadRequest("required must be a non-negative integer")
				return
			}
			required = parsed
		}

		availability, err := service.CheckAvailability(c.Request.Context(), application.AvailabilityQuery{
			FactoryID: middleware.GetFactoryID(c),
			ItemCode:  itemCode,
			Required:  required,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, availability)
	}
}

func consolidateHandler(service *application.ConsolidationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			AcrossLocations bool `json:"acrossLocations"`
			DryRun          bool `json:"dryRun"`
		}
		// an empty body means apply at the default granularity
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		result, err := service.Consolidate(c.Request.Context(), application.ConsolidateCommand{
			FactoryID:       middleware.GetFactoryID(c),
			AcrossLocations: req.AcrossLocations,
			DryRun:          req.DryRun,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func updateOutboundHandler(service *application.ReservationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Quantity int64 `json:"quantity" binding:"required,gt=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		record, err := service.UpdateOutboundQuantity(c.Request.Context(), application.UpdateOutboundQuantityCommand{
			OutboundID: c.Param("outboundId"),
			FactoryID:  middleware.GetFactoryID(c),
			Quantity:   req.Quantity,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func reverseReservationHandler(service *application.ReservationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ActorID string `json:"actorId"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		result, err := service.ReverseReservation(c.Request.Context(), application.ReverseReservationCommand{
			OutboundID: c.Param("outboundId"),
			FactoryID:  middleware.GetFactoryID(c),
			ActorID:    req.ActorID,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
