package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	"github.com/shopspring/decimal"
)

type recordConsumptionRequest struct {
	Reading decimal.Decimal `json:"reading"`
}

type recordConsumptionBackOfficeRequest struct {
	CustomerID string          `json:"customer_id"`
	Reading    decimal.Decimal `json:"reading"`
}

// RecordPortalConsumption handles a customer submitting their own
// monthly counter reading. Subject to the submission deadline.
func (s *Server) RecordPortalConsumption(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req recordConsumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.consumptionSvc.Record(c.Request.Context(), consumptiondomain.RecordConsumptionRequest{
		CustomerID: id,
		Reading:    req.Reading,
		Origin:     consumptiondomain.OriginCustomerAPI,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOwnConsumptions(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.consumptionSvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RecordConsumption is the back-office entry point. Employees may
// record readings at any day of the month.
func (s *Server) RecordConsumption(c *gin.Context) {
	var req recordConsumptionBackOfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("customer_id", "invalid_customer", "invalid customer id"))
		return
	}

	resp, err := s.consumptionSvc.Record(c.Request.Context(), consumptiondomain.RecordConsumptionRequest{
		CustomerID: id,
		Reading:    req.Reading,
		Origin:     consumptiondomain.OriginBackOffice,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerConsumptions(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("customerId")))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("customerId", "invalid_customer", "invalid customer id"))
		return
	}

	resp, err := s.consumptionSvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
