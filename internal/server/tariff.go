package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	"github.com/shopspring/decimal"
)

type tariffBracketRequest struct {
	MinVolume          decimal.Decimal  `json:"min_volume"`
	MaxVolume          *decimal.Decimal `json:"max_volume"`
	PricePerCubicMeter decimal.Decimal  `json:"price_per_cubic_meter"`
}

func (s *Server) ListTariffBrackets(c *gin.Context) {
	resp, err := s.tariffSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTariffBracket(c *gin.Context) {
	var req tariffBracketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tariffSvc.Create(c.Request.Context(), tariffdomain.CreateBracketRequest{
		MinVolume:          req.MinVolume,
		MaxVolume:          req.MaxVolume,
		PricePerCubicMeter: req.PricePerCubicMeter,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTariffBracket(c *gin.Context) {
	var req tariffBracketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tariffSvc.Update(c.Request.Context(), tariffdomain.UpdateBracketRequest{
		ID:                 strings.TrimSpace(c.Param("id")),
		MinVolume:          req.MinVolume,
		MaxVolume:          req.MaxVolume,
		PricePerCubicMeter: req.PricePerCubicMeter,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTariffBracket(c *gin.Context) {
	if err := s.tariffSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
