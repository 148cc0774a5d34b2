package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	meterrequestdomain "github.com/hydrosuite/aquabill/internal/meterrequest/domain"
)

type submitMeterRequest struct {
	FullName string `json:"full_name"`
	NIF      string `json:"nif"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type rejectMeterRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) SubmitMeterRequest(c *gin.Context) {
	var req submitMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.meterRequestSvc.Submit(c.Request.Context(), meterrequestdomain.SubmitMeterRequest{
		FullName: strings.TrimSpace(req.FullName),
		NIF:      strings.TrimSpace(req.NIF),
		Email:    strings.TrimSpace(req.Email),
		Address:  strings.TrimSpace(req.Address),
		Phone:    strings.TrimSpace(req.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetMeterRequestStatus lets an anonymous requester check the outcome
// of their latest request by the contact details they submitted.
func (s *Server) GetMeterRequestStatus(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	nif := strings.TrimSpace(c.Query("nif"))

	resp, err := s.meterRequestSvc.StatusByContact(c.Request.Context(), email, nif)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"status":     resp.Status,
		"decided_at": resp.DecidedAt,
	}})
}

func (s *Server) ListPendingMeterRequests(c *gin.Context) {
	resp, err := s.meterRequestSvc.ListPending(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveMeterRequest(c *gin.Context) {
	resp, err := s.meterRequestSvc.Approve(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectMeterRequest(c *gin.Context) {
	var req rejectMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.meterRequestSvc.Reject(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Notes)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
