package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type issueInvoiceRequest struct {
	ConsumptionID string `json:"consumption_id"`
}

func (s *Server) IssueInvoice(c *gin.Context) {
	var req issueInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Issue(c.Request.Context(), strings.TrimSpace(req.ConsumptionID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetLastInvoiceByCustomer serves sibling services that only need the
// most recent invoice for a customer.
func (s *Server) GetLastInvoiceByCustomer(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("customerId")))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("customerId", "invalid_customer", "invalid customer id"))
		return
	}

	resp, err := s.invoiceSvc.LastByCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOwnInvoices(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.invoiceSvc.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOwnUnreadInvoices(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.invoiceSvc.ListUnreadByCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkInvoiceRead(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.invoiceSvc.MarkRead(c.Request.Context(), id, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"read": true}})
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invoiceID := strings.TrimSpace(c.Param("id"))
	document, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoice-`+invoiceID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", document)
}
