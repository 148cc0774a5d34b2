package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListOwnNotifications(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.notificationSvc.UnreadForCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkNotificationsRead(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.notificationSvc.MarkAllRead(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"read": true}})
}

func (s *Server) ListEmployeeNotifications(c *gin.Context) {
	resp, err := s.notificationSvc.UnreadForEmployees(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListAccountSetupNotifications surfaces the approvals waiting for an
// admin to create portal credentials.
func (s *Server) ListAccountSetupNotifications(c *gin.Context) {
	resp, err := s.notificationSvc.UnreadAccountSetup(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
