// Package domain contains persistence models for meter installation requests.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status tracks a request through the review pipeline.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// MeterRequest is an installation request submitted by a prospective
// customer. Approval materializes a Customer and an active Meter;
// CustomerID and MeterID stay nil until then.
type MeterRequest struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	FullName   string        `gorm:"type:varchar(255);not null" json:"full_name"`
	NIF        string        `gorm:"type:varchar(32);not null;index" json:"nif"`
	Email      string        `gorm:"type:varchar(255);not null;index" json:"email"`
	Address    string        `gorm:"type:varchar(512)" json:"address"`
	Phone      string        `gorm:"type:varchar(32)" json:"phone"`
	Status     Status        `gorm:"type:text;not null;default:pending;index" json:"status"`
	CustomerID *snowflake.ID `json:"customer_id,omitempty"`
	MeterID    *snowflake.ID `json:"meter_id,omitempty"`
	Notes      string        `gorm:"type:text" json:"notes,omitempty"`
	DecidedAt  *time.Time    `json:"decided_at,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MeterRequest) TableName() string { return "meter_requests" }

type SubmitMeterRequest struct {
	FullName string `json:"full_name"`
	NIF      string `json:"nif"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}
