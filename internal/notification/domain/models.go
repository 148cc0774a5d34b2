// Package domain contains persistence models for in-app notifications.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Category tags a notification with its trigger so inbox queries never
// have to match on message text.
type Category string

const (
	CategoryInvoiceIssued Category = "invoice_issued"
	CategoryMeterRequest  Category = "meter_request"
	CategoryMeterApproved Category = "meter_approved"
	CategoryAccountSetup  Category = "account_setup"
	CategoryGeneral       Category = "general"
)

// Notification is an in-app inbox entry. Rows are never deleted; reads
// flip the Read flag only.
type Notification struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	Message     string        `gorm:"type:text;not null" json:"message"`
	Category    Category      `gorm:"type:text;not null;index" json:"category"`
	CustomerID  *snowflake.ID `gorm:"index" json:"customer_id,omitempty"`
	ForEmployee bool          `gorm:"not null;default:false" json:"for_employee"`
	Read        bool          `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }
