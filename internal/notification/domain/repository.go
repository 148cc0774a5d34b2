package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	UnreadByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Notification, error)
	UnreadForEmployees(ctx context.Context, db *gorm.DB) ([]*Notification, error)
	UnreadByCategory(ctx context.Context, db *gorm.DB, category Category) ([]*Notification, error)
	MarkAllRead(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (int64, error)
}
