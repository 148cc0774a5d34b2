package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notification *domain.Notification) error {
	return db.WithContext(ctx).Create(notification).Error
}

func (r *repo) UnreadByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := db.WithContext(ctx).
		Where("customer_id = ? AND read = ? AND for_employee = ?", customerID, false, false).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) UnreadForEmployees(ctx context.Context, db *gorm.DB) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := db.WithContext(ctx).
		Where("for_employee = ? AND read = ?", true, false).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) UnreadByCategory(ctx context.Context, db *gorm.DB, category domain.Category) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := db.WithContext(ctx).
		Where("category = ? AND read = ?", category, false).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAllRead covers the same rows UnreadByCustomer returns. Employee
// entries referencing the customer stay in the admin queue.
func (r *repo) MarkAllRead(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("customer_id = ? AND read = ? AND for_employee = ?", customerID, false, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
