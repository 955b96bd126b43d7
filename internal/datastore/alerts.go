package datastore

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// DefaultLatestLimit is used by callers that pass a non-positive limit.
const DefaultLatestLimit = 20

// UpsertAlert stores a, replacing any row with the same image path. The
// replaced row's telegram_sent flag is carried over and the new row gets a
// fresh id, so it sorts as most recent. On success a.ID and a.TelegramSent
// reflect the stored row.
func (s *Store) UpsertAlert(ctx context.Context, a *Alert) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if a == nil || a.ImagePath == "" {
		return errors.Newf("alert image path is required").
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	record := *a
	var replaced bool
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing Alert
		err := tx.Where("image_path = ?", record.ImagePath).Take(&existing).Error
		switch {
		case err == nil:
			replaced = true
			record.TelegramSent = existing.TelegramSent
			if err := tx.Where("image_path = ?", record.ImagePath).Delete(&Alert{}).Error; err != nil {
				return err
			}
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			record.TelegramSent = false
		default:
			return err
		}

		record.ID = 0
		return tx.Create(&record).Error
	})
	if err != nil {
		return dbError(err, "upsert_alert", errors.PriorityMedium, "image_path", a.ImagePath)
	}

	a.ID = record.ID
	a.TelegramSent = record.TelegramSent
	s.logger.WithContext(ctx).Debug("alert row saved",
		logger.Int64("id", int64(record.ID)),
		logger.String("label", record.Label),
		logger.Bool("replaced", replaced),
		logger.Bool("synced", record.Synced),
		logger.Bool("telegram_sent", record.TelegramSent))
	return nil
}

// GetAlert returns the row for imagePath, or an error matching
// ErrAlertNotFound.
func (s *Store) GetAlert(ctx context.Context, imagePath string) (*Alert, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var a Alert
	if err := db.Where("image_path = ?", imagePath).Take(&a).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError(imagePath)
		}
		return nil, dbError(err, "get_alert", "", "image_path", imagePath)
	}
	return &a, nil
}

// GetLatestAlerts returns up to limit alerts, newest first.
func (s *Store) GetLatestAlerts(ctx context.Context, limit int) ([]AlertSummary, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLatestLimit
	}

	summaries := make([]AlertSummary, 0, limit)
	err = db.Model(&Alert{}).
		Select("label", "timestamp", "cloud_url", "latitude", "longitude", "location").
		Order("id DESC").
		Limit(limit).
		Scan(&summaries).Error
	if err != nil {
		return nil, dbError(err, "get_latest_alerts", "", "limit", limit)
	}
	return summaries, nil
}

// UpdateAlertStatus changes the flags set in upd on the row for imagePath
// and returns the number of rows changed. An empty update or an unknown
// path changes nothing and is not an error.
func (s *Store) UpdateAlertStatus(ctx context.Context, imagePath string, upd StatusUpdate) (int64, error) {
	if upd.IsEmpty() {
		return 0, nil
	}
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	updates := make(map[string]any, 2)
	if upd.TelegramSent != nil {
		updates["telegram_sent"] = *upd.TelegramSent
	}
	if upd.Synced != nil {
		updates["synced"] = *upd.Synced
	}

	result := db.Model(&Alert{}).Where("image_path = ?", imagePath).Updates(updates)
	if result.Error != nil {
		return 0, dbError(result.Error, "update_alert_status", "", "image_path", imagePath)
	}
	if result.RowsAffected == 0 {
		s.logger.WithContext(ctx).Debug("status update matched no rows", logger.String("image_path", imagePath))
	}
	return result.RowsAffected, nil
}
