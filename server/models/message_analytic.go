package models

import (
	"errors"

	"gorm.io/gorm"
)

// MessageAnalytic is a per-workspace, per-day rollup of messaging
// activity, one row per calendar date ("2006-01-02").
type MessageAnalytic struct {
	BaseModel
	WorkspaceID       uint   `json:"workspace_id" gorm:"not null;uniqueIndex:idx_analytics_day"`
	Date              string `json:"date" gorm:"not null;uniqueIndex:idx_analytics_day"`
	MessagesSent      int64  `json:"messages_sent"`
	ResponsesReceived int64  `json:"responses_received"`
}

// UpsertMessageAnalytic writes the day's counters, creating the row on
// first rollup & overwriting it on re-runs.
func UpsertMessageAnalytic(workspaceID uint, date string, sent, responses int64) error {
	analytic := MessageAnalytic{}

	err := db.Where("workspace_id = ? AND date = ?", workspaceID, date).First(&analytic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&MessageAnalytic{
			WorkspaceID:       workspaceID,
			Date:              date,
			MessagesSent:      sent,
			ResponsesReceived: responses,
		}).Error
	}

	if err != nil {
		return err
	}

	return db.Model(&analytic).Updates(map[string]interface{}{
		"messages_sent":      sent,
		"responses_received": responses,
	}).Error
}

func MessageActivity(workspaceID uint, dates []string) ([]MessageAnalytic, error) {
	analytics := []MessageAnalytic{}

	err := db.Scopes(workspaceScope(workspaceID)).
		Where("date IN ?", dates).
		Order("date ASC").
		Find(&analytics).Error

	if err != nil {
		return nil, err
	}

	return analytics, nil
}
