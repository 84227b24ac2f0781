package models

import "gorm.io/gorm"

const (
	INTERESTED_STATUS     = "interested"
	NOT_INTERESTED_STATUS = "not_interested"
	DNC_STATUS            = "dnc"

	USER_STATUS_SOURCE = "user"
	AI_STATUS_SOURCE   = "ai"
)

// PropertyStatusChange is one entry in a property's lead-status history,
// recording whether a user or the classifier set it & at what confidence.
type PropertyStatusChange struct {
	BaseModel
	WorkspaceID uint    `json:"workspace_id" gorm:"not null;index"`
	PropertyID  uint    `json:"property_id" gorm:"not null;index"`
	Status      string  `json:"status" gorm:"not null"`
	Source      string  `json:"source" gorm:"not null"`
	Confidence  float64 `json:"confidence,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

func IsLeadStatus(status string) bool {
	return status == INTERESTED_STATUS || status == NOT_INTERESTED_STATUS || status == DNC_STATUS
}

// SetPropertyStatus updates the property's current status & appends to
// its status history in one transaction.
func SetPropertyStatus(workspaceID, propertyID uint, status, source string, confidence float64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Property{}).
			Where("id = ? AND workspace_id = ?", propertyID, workspaceID).
			Update("status", status).Error
		if err != nil {
			return err
		}

		return tx.Create(&PropertyStatusChange{
			WorkspaceID: workspaceID,
			PropertyID:  propertyID,
			Status:      status,
			Source:      source,
			Confidence:  confidence,
		}).Error
	})
}

func PropertyStatusHistory(workspaceID uint, propertyID interface{}) ([]PropertyStatusChange, error) {
	changes := []PropertyStatusChange{}

	err := db.Scopes(workspaceScope(workspaceID)).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&changes).Error

	if err != nil {
		return nil, err
	}

	return changes, nil
}
