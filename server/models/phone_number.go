package models

import "gorm.io/gorm"

const DEFAULT_PHONE_TYPE = "mobile"

type PhoneNumber struct {
	BaseModel
	WorkspaceID uint   `json:"workspace_id" gorm:"not null;index"`
	ContactID   uint   `json:"contact_id" gorm:"not null;index"`
	Number      string `json:"number" validate:"required" gorm:"not null"`
	Type        string `json:"type" gorm:"default:mobile"`
}

// ReplacePhoneNumbers swaps out the contact's entire phone-number set
// for 'numbers'. The old set is never merged with the new one.
func ReplacePhoneNumbers(tx *gorm.DB, workspaceID, contactID uint, numbers []string) error {
	err := tx.Where("contact_id = ?", contactID).Delete(&PhoneNumber{}).Error
	if err != nil {
		return err
	}

	if len(numbers) == 0 {
		return nil
	}

	phoneNumbers := make([]PhoneNumber, 0, len(numbers))
	for _, number := range numbers {
		phoneNumbers = append(phoneNumbers, PhoneNumber{
			WorkspaceID: workspaceID,
			ContactID:   contactID,
			Number:      number,
			Type:        DEFAULT_PHONE_TYPE,
		})
	}

	return tx.Create(&phoneNumbers).Error
}
