package models

import "gorm.io/gorm"

const OWNER_RELATIONSHIP = "owner"

// ContactProperty links a contact to a property with a relationship-type
// tag. The composite unique index keeps re-imports from stacking up
// duplicate rows for the same pair.
type ContactProperty struct {
	BaseModel
	WorkspaceID      uint   `json:"workspace_id" gorm:"not null;index"`
	ContactID        uint   `json:"contact_id" gorm:"not null;uniqueIndex:idx_contact_property"`
	PropertyID       uint   `json:"property_id" gorm:"not null;uniqueIndex:idx_contact_property"`
	RelationshipType string `json:"relationship_type" gorm:"not null"`
}

// UpsertRelationship records the contact-property link, creating it on
// first sight & leaving the existing row alone on re-import.
func UpsertRelationship(tx *gorm.DB, workspaceID, contactID, propertyID uint, relationshipType string) error {
	return tx.Where(&ContactProperty{ContactID: contactID, PropertyID: propertyID}).
		FirstOrCreate(&ContactProperty{
			WorkspaceID:      workspaceID,
			ContactID:        contactID,
			PropertyID:       propertyID,
			RelationshipType: relationshipType,
		}).Error
}
