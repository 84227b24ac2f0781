package models

import (
	"errors"

	"gorm.io/gorm"
)

type Contact struct {
	BaseModel
	WorkspaceID    uint          `json:"workspace_id" gorm:"not null;index"`
	FirstName      string        `json:"first_name" validate:"required"`
	LastName       string        `json:"last_name" validate:"required"`
	BusinessName   string        `json:"business_name,omitempty"`
	MailingAddress string        `json:"mailing_address,omitempty"`
	Email          string        `json:"email" validate:"omitempty,email"`
	PhoneNumbers   []PhoneNumber `json:"phone_numbers,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// FindContactByNameAndPhone looks up a contact by exact first/last name
// match within a workspace, further constrained to contacts holding the
// given phone number. Returns nil when no contact matches.
func FindContactByNameAndPhone(workspaceID uint, firstName, lastName, phoneNumber string) (*Contact, error) {
	contact := Contact{}

	err := db.Scopes(workspaceScope(workspaceID)).
		Joins("INNER JOIN phone_numbers ON phone_numbers.contact_id = contacts.id AND phone_numbers.number = ?", phoneNumber).
		Where("contacts.first_name = ? AND contacts.last_name = ?", firstName, lastName).
		First(&contact).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &contact, nil
}

// FindContactByPhone resolves an inbound sms sender to a contact.
func FindContactByPhone(phoneNumber string) (*Contact, error) {
	contact := Contact{}

	err := db.Joins(
		"INNER JOIN phone_numbers ON phone_numbers.contact_id = contacts.id AND phone_numbers.number = ?",
		phoneNumber).First(&contact).Error

	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func CreateContact(tx *gorm.DB, contact *Contact) error {
	return tx.Create(contact).Error
}

// SaveContact stores a new contact(and any attached phone numbers)
// outside of an import transaction.
func SaveContact(contact *Contact) error {
	return db.Create(contact).Error
}

func UpdateContact(tx *gorm.DB, contactID uint, data map[string]interface{}) error {
	return tx.Model(&Contact{}).Where("id = ?", contactID).Updates(data).Error
}

func FindContact(workspaceID uint, id interface{}) (*Contact, error) {
	contact := Contact{}
	err := db.Scopes(workspaceScope(workspaceID)).Preload("PhoneNumbers").First(&contact, "contacts.id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func FetchContacts(workspaceID uint, page int) ([]Contact, *Paging, error) {
	var total int64
	contacts := []Contact{}

	err := db.Model(&Contact{}).Scopes(workspaceScope(workspaceID)).Count(&total).Error
	if err != nil {
		return nil, nil, err
	}

	err = db.Scopes(workspaceScope(workspaceID), paginate(page, MIN_PAGE_SIZE)).
		Preload("PhoneNumbers").Order("last_name, first_name").Find(&contacts).Error
	if err != nil {
		return nil, nil, err
	}

	return contacts, newPaging(int64(page), MIN_PAGE_SIZE, total), nil
}

// Properties returns the properties linked to the contact via
// contact_properties, most recently linked first.
func (contact *Contact) Properties() ([]Property, error) {
	properties := []Property{}

	err := db.Joins(
		"INNER JOIN contact_properties ON contact_properties.property_id = properties.id AND contact_properties.contact_id = ?",
		contact.ID).
		Order("contact_properties.created_at DESC").
		Find(&properties).Error

	if err != nil {
		return nil, err
	}

	return properties, nil
}

func ContactCountsByCreationSince(workspaceID uint, since interface{}) (total int64, recent int64, err error) {
	err = db.Model(&Contact{}).Scopes(workspaceScope(workspaceID)).Count(&total).Error
	if err != nil {
		return 0, 0, err
	}

	err = db.Model(&Contact{}).Scopes(workspaceScope(workspaceID)).
		Where("created_at >= ?", since).Count(&recent).Error
	if err != nil {
		return 0, 0, err
	}

	return total, recent, nil
}
