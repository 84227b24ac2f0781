package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadbasehq/leadbase/server/logger"
	"github.com/leadbasehq/leadbase/server/models"
	"github.com/leadbasehq/leadbase/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var logg = logger.NewLogger()

type Changes struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
}

// Tally is the batch-level summary surfaced to the caller. It is always
// produced, even when individual rows fail.
type Tally struct {
	Properties    Changes `json:"properties"`
	Contacts      Changes `json:"contacts"`
	Relationships int     `json:"relationships"`
	Errors        int     `json:"errors"`
}

// ContactMatcher decides which existing contact(if any) an uploaded row
// refers to. Swapping in a stricter implementation changes matching
// without touching the import control flow.
type ContactMatcher interface {
	Match(workspaceID uint, firstName, lastName string, phoneNumbers []string) (*models.Contact, error)
}

// NameAndPhoneMatcher is the default strategy: exact first/last name
// match plus any one of the row's phone numbers, tried in column order.
// The first hit wins - no further disambiguation.
type NameAndPhoneMatcher struct{}

func (NameAndPhoneMatcher) Match(workspaceID uint, firstName, lastName string, phoneNumbers []string) (*models.Contact, error) {
	for _, phone := range phoneNumbers {
		contact, err := models.FindContactByNameAndPhone(workspaceID, firstName, lastName, phone)
		if err != nil {
			return nil, err
		}

		if contact != nil {
			return contact, nil
		}
	}

	return nil, nil
}

type Importer struct {
	matcher ContactMatcher
}

func New(matcher ContactMatcher) *Importer {
	if matcher == nil {
		matcher = NameAndPhoneMatcher{}
	}

	return &Importer{matcher: matcher}
}

// Run reconciles every row against the workspace's records. Rows are
// processed independently - a failed row is tallied as an error and the
// batch moves on. Each row's writes happen in a single transaction, so a
// partial failure never leaves orphaned records behind.
func (im *Importer) Run(ctx context.Context, workspaceID uint, rows []Row) Tally {
	tally := Tally{}

	for i, row := range rows {
		if ctx.Err() != nil {
			logg.Warnf("import cancelled after %v of %v rows", i, len(rows))
			break
		}

		err := im.importRow(ctx, workspaceID, row, &tally)
		if err != nil {
			logg.Warnf("error processing row %v: %v", i+1, err)
			tally.Errors++
		}
	}

	return tally
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func (im *Importer) importRow(ctx context.Context, workspaceID uint, row Row, tally *Tally) error {
	firstName := strings.TrimSpace(row.Get(FIRST_NAME_COLUMN))
	lastName := strings.TrimSpace(row.Get(LAST_NAME_COLUMN))
	address := strings.TrimSpace(row.Get(PROPERTY_ADDRESS_COLUMN))

	if firstName == "" || lastName == "" || address == "" {
		return errors.New("missing required field(s): first name, last name & property address are required")
	}

	phoneNumbers := row.PhoneNumbers()

	contact, err := im.matcher.Match(workspaceID, firstName, lastName, phoneNumbers)
	if err != nil {
		return errors.Wrap(err, "contact lookup")
	}

	property, err := models.FindPropertyByAddress(
		workspaceID,
		address,
		utils.TrimmedOrDefault(row.Get(PROPERTY_CITY_COLUMN), models.UNKNOWN_ADDRESS_PART),
		utils.TrimmedOrDefault(row.Get(PROPERTY_STATE_COLUMN), models.UNKNOWN_ADDRESS_PART),
		utils.TrimmedOrDefault(row.Get(PROPERTY_ZIP_COLUMN), models.UNKNOWN_ADDRESS_PART),
	)
	if err != nil {
		return errors.Wrap(err, "property lookup")
	}

	contactCreated := contact == nil
	propertyCreated := property == nil

	err = models.Transaction(ctx, func(tx *gorm.DB) error {
		contact, err = reconcileContact(tx, workspaceID, contact, firstName, lastName, row)
		if err != nil {
			return errors.Wrap(err, "contact write")
		}

		err = models.ReplacePhoneNumbers(tx, workspaceID, contact.ID, phoneNumbers)
		if err != nil {
			return errors.Wrap(err, "phone numbers write")
		}

		property, err = reconcileProperty(tx, workspaceID, property, address, row)
		if err != nil {
			return errors.Wrap(err, "property write")
		}

		err = models.UpsertRelationship(tx, workspaceID, contact.ID, property.ID, models.OWNER_RELATIONSHIP)
		if err != nil {
			return errors.Wrap(err, "relationship write")
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Only count changes once the row's transaction has committed.
	if contactCreated {
		tally.Contacts.New++
	} else {
		tally.Contacts.Updated++
	}

	if propertyCreated {
		tally.Properties.New++
	} else {
		tally.Properties.Updated++
	}
	tally.Relationships++

	return nil
}

func reconcileContact(tx *gorm.DB, workspaceID uint, contact *models.Contact, firstName, lastName string, row Row) (*models.Contact, error) {
	businessName := strings.TrimSpace(row.Get(BUSINESS_NAME_COLUMN))
	mailingAddress := strings.TrimSpace(row.Get(MAILING_ADDRESS_COLUMN))

	if contact != nil {
		err := models.UpdateContact(tx, contact.ID, map[string]interface{}{
			"first_name":      firstName,
			"last_name":       lastName,
			"business_name":   businessName,
			"mailing_address": mailingAddress,
		})
		if err != nil {
			return nil, err
		}

		return contact, nil
	}

	contact = &models.Contact{
		WorkspaceID:    workspaceID,
		FirstName:      firstName,
		LastName:       lastName,
		BusinessName:   businessName,
		MailingAddress: mailingAddress,
		Email:          placeholderEmail(firstName, lastName),
	}

	err := models.CreateContact(tx, contact)
	if err != nil {
		return nil, err
	}

	return contact, nil
}

func reconcileProperty(tx *gorm.DB, workspaceID uint, property *models.Property, address string, row Row) (*models.Property, error) {
	city := utils.TrimmedOrDefault(row.Get(PROPERTY_CITY_COLUMN), models.UNKNOWN_ADDRESS_PART)
	state := utils.TrimmedOrDefault(row.Get(PROPERTY_STATE_COLUMN), models.UNKNOWN_ADDRESS_PART)
	zip := utils.TrimmedOrDefault(row.Get(PROPERTY_ZIP_COLUMN), models.UNKNOWN_ADDRESS_PART)
	mailingAddress := strings.TrimSpace(row.Get(MAILING_ADDRESS_COLUMN))
	tags := parseTags(row.Get(TAGS_COLUMN))

	if property != nil {
		err := models.UpdateProperty(tx, property.ID, map[string]interface{}{
			"address":         address,
			"city":            city,
			"state":           state,
			"zip":             zip,
			"mailing_address": mailingAddress,
			"tags":            strings.Join(tags, ","),
		})
		if err != nil {
			return nil, err
		}

		return property, nil
	}

	property = &models.Property{
		WorkspaceID:    workspaceID,
		Address:        address,
		City:           city,
		State:          state,
		Zip:            zip,
		MailingAddress: mailingAddress,
		Status:         models.PROPERTY_ACTIVE,
	}
	property.SetTagList(tags)

	err := models.CreateProperty(tx, property)
	if err != nil {
		return nil, err
	}

	return property, nil
}

// parseTags splits the comma-separated tag column into trimmed entries.
func parseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	return tags
}

// placeholderEmail builds the documented placeholder identity for
// contacts created by import - not a production address.
func placeholderEmail(firstName, lastName string) string {
	return fmt.Sprintf("%v.%v@example.com", strings.ToLower(firstName), strings.ToLower(lastName))
}
