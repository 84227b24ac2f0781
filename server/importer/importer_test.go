package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/leadbasehq/leadbase/server/models"
	"github.com/stretchr/testify/assert"
)

const csvHeader = "First Name,Last Name,Property Address,Property City,Property State,Property Zip,Business Name,Mailing Address,Phone 1,Phone 2,tags\n"

func TestRunCreatesContactPropertyAndRelationship(t *testing.T) {
	models.InitializeTestDb()
	workspace, err := models.DefaultWorkspace()
	assert.Nil(t, err)

	rows, err := ReadRows(strings.NewReader(csvHeader +
		`Jane,Doe,123 Main St,Springfield,IL,62704,,PO Box 12,555-0100,555-0101,"probate, absentee"`))
	assert.Nil(t, err)

	tally := New(nil).Run(context.Background(), workspace.ID, rows)

	assert.Equal(t, 1, tally.Contacts.New)
	assert.Equal(t, 0, tally.Contacts.Updated)
	assert.Equal(t, 1, tally.Properties.New)
	assert.Equal(t, 0, tally.Properties.Updated)
	assert.Equal(t, 1, tally.Relationships)
	assert.Equal(t, 0, tally.Errors)

	contact, err := models.FindContactByNameAndPhone(workspace.ID, "Jane", "Doe", "555-0101")
	assert.Nil(t, err)
	assert.NotNil(t, contact)
	assert.Equal(t, "jane.doe@example.com", contact.Email, "New contacts get a placeholder email")

	property, err := models.FindPropertyByAddress(workspace.ID, "123 Main St", "Springfield", "IL", "62704")
	assert.Nil(t, err)
	assert.NotNil(t, property)
	assert.Equal(t, []string{"probate", "absentee"}, property.TagList())

	properties, err := contact.Properties()
	assert.Nil(t, err)
	assert.Len(t, properties, 1)
}

func TestRunReconcilesExistingRecords(t *testing.T) {
	models.InitializeTestDb()
	workspace, err := models.DefaultWorkspace()
	assert.Nil(t, err)

	rows, err := ReadRows(strings.NewReader(csvHeader +
		"Jane,Doe,123 Main St,Springfield,IL,62704,,,555-0100,555-0101,probate\n"))
	assert.Nil(t, err)
	New(nil).Run(context.Background(), workspace.ID, rows)

	// Same person matched via one surviving phone number. The phone set
	// & tags are replaced wholesale, not merged.
	rows, err = ReadRows(strings.NewReader(csvHeader +
		"Jane,Doe,123 Main St,Springfield,IL,62704,Doe LLC,,555-0101,,vacant\n"))
	assert.Nil(t, err)
	tally := New(nil).Run(context.Background(), workspace.ID, rows)

	assert.Equal(t, 0, tally.Contacts.New)
	assert.Equal(t, 1, tally.Contacts.Updated)
	assert.Equal(t, 0, tally.Properties.New)
	assert.Equal(t, 1, tally.Properties.Updated)
	assert.Equal(t, 1, tally.Relationships)

	contact, err := models.FindContactByNameAndPhone(workspace.ID, "Jane", "Doe", "555-0101")
	assert.Nil(t, err)
	assert.NotNil(t, contact)
	assert.Equal(t, "Doe LLC", contact.BusinessName)

	// The dropped number no longer resolves to the contact
	stale, err := models.FindContactByNameAndPhone(workspace.ID, "Jane", "Doe", "555-0100")
	assert.Nil(t, err)
	assert.Nil(t, stale)

	full, err := models.FindContact(workspace.ID, contact.ID)
	assert.Nil(t, err)
	assert.Len(t, full.PhoneNumbers, 1)
	assert.Equal(t, "555-0101", full.PhoneNumbers[0].Number)

	property, err := models.FindPropertyByAddress(workspace.ID, "123 Main St", "Springfield", "IL", "62704")
	assert.Nil(t, err)
	assert.Equal(t, []string{"vacant"}, property.TagList())

	// Re-linking the same pair doesn't create a second relationship row
	properties, err := contact.Properties()
	assert.Nil(t, err)
	assert.Len(t, properties, 1)
}

func TestRunSamePersonDifferentPhonesCreatesNewContact(t *testing.T) {
	models.InitializeTestDb()
	workspace, err := models.DefaultWorkspace()
	assert.Nil(t, err)

	rows, err := ReadRows(strings.NewReader(csvHeader +
		"Jane,Doe,123 Main St,Springfield,IL,62704,,,555-0100,,\n"))
	assert.Nil(t, err)
	New(nil).Run(context.Background(), workspace.ID, rows)

	// No phone overlap, so the matcher treats this as a different person
	rows, err = ReadRows(strings.NewReader(csvHeader +
		"Jane,Doe,456 Oak Ave,,,,,,555-0999,,\n"))
	assert.Nil(t, err)
	tally := New(nil).Run(context.Background(), workspace.ID, rows)

	assert.Equal(t, 1, tally.Contacts.New)
	assert.Equal(t, 0, tally.Contacts.Updated)
}

func TestRunDefaultsMissingAddressParts(t *testing.T) {
	models.InitializeTestDb()
	workspace, err := models.DefaultWorkspace()
	assert.Nil(t, err)

	rows, err := ReadRows(strings.NewReader(csvHeader +
		"John,Roe,456 Oak Ave,,,,,,555-0200,,\n"))
	assert.Nil(t, err)
	tally := New(nil).Run(context.Background(), workspace.ID, rows)
	assert.Equal(t, 0, tally.Errors)

	property, err := models.FindPropertyByAddress(
		workspace.ID, "456 Oak Ave", models.UNKNOWN_ADDRESS_PART, models.UNKNOWN_ADDRESS_PART, models.UNKNOWN_ADDRESS_PART)
	assert.Nil(t, err)
	assert.NotNil(t, property)
}

func TestRunTalliesRowErrorsAndKeepsGoing(t *testing.T) {
	models.InitializeTestDb()
	workspace, err := models.DefaultWorkspace()
	assert.Nil(t, err)

	rows, err := ReadRows(strings.NewReader(csvHeader +
		"Broken,,789 Pine Rd,,,,,,,,\n" +
		",Broken,789 Pine Rd,,,,,,,,\n" +
		"Jane,Doe,,,,,,,555-0100,,\n" +
		"John,Roe,456 Oak Ave,,,,,,555-0200,,\n"))
	assert.Nil(t, err)

	tally := New(nil).Run(context.Background(), workspace.ID, rows)

	assert.Equal(t, 3, tally.Errors, "Rows missing first name, last name or address are errors")
	assert.Equal(t, 1, tally.Contacts.New, "Rows after a failed one are still processed")
	assert.Equal(t, 1, tally.Properties.New)
	assert.Equal(t, 1, tally.Relationships)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	models.InitializeTestDb()
	workspace, err := models.DefaultWorkspace()
	assert.Nil(t, err)

	rows, err := ReadRows(strings.NewReader(csvHeader +
		"Jane,Doe,123 Main St,,,,,,555-0100,,\n"))
	assert.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tally := New(nil).Run(ctx, workspace.ID, rows)
	assert.Equal(t, Tally{}, tally, "No rows are processed once the context is done")
}

func TestReadRowsHandlesRaggedAndEmptyFiles(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""))
	assert.Nil(t, err)
	assert.Empty(t, rows)

	// Short records are tolerated; missing columns read as empty
	rows, err = ReadRows(strings.NewReader("First Name,Last Name,Phone 1\nJane,Doe\n"))
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Jane", rows[0].Get(FIRST_NAME_COLUMN))
	assert.Empty(t, rows[0].PhoneNumbers())
}

func TestRowPhoneNumbersFollowColumnOrder(t *testing.T) {
	row := NewRow(
		[]string{"First Name", "Phone 1", "Phone 2", "Phone 3"},
		[]string{"Jane", "555-0100", " ", "555-0300"})

	assert.Equal(t, []string{"555-0100", "555-0300"}, row.PhoneNumbers())
}

type fixedMatcher struct {
	contact *models.Contact
}

func (m fixedMatcher) Match(uint, string, string, []string) (*models.Contact, error) {
	return m.contact, nil
}

func TestRunUsesInjectedMatcher(t *testing.T) {
	models.InitializeTestDb()
	workspace, err := models.DefaultWorkspace()
	assert.Nil(t, err)

	rows, err := ReadRows(strings.NewReader(csvHeader +
		"Jane,Doe,123 Main St,,,,,,555-0100,,\n"))
	assert.Nil(t, err)
	New(nil).Run(context.Background(), workspace.ID, rows)

	existing, err := models.FindContactByNameAndPhone(workspace.ID, "Jane", "Doe", "555-0100")
	assert.Nil(t, err)
	assert.NotNil(t, existing)

	// A matcher that pins every row to the existing contact turns the
	// would-be creation into an update
	rows, err = ReadRows(strings.NewReader(csvHeader +
		"Janet,Doe,123 Main St,,,,,,555-0700,,\n"))
	assert.Nil(t, err)
	tally := New(fixedMatcher{contact: existing}).Run(context.Background(), workspace.ID, rows)

	assert.Equal(t, 0, tally.Contacts.New)
	assert.Equal(t, 1, tally.Contacts.Updated)
}
