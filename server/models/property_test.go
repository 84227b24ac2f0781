package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func createTestProperty(t *testing.T, address string, tags []string) *Property {
	workspace, err := DefaultWorkspace()
	assert.Nil(t, err)

	property := &Property{
		WorkspaceID: workspace.ID,
		Address:     address,
		City:        UNKNOWN_ADDRESS_PART,
		State:       UNKNOWN_ADDRESS_PART,
		Zip:         UNKNOWN_ADDRESS_PART,
		Status:      PROPERTY_ACTIVE,
	}
	property.SetTagList(tags)

	assert.Nil(t, CreateProperty(db, property))

	return property
}

func TestSetPropertyStatusAppendsHistory(t *testing.T) {
	InitializeTestDb()
	property := createTestProperty(t, "123 Main St", nil)

	err := SetPropertyStatus(property.WorkspaceID, property.ID, INTERESTED_STATUS, USER_STATUS_SOURCE, 0)
	assert.Nil(t, err)

	err = SetPropertyStatus(property.WorkspaceID, property.ID, DNC_STATUS, AI_STATUS_SOURCE, 0.85)
	assert.Nil(t, err)

	current, err := FindProperty(property.WorkspaceID, property.ID)
	assert.Nil(t, err)
	assert.Equal(t, DNC_STATUS, current.Status)

	history, err := PropertyStatusHistory(property.WorkspaceID, property.ID)
	assert.Nil(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, DNC_STATUS, history[0].Status, "Most recent change first")
	assert.Equal(t, AI_STATUS_SOURCE, history[0].Source)
	assert.Equal(t, 0.85, history[0].Confidence)
}

func TestIsLeadStatus(t *testing.T) {
	assert.True(t, IsLeadStatus(INTERESTED_STATUS))
	assert.True(t, IsLeadStatus(NOT_INTERESTED_STATUS))
	assert.True(t, IsLeadStatus(DNC_STATUS))
	assert.False(t, IsLeadStatus("sold"))
	assert.False(t, IsLeadStatus(""))
}

func TestTagCounts(t *testing.T) {
	InitializeTestDb()

	createTestProperty(t, "1 First St", []string{"probate", "vacant"})
	createTestProperty(t, "2 Second St", []string{"probate"})
	createTestProperty(t, "3 Third St", []string{"absentee"})

	workspace, err := DefaultWorkspace()
	assert.Nil(t, err)

	counts, err := TagCounts(workspace.ID)
	assert.Nil(t, err)
	assert.Len(t, counts, 3)
	assert.Equal(t, TagCount{Tag: "probate", PropertyCount: 2}, counts[0], "Highest count first")
}

func TestUpsertMessageAnalytic(t *testing.T) {
	InitializeTestDb()

	workspace, err := DefaultWorkspace()
	assert.Nil(t, err)

	assert.Nil(t, UpsertMessageAnalytic(workspace.ID, "2026-08-28", 12, 3))
	assert.Nil(t, UpsertMessageAnalytic(workspace.ID, "2026-08-28", 15, 4), "Re-running a rollup overwrites")

	activity, err := MessageActivity(workspace.ID, []string{"2026-08-28"})
	assert.Nil(t, err)
	assert.Len(t, activity, 1)
	assert.Equal(t, int64(15), activity[0].MessagesSent)
	assert.Equal(t, int64(4), activity[0].ResponsesReceived)
}

func TestUpsertRelationshipIsIdempotent(t *testing.T) {
	InitializeTestDb()
	property := createTestProperty(t, "123 Main St", nil)

	contact := &Contact{
		WorkspaceID: property.WorkspaceID,
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
	}
	assert.Nil(t, CreateContact(db, contact))

	assert.Nil(t, UpsertRelationship(db, property.WorkspaceID, contact.ID, property.ID, OWNER_RELATIONSHIP))
	assert.Nil(t, UpsertRelationship(db, property.WorkspaceID, contact.ID, property.ID, OWNER_RELATIONSHIP))

	properties, err := contact.Properties()
	assert.Nil(t, err)
	assert.Len(t, properties, 1)
}
