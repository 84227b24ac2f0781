package models

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	InitializeTestDb()

	workspace, err := DefaultWorkspace()
	assert.Nil(t, err)

	err = Transaction(context.Background(), func(tx *gorm.DB) error {
		contact := &Contact{WorkspaceID: workspace.ID, FirstName: "Jane", LastName: "Doe"}
		if err := CreateContact(tx, contact); err != nil {
			return err
		}

		if err := ReplacePhoneNumbers(tx, workspace.ID, contact.ID, []string{"555-0100"}); err != nil {
			return err
		}

		return errors.New("later write failed")
	})
	assert.NotNil(t, err)

	// None of the transaction's writes survive
	contact, err := FindContactByNameAndPhone(workspace.ID, "Jane", "Doe", "555-0100")
	assert.Nil(t, err)
	assert.Nil(t, contact)

	var count int64
	assert.Nil(t, db.Model(&Contact{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInitializeDbSeedsDefaults(t *testing.T) {
	InitializeTestDb()

	workspace, err := DefaultWorkspace()
	assert.Nil(t, err)
	assert.NotZero(t, workspace.ID)

	for _, name := range []string{"admin", "basic"} {
		role, err := FindRole(name)
		assert.Nil(t, err)
		assert.NotZero(t, role.ID)
	}

	for _, name := range []string{ENQUEUED_JOB, SUCCESSFUL_JOB, DEAD_JOB} {
		status, err := FindJobStatus(name)
		assert.Nil(t, err)
		assert.NotZero(t, status.ID)
	}
}
