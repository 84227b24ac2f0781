package msggate

import (
	"fmt"
	"testing"
	"time"

	"github.com/leadbasehq/leadbase/server/models"
	"github.com/stretchr/testify/assert"
)

func clockAt(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.March, 9, hour, minute, 0, 0, time.UTC)
	}
}

func createTestUser(t *testing.T, emailTag string) *models.User {
	user := &models.User{
		FirstName: "Harvey",
		LastName:  "Specter",
		Email:     fmt.Sprintf("harvey+%v@example.com", emailTag),
		Password:  "AveryLongPassword",
	}

	err := models.CreateUser(user)
	assert.Nil(t, err)

	return user
}

func TestCanSendWithinWindowBoundaries(t *testing.T) {
	models.InitializeTestDb()
	user := createTestUser(t, "window")

	cases := []struct {
		description string
		hour        int
		minute      int
		allowed     bool
	}{
		{"one minute before the window opens", 7, 59, false},
		{"the minute the window opens", 8, 0, true},
		{"mid window", 14, 30, true},
		{"the minute the window closes", 21, 0, true},
		{"one minute after the window closes", 21, 1, false},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			decision := NewGateWithClock(clockAt(c.hour, c.minute)).CanSend(user.ID)

			assert.Equal(t, c.allowed, decision.Allowed)
			if !c.allowed {
				assert.Equal(t, OUTSIDE_WINDOW_REASON, decision.Reason)
			}
		})
	}
}

func TestCanSendDailyLimit(t *testing.T) {
	models.InitializeTestDb()
	user := createTestUser(t, "limit")

	err := user.UpdateMessageSettings(map[string]interface{}{"daily_message_limit": 2})
	assert.Nil(t, err)

	gate := NewGateWithClock(clockAt(12, 0))

	for i := 0; i < 2; i++ {
		assert.True(t, gate.CanSend(user.ID).Allowed)

		err = models.CreateMessage(&models.Message{
			WorkspaceID: user.WorkspaceID,
			ContactID:   1,
			UserID:      user.ID,
			Direction:   models.OUTBOUND_MESSAGE,
			Body:        "hello",
			Status:      models.MESSAGE_SENT,
		})
		assert.Nil(t, err)
	}

	decision := gate.CanSend(user.ID)
	assert.False(t, decision.Allowed)
	assert.Equal(t, LIMIT_REACHED_REASON, decision.Reason)
}

func TestCanSendCountsOnlyOutboundMessages(t *testing.T) {
	models.InitializeTestDb()
	user := createTestUser(t, "inbound")

	err := user.UpdateMessageSettings(map[string]interface{}{"daily_message_limit": 1})
	assert.Nil(t, err)

	err = models.CreateMessage(&models.Message{
		WorkspaceID: user.WorkspaceID,
		ContactID:   1,
		Direction:   models.INBOUND_MESSAGE,
		Body:        "who is this?",
		Status:      models.MESSAGE_DELIVERED,
	})
	assert.Nil(t, err)

	assert.True(t, NewGateWithClock(clockAt(12, 0)).CanSend(user.ID).Allowed,
		"Inbound messages don't consume quota")
}

func TestCanSendUnknownUser(t *testing.T) {
	models.InitializeTestDb()

	decision := NewGateWithClock(clockAt(12, 0)).CanSend(0)
	assert.False(t, decision.Allowed)
	assert.Equal(t, NOT_AUTHENTICATED_REASON, decision.Reason)

	decision = NewGateWithClock(clockAt(12, 0)).CanSend(9999)
	assert.False(t, decision.Allowed)
	assert.Equal(t, NOT_AUTHENTICATED_REASON, decision.Reason)
}

func TestCanSendFailsClosedOnInvalidWindowConfig(t *testing.T) {
	models.InitializeTestDb()
	user := createTestUser(t, "badwindow")

	err := user.UpdateMessageSettings(map[string]interface{}{"window_start": "8am"})
	assert.Nil(t, err)

	decision := NewGateWithClock(clockAt(12, 0)).CanSend(user.ID)
	assert.False(t, decision.Allowed)
	assert.Equal(t, UNAVAILABLE_REASON, decision.Reason)
}

func TestWithinWindow(t *testing.T) {
	setting := &models.MessageSetting{WindowStart: "09:30", WindowEnd: "17:45"}

	within, err := WithinWindow(setting, time.Date(2026, time.March, 9, 9, 29, 59, 0, time.UTC))
	assert.Nil(t, err)
	assert.False(t, within)

	within, err = WithinWindow(setting, time.Date(2026, time.March, 9, 9, 30, 0, 0, time.UTC))
	assert.Nil(t, err)
	assert.True(t, within)

	within, err = WithinWindow(setting, time.Date(2026, time.March, 9, 17, 45, 59, 0, time.UTC))
	assert.Nil(t, err)
	assert.True(t, within, "The closing minute is still inside the window")

	_, err = WithinWindow(&models.MessageSetting{WindowStart: "25:00", WindowEnd: "21:00"}, time.Now())
	assert.NotNil(t, err)
}
