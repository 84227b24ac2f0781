package models

import "time"

const (
	OUTBOUND_MESSAGE = "outbound"
	INBOUND_MESSAGE  = "inbound"

	MESSAGE_SENT      = "sent"
	MESSAGE_DELIVERED = "delivered"
	MESSAGE_FAILED    = "failed"
)

// Message is one SMS in a contact's thread. Outbound messages carry the
// sending user's id; inbound ones carry the analysis written back by the
// classifier.
type Message struct {
	BaseModel
	WorkspaceID  uint    `json:"workspace_id" gorm:"not null;index"`
	ContactID    uint    `json:"contact_id" gorm:"not null;index"`
	UserID       uint    `json:"user_id,omitempty"`
	Direction    string  `json:"direction" gorm:"not null"`
	Body         string  `json:"body" validate:"required" gorm:"not null"`
	Status       string  `json:"status" gorm:"default:sent"`
	AIStatus     string  `json:"ai_status,omitempty"`
	AIConfidence float64 `json:"ai_confidence,omitempty"`
	AIReasoning  string  `json:"ai_reasoning,omitempty"`
}

func CreateMessage(message *Message) error {
	return db.Create(message).Error
}

func ThreadMessages(workspaceID uint, contactID interface{}) ([]Message, error) {
	messages := []Message{}

	err := db.Scopes(workspaceScope(workspaceID)).
		Where("contact_id = ?", contactID).
		Order("created_at ASC").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	return messages, nil
}

// OutboundMessageCountSince counts messages the user has sent at or
// after 'since' - the quota input for the eligibility gate.
func OutboundMessageCountSince(userID uint, since time.Time) (int64, error) {
	var count int64

	err := db.Model(&Message{}).
		Where("user_id = ? AND direction = ? AND created_at >= ?", userID, OUTBOUND_MESSAGE, since).
		Count(&count).Error

	if err != nil {
		return 0, err
	}

	return count, nil
}

// RecordAnalysis writes the classifier's verdict onto the message row.
func (message *Message) RecordAnalysis(status string, confidence float64, reasoning string) error {
	return db.Model(message).Updates(map[string]interface{}{
		"ai_status":     status,
		"ai_confidence": confidence,
		"ai_reasoning":  reasoning,
	}).Error
}

func MessageCountsForDay(workspaceID uint, dayStart, dayEnd time.Time) (sent int64, responses int64, err error) {
	err = db.Model(&Message{}).Scopes(workspaceScope(workspaceID)).
		Where("direction = ? AND created_at >= ? AND created_at < ?", OUTBOUND_MESSAGE, dayStart, dayEnd).
		Count(&sent).Error
	if err != nil {
		return 0, 0, err
	}

	err = db.Model(&Message{}).Scopes(workspaceScope(workspaceID)).
		Where("direction = ? AND created_at >= ? AND created_at < ?", INBOUND_MESSAGE, dayStart, dayEnd).
		Count(&responses).Error
	if err != nil {
		return 0, 0, err
	}

	return sent, responses, nil
}
