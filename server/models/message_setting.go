package models

import (
	"math/rand"

	"github.com/leadbasehq/leadbase/shared"
)

const (
	DEFAULT_DAILY_MESSAGE_LIMIT = 100
	DEFAULT_WINDOW_START        = "08:00"
	DEFAULT_WINDOW_END          = "21:00"

	SEQUENTIAL_SELECTION = "sequential"
	RANDOM_SELECTION     = "random"
)

var messagingDefaults = shared.MessagingConfig{
	WindowStart: DEFAULT_WINDOW_START,
	WindowEnd:   DEFAULT_WINDOW_END,
	DailyLimit:  DEFAULT_DAILY_MESSAGE_LIMIT,
}

// ApplyMessagingDefaults overrides the built-in window & quota defaults
// with the server's configured ones. Only settings created afterwards
// pick the new values up.
func ApplyMessagingDefaults(config shared.MessagingConfig) {
	if config.WindowStart != "" {
		messagingDefaults.WindowStart = config.WindowStart
	}

	if config.WindowEnd != "" {
		messagingDefaults.WindowEnd = config.WindowEnd
	}

	if config.DailyLimit > 0 {
		messagingDefaults.DailyLimit = config.DailyLimit
	}
}

// MessageSetting holds a user's outbound-messaging configuration: the
// daily send quota, the local-time window sends are allowed in, and the
// gateway numbers messages go out from.
type MessageSetting struct {
	BaseModel
	UserID            uint   `json:"user_id" gorm:"not null;unique"`
	DailyMessageLimit int    `json:"daily_message_limit" gorm:"default:100"`
	WindowStart       string `json:"window_start" gorm:"not null"`
	WindowEnd         string `json:"window_end" gorm:"not null"`
	GatewayNumber1    string `json:"gateway_number_1"`
	GatewayNumber2    string `json:"gateway_number_2"`
	GatewayNumber3    string `json:"gateway_number_3"`
	GatewayNumber4    string `json:"gateway_number_4"`
	NumberSelection   string `json:"number_selection" gorm:"default:sequential"`
	WebhookURL        string `json:"webhook_url"`
}

func FindMessageSetting(userID interface{}) (*MessageSetting, error) {
	messageSetting := MessageSetting{}
	err := db.First(&messageSetting, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return &messageSetting, nil
}

// GatewayNumbers returns the configured gateway numbers, skipping the
// blank slots.
func (setting *MessageSetting) GatewayNumbers() []string {
	numbers := []string{}
	for _, number := range []string{
		setting.GatewayNumber1,
		setting.GatewayNumber2,
		setting.GatewayNumber3,
		setting.GatewayNumber4,
	} {
		if number != "" {
			numbers = append(numbers, number)
		}
	}

	return numbers
}

// PickGatewayNumber chooses the 'from' number for the next outbound
// message - round-robin on prior send count, or random, per the setting.
func (setting *MessageSetting) PickGatewayNumber(priorSends int64) string {
	numbers := setting.GatewayNumbers()
	if len(numbers) == 0 {
		return ""
	}

	if setting.NumberSelection == RANDOM_SELECTION {
		return numbers[rand.Intn(len(numbers))]
	}

	return numbers[priorSends%int64(len(numbers))]
}
