package msggate

import (
	"errors"
	"fmt"
	"time"

	"github.com/leadbasehq/leadbase/server/models"
	"gorm.io/gorm"
)

// Reasons surfaced verbatim to the caller, so the UI can explain why
// sending is blocked.
const (
	OUTSIDE_WINDOW_REASON    = "outside window"
	LIMIT_REACHED_REASON     = "limit reached"
	NOT_AUTHENTICATED_REASON = "not authenticated"
	UNAVAILABLE_REASON       = "unable to verify messaging restrictions"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Gate evaluates whether a user may send a message right now. The
// decision is a pure function of the clock, the user's message settings
// & their send count since local midnight - no hidden state, no side
// effects.
type Gate struct {
	now func() time.Time
}

func NewGate() *Gate {
	return &Gate{now: time.Now}
}

// NewGateWithClock swaps the wall clock out, for tests.
func NewGateWithClock(now func() time.Time) *Gate {
	return &Gate{now: now}
}

// CanSend reports whether the user may send now & why not otherwise.
// When the user's settings can't be loaded the gate fails closed.
func (gate *Gate) CanSend(userID uint) Decision {
	if userID == 0 {
		return Decision{Allowed: false, Reason: NOT_AUTHENTICATED_REASON}
	}

	setting, err := models.FindMessageSetting(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{Allowed: false, Reason: NOT_AUTHENTICATED_REASON}
	}
	if err != nil {
		return Decision{Allowed: false, Reason: UNAVAILABLE_REASON}
	}

	now := gate.now()

	withinWindow, err := WithinWindow(setting, now)
	if err != nil {
		return Decision{Allowed: false, Reason: UNAVAILABLE_REASON}
	}
	if !withinWindow {
		return Decision{Allowed: false, Reason: OUTSIDE_WINDOW_REASON}
	}

	underLimit, err := UnderDailyLimit(userID, setting, now)
	if err != nil {
		return Decision{Allowed: false, Reason: UNAVAILABLE_REASON}
	}
	if !underLimit {
		return Decision{Allowed: false, Reason: LIMIT_REACHED_REASON}
	}

	return Decision{Allowed: true}
}

// WithinWindow reports whether 'at' falls inside the setting's send
// window. Both boundaries are inclusive, at minute granularity.
func WithinWindow(setting *models.MessageSetting, at time.Time) (bool, error) {
	start, err := minutesOfDay(setting.WindowStart)
	if err != nil {
		return false, err
	}

	end, err := minutesOfDay(setting.WindowEnd)
	if err != nil {
		return false, err
	}

	now := at.Hour()*60 + at.Minute()

	return start <= now && now <= end, nil
}

// UnderDailyLimit reports whether the user still has quota left for the
// calendar day containing 'at'.
func UnderDailyLimit(userID uint, setting *models.MessageSetting, at time.Time) (bool, error) {
	limit := setting.DailyMessageLimit
	if limit <= 0 {
		limit = models.DEFAULT_DAILY_MESSAGE_LIMIT
	}

	midnight := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())

	count, err := models.OutboundMessageCountSince(userID, midnight)
	if err != nil {
		return false, err
	}

	return count < int64(limit), nil
}

func minutesOfDay(clockValue string) (int, error) {
	parsed, err := time.Parse("15:04", clockValue)
	if err != nil {
		return 0, fmt.Errorf("invalid window time %q: %v", clockValue, err)
	}

	return parsed.Hour()*60 + parsed.Minute(), nil
}
