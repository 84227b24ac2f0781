package models

import (
	"errors"
	"fmt"

	"github.com/leadbasehq/leadbase/server/auth"
	"gorm.io/gorm"
)

var (
	allFieldsExceptPassword = []string{"id",
		"workspace_id",
		"first_name",
		"last_name",
		"email",
		"role_id",
		"created_at",
		"updated_at",
	}

	updatableFields = []string{"first_name",
		"last_name",
		"password",
	}
)

type User struct {
	BaseModel
	WorkspaceID    uint            `json:"workspace_id" gorm:"not null;index"`
	FirstName      string          `json:"first_name" validate:"required"`
	LastName       string          `json:"last_name" validate:"required"`
	Email          string          `json:"email" validate:"required,email" gorm:"not null;unique"`
	Password       string          `json:"password,omitempty" validate:"required" gorm:"not null"`
	RoleID         uint            `json:"role_id" gorm:"null"`
	MessageSetting *MessageSetting `json:"message_setting,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (user *User) Update(data map[string]interface{}) error {
	if data["password"] != nil {
		passwordHash, err := auth.HashPassword(data["password"].(string))
		if err != nil {
			return err
		}
		data["password"] = passwordHash
	}

	return db.Model(&User{}).Where("id = ?", user.ID).Select(updatableFields).Updates(data).Error
}

func (user *User) UpdateMessageSettings(data map[string]interface{}) error {
	return db.Model(&MessageSetting{}).Where("user_id = ? ", user.ID).Updates(data).Error
}

func (user *User) IsAdmin() (bool, error) {
	if user.RoleID == 0 {
		return false, nil
	}

	adminRole, err := FindRole("admin")
	if err != nil {
		return false, err
	}

	return adminRole.ID == user.RoleID, nil
}

func FindUserBy(field string, value interface{}) (*User, error) {
	user := User{}
	err := db.Select(allFieldsExceptPassword).First(&user, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserWithMessageSetting(userID interface{}) (*User, error) {
	user := User{}
	err := db.Preload("MessageSetting").Select(allFieldsExceptPassword).First(&user, userID).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserPassword(email string) (string, error) {
	user := &User{}
	err := db.Select("Password").First(user, "email = ?", email).Error

	if err != nil {
		return "", err
	}
	return user.Password, nil
}

// CreateUser stores a new user along with default message settings, so
// the eligibility gate always has a config record to evaluate.
func CreateUser(user *User) error {
	passwordHash, err := auth.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = passwordHash

	if user.WorkspaceID == 0 {
		workspace, err := DefaultWorkspace()
		if err != nil {
			return err
		}
		user.WorkspaceID = workspace.ID
	}

	user.MessageSetting = &MessageSetting{
		DailyMessageLimit: messagingDefaults.DailyLimit,
		WindowStart:       messagingDefaults.WindowStart,
		WindowEnd:         messagingDefaults.WindowEnd,
		NumberSelection:   SEQUENTIAL_SELECTION,
	}
	return db.Create(user).Error
}

func DeleteUser(id interface{}) error {
	return db.Delete(&User{}, id).Error
}

func AtLeastOneUserExists() (bool, error) {
	err := db.First(&User{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
