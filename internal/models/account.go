package models

import (
	"strings"
	"time"
)

// Account roles. The student number is the login name for every role.
const (
	AccountTypeStudent   = "student"
	AccountTypeAdmin     = "admin"
	AccountTypeCommittee = "committee"
)

// Account is a login identity. The password is stored encrypted under a per-record key and IV.
type Account struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StudentNumber     string    `gorm:"size:64;uniqueIndex;not null" json:"studentNumber"`
	Email             string    `gorm:"size:255" json:"email"`
	EncryptedPassword string    `gorm:"type:text;not null" json:"-"`
	EncryptionKey     string    `gorm:"size:64;not null" json:"-"`
	IV                string    `gorm:"column:iv;size:32;not null" json:"-"`
	Birthday          string    `gorm:"size:32" json:"-"`
	AccountType       string    `gorm:"size:16;index;not null" json:"accountType"`
	ConsentFilled     bool      `gorm:"not null;default:false" json:"consentFilled"`
	PasswordChanged   bool      `gorm:"not null;default:false" json:"passwordChanged"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsValidAccountType reports whether the role is one the application knows about.
func IsValidAccountType(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case AccountTypeStudent, AccountTypeAdmin, AccountTypeCommittee:
		return true
	default:
		return false
	}
}
