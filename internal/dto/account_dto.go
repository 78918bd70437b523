package dto

import (
	"time"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// CreateAccountRequest is the self-service and admin single-account payload.
// Exactly one of Birthday (default password derived from it) or Password is expected.
type CreateAccountRequest struct {
	StudentNumber string `json:"studentNumber" validate:"required,max=64"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	Birthday      string `json:"birthday" validate:"required_without=Password,max=32"`
	Password      string `json:"password" validate:"required_without=Birthday,max=128"`
	AccountType   string `json:"accountType" validate:"required,oneof=student admin committee"`
}

// BatchAccountRow is one parsed row of an administrator upload.
type BatchAccountRow struct {
	StudentNumber string `json:"studentNumber" validate:"required,max=64"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	Password      string `json:"password" validate:"max=128"`
	AccountType   string `json:"accountType" validate:"required,oneof=student admin committee"`
}

// BatchRowIssue explains why a row was not imported.
type BatchRowIssue struct {
	Row           int    `json:"row"`
	StudentNumber string `json:"studentNumber"`
	Reason        string `json:"reason"`
}

// BatchCreateResponse summarises an upload.
type BatchCreateResponse struct {
	Created    int             `json:"created"`
	Skipped    []BatchRowIssue `json:"skipped"`
	Duplicates []string        `json:"duplicates"`
}

// LoginRequest carries the credentials posted by the login page.
type LoginRequest struct {
	StudentNumber string `json:"studentNumber" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

// LoginResponse tells the browser where to go next.
type LoginResponse struct {
	RedirectURL string `json:"redirectUrl"`
	AccountType string `json:"accountType"`
}

// ChangePasswordRequest carries the replacement password.
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,max=128"`
}

// AuthStatusResponse reports whether the caller holds a session.
type AuthStatusResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UserRole        string `json:"userRole,omitempty"`
}

// AccountResponse is the public projection of an account. Credential material is never serialised.
type AccountResponse struct {
	ID              uint      `json:"id"`
	StudentNumber   string    `json:"studentNumber"`
	Email           string    `json:"email"`
	AccountType     string    `json:"accountType"`
	ConsentFilled   bool      `json:"consentFilled"`
	PasswordChanged bool      `json:"passwordChanged"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewAccountResponse converts an account model into its public projection.
func NewAccountResponse(account models.Account) AccountResponse {
	return AccountResponse{
		ID:              account.ID,
		StudentNumber:   account.StudentNumber,
		Email:           account.Email,
		AccountType:     account.AccountType,
		ConsentFilled:   account.ConsentFilled,
		PasswordChanged: account.PasswordChanged,
		CreatedAt:       account.CreatedAt,
	}
}
