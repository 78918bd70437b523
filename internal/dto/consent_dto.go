package dto

import (
	"time"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// FilledAtLayout renders submission times the way the consent dashboard displays them.
const FilledAtLayout = "1/2/2006 3:04:05 PM"

// ConsentFillRequest is the guardian consent form payload.
type ConsentFillRequest struct {
	StudentNumber      string `json:"studentNumber" validate:"required,max=64"`
	StudentName        string `json:"studentName" validate:"required,max=255"`
	GradeSection       string `json:"gradeSection" validate:"max=128"`
	ParentGuardianName string `json:"parentGuardianName" validate:"required,max=255"`
	Relationship       string `json:"relationship" validate:"max=64"`
	ContactNo          string `json:"contactNo" validate:"max=32"`
	FormStatus         string `json:"formStatus" validate:"max=64"`
}

// ConsentFillResponse points the student at the yearbook listing.
type ConsentFillResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// ConsentFormResponse serialises a consent form for reviewers.
type ConsentFormResponse struct {
	ID                 uint      `json:"id"`
	StudentNumber      string    `json:"studentNumber"`
	StudentName        string    `json:"studentName"`
	GradeSection       string    `json:"gradeSection"`
	ParentGuardianName string    `json:"parentGuardianName"`
	Relationship       string    `json:"relationship"`
	ContactNo          string    `json:"contactNo"`
	Status             string    `json:"status"`
	FilledAt           time.Time `json:"filledAt"`
	DateAndTimeFilled  string    `json:"dateAndTimeFilled"`
}

// NewConsentFormResponse converts a consent form model into a DTO.
func NewConsentFormResponse(form models.ConsentForm) ConsentFormResponse {
	return ConsentFormResponse{
		ID:                 form.ID,
		StudentNumber:      form.StudentNumber,
		StudentName:        form.StudentName,
		GradeSection:       form.GradeSection,
		ParentGuardianName: form.ParentGuardianName,
		Relationship:       form.Relationship,
		ContactNo:          form.ContactNo,
		Status:             form.Status,
		FilledAt:           form.FilledAt,
		DateAndTimeFilled:  form.FilledAt.Format(FilledAtLayout),
	}
}
