package models

import "time"

// ConsentForm is the one-time guardian consent submitted by a student.
type ConsentForm struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	StudentNumber      string    `gorm:"size:64;uniqueIndex;not null" json:"studentNumber"`
	StudentName        string    `gorm:"size:255;not null" json:"studentName"`
	GradeSection       string    `gorm:"size:128" json:"gradeSection"`
	ParentGuardianName string    `gorm:"size:255" json:"parentGuardianName"`
	Relationship       string    `gorm:"size:64" json:"relationship"`
	ContactNo          string    `gorm:"size:32" json:"contactNo"`
	Status             string    `gorm:"size:64" json:"status"`
	FilledAt           time.Time `json:"filledAt"`
	CreatedAt          time.Time `json:"createdAt"`
}
