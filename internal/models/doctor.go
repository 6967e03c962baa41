package models

import (
	"time"

	"gorm.io/datatypes"
)

// Doctor represents a doctor record linked to a user account.
type Doctor struct {
	BaseModel
	UserID  string  `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Profile Profile `gorm:"embedded" json:"profile"`

	Specialization    string  `gorm:"size:100;not null" json:"specialization"`
	Qualifications    string  `gorm:"type:text" json:"qualifications"`
	ExperienceYears   int     `json:"experienceYears"`
	ProfessionalTitle string  `gorm:"size:200" json:"professionalTitle,omitempty"`
	Bio               string  `gorm:"type:text" json:"bio,omitempty"`
	ConsultationFee   float64 `json:"consultationFee"`
	IsVerified        bool    `gorm:"default:false" json:"isVerified"`

	// Medical license information
	LicenseNumber     string     `gorm:"size:50;not null" json:"licenseNumber"`
	LicenseState      string     `gorm:"size:100" json:"licenseState,omitempty"`
	LicenseIssueDate  *time.Time `json:"licenseIssueDate,omitempty"`
	LicenseExpiryDate *time.Time `json:"licenseExpiryDate,omitempty"`
	NpiNumber         string     `gorm:"size:20" json:"npiNumber,omitempty"`

	// Education and board certifications, stored as JSON documents
	EducationTraining   datatypes.JSON `json:"educationTraining,omitempty"`
	BoardCertifications datatypes.JSON `json:"boardCertifications,omitempty"`

	// Weekly availability: comma-separated weekday names plus a daily
	// start/end window in HH:MM, e.g. "Monday,Wednesday,Friday" 09:00-17:00.
	AvailableDays      string `gorm:"size:100" json:"availableDays,omitempty"`
	AvailableTimeStart string `gorm:"size:5" json:"availableTimeStart,omitempty"`
	AvailableTimeEnd   string `gorm:"size:5" json:"availableTimeEnd,omitempty"`

	// Relations
	User         User          `gorm:"foreignKey:UserID" json:"-"`
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
}
