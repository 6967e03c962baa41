package models

import (
	"time"
)

// ConsultationRecord captures the outcome of a completed appointment.
type ConsultationRecord struct {
	BaseModel
	AppointmentID  string  `gorm:"size:36;uniqueIndex;not null" json:"appointmentId"`
	PatientID      string  `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID       string  `gorm:"size:36;index;not null" json:"doctorId"`
	AIPredictionID *string `gorm:"size:36" json:"aiPredictionId,omitempty"`

	OfficialDiagnosis    string    `gorm:"size:500;not null" json:"officialDiagnosis"`
	AIDiagnosisConfirmed bool      `json:"aiDiagnosisConfirmed"`
	ConsultationNotes    string    `gorm:"size:2000" json:"consultationNotes,omitempty"`
	TreatmentPlan        string    `gorm:"size:2000" json:"treatmentPlan,omitempty"`
	LabTestsOrdered      string    `gorm:"size:1000" json:"labTestsOrdered,omitempty"`
	ConsultationDate     time.Time `json:"consultationDate"`

	// Relations
	Appointment   Appointment    `gorm:"foreignKey:AppointmentID" json:"-"`
	Patient       Patient        `gorm:"foreignKey:PatientID" json:"-"`
	Doctor        Doctor         `gorm:"foreignKey:DoctorID" json:"-"`
	Prescriptions []Prescription `gorm:"foreignKey:ConsultationRecordID" json:"prescriptions,omitempty"`
}

// Prescription is one prescribed drug on a consultation record.
type Prescription struct {
	BaseModel
	ConsultationRecordID string `gorm:"size:36;index;not null" json:"consultationRecordId"`
	DrugName             string `gorm:"size:200;not null" json:"drugName"`
	Dosage               string `gorm:"size:100;not null" json:"dosage"`
	Frequency            string `gorm:"size:100;not null" json:"frequency"`
	Duration             string `gorm:"size:100;not null" json:"duration"`
	Instructions         string `gorm:"size:500" json:"instructions,omitempty"`
}
