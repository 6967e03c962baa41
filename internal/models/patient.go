package models

// Patient represents a patient record linked to a user account.
type Patient struct {
	BaseModel
	UserID  string  `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Profile Profile `gorm:"embedded" json:"profile"`

	BloodGroup       string `gorm:"size:5" json:"bloodGroup,omitempty"`
	Allergies        string `gorm:"type:text" json:"allergies,omitempty"`
	MedicalHistory   string `gorm:"type:text" json:"medicalHistory,omitempty"`
	IsPregnant       bool   `gorm:"default:false" json:"isPregnant"`
	EmergencyContact string `gorm:"size:100" json:"emergencyContact,omitempty"`
	EmergencyPhone   string `gorm:"size:20" json:"emergencyPhone,omitempty"`

	// Relations
	User         User           `gorm:"foreignKey:UserID" json:"-"`
	Appointments []Appointment  `gorm:"foreignKey:PatientID" json:"-"`
	Entries      []SymptomEntry `gorm:"foreignKey:PatientID" json:"-"`
}
