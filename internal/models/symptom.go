package models

// Symptom is a catalog entry selectable when reporting symptoms.
type Symptom struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	Category    string `gorm:"size:100" json:"category,omitempty"`
}

// Disease is a catalog entry the prediction scorer can rank.
type Disease struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:1000" json:"description,omitempty"`
	Specialty   string `gorm:"size:100" json:"specialty,omitempty"`

	Symptoms []DiseaseSymptom `gorm:"foreignKey:DiseaseID" json:"-"`
}

// DiseaseSymptom links a disease to one of its known symptoms with a weight.
type DiseaseSymptom struct {
	BaseModel
	DiseaseID string  `gorm:"size:36;index;not null;uniqueIndex:idx_disease_symptom" json:"diseaseId"`
	SymptomID string  `gorm:"size:36;index;not null;uniqueIndex:idx_disease_symptom" json:"symptomId"`
	Weight    float64 `gorm:"default:1" json:"weight"`
}

// SymptomEntry records one symptom report made by a patient.
type SymptomEntry struct {
	BaseModel
	PatientID     string `gorm:"size:36;index;not null" json:"patientId"`
	SeverityLevel int    `gorm:"default:1" json:"severityLevel"`
	Description   string `gorm:"size:500" json:"description,omitempty"`

	// Relations
	Patient     Patient               `gorm:"foreignKey:PatientID" json:"-"`
	Symptoms    []SymptomEntrySymptom `gorm:"foreignKey:SymptomEntryID" json:"symptoms,omitempty"`
	Predictions []AIPrediction        `gorm:"foreignKey:SymptomEntryID" json:"predictions,omitempty"`
}

// SymptomEntrySymptom links a symptom entry to a selected symptom.
type SymptomEntrySymptom struct {
	BaseModel
	SymptomEntryID string `gorm:"size:36;index;not null" json:"symptomEntryId"`
	SymptomID      string `gorm:"size:36;index;not null" json:"symptomId"`

	Symptom Symptom `gorm:"foreignKey:SymptomID" json:"symptom"`
}

// AIPrediction is one ranked disease probability for a symptom entry.
type AIPrediction struct {
	BaseModel
	SymptomEntryID  string   `gorm:"size:36;index;not null" json:"symptomEntryId"`
	DiseaseID       string   `gorm:"size:36;not null" json:"diseaseId"`
	Probability     float64  `json:"probability"`     // 0-100
	ConfidenceLevel *float64 `json:"confidenceLevel"` // 0-100
	Recommendations string   `gorm:"type:text" json:"recommendations,omitempty"`

	Disease Disease `gorm:"foreignKey:DiseaseID" json:"disease"`
}
