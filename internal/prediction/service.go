package prediction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medipredict-server/internal/models"
)

// MinSymptoms is the smallest selection that produces a meaningful ranking.
const MinSymptoms = 3

const maxPredictions = 5

var (
	ErrTooFewSymptoms  = errors.New("at least 3 symptoms are required")
	ErrUnknownSymptom  = errors.New("unknown symptom selected")
	ErrPatientNotFound = errors.New("patient profile not found")
)

// Service scores symptom reports against the disease-symptom catalog.
// No external model is involved; the ranking is a weighted overlap of
// the selected symptoms with each disease's known symptom set.
type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log}
}

// Analyze records a symptom entry for the patient and returns ranked
// disease predictions, highest probability first.
func (s *Service) Analyze(ctx context.Context, patientUserID string, symptomIDs []string, description string) (*models.SymptomEntry, []models.AIPrediction, error) {
	symptomIDs = dedupe(symptomIDs)
	if len(symptomIDs) < MinSymptoms {
		return nil, nil, ErrTooFewSymptoms
	}

	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "user_id = ?", patientUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPatientNotFound
		}
		return nil, nil, err
	}

	var symptoms []models.Symptom
	if err := s.db.WithContext(ctx).Find(&symptoms, "id IN ?", symptomIDs).Error; err != nil {
		return nil, nil, err
	}
	if len(symptoms) != len(symptomIDs) {
		return nil, nil, ErrUnknownSymptom
	}

	if description == "" {
		byID := make(map[string]string, len(symptoms))
		for _, sym := range symptoms {
			byID[sym.ID] = sym.Name
		}
		names := make([]string, len(symptomIDs))
		for i, id := range symptomIDs {
			names[i] = byID[id]
		}
		description = strings.Join(names, ", ")
	}

	entry := &models.SymptomEntry{
		PatientID:     patient.ID,
		SeverityLevel: severityLevel(len(symptomIDs)),
		Description:   description,
	}

	var predictions []models.AIPrediction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		for _, id := range symptomIDs {
			link := models.SymptomEntrySymptom{SymptomEntryID: entry.ID, SymptomID: id}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		ranked, err := s.rank(tx, symptomIDs)
		if err != nil {
			return err
		}
		if len(ranked) == 0 {
			ranked, err = s.fallback(tx, len(symptomIDs))
			if err != nil {
				return err
			}
		}

		for _, c := range ranked {
			p := models.AIPrediction{
				SymptomEntryID:  entry.ID,
				DiseaseID:       c.diseaseID,
				Probability:     c.probability,
				ConfidenceLevel: &c.probability,
				Recommendations: fmt.Sprintf(
					"Based on the symptoms provided, there is a %.2f%% probability of %s. Please consult a healthcare professional for proper diagnosis and treatment.",
					c.probability, c.diseaseName),
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			predictions = append(predictions, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("patient_id", patient.ID).
		Str("symptom_entry_id", entry.ID).
		Int("symptoms", len(symptomIDs)).
		Int("predictions", len(predictions)).
		Msg("symptom analysis completed")

	return entry, predictions, nil
}

// EntriesForPatient returns the patient's symptom history with
// predictions, newest first.
func (s *Service) EntriesForPatient(ctx context.Context, patientUserID string, limit int) ([]models.SymptomEntry, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "user_id = ?", patientUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var entries []models.SymptomEntry
	err := s.db.WithContext(ctx).
		Preload("Symptoms.Symptom").
		Preload("Predictions.Disease").
		Where("patient_id = ?", patient.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// Symptoms returns the selectable symptom catalog, name-ordered.
func (s *Service) Symptoms(ctx context.Context) ([]models.Symptom, error) {
	var symptoms []models.Symptom
	err := s.db.WithContext(ctx).Order("name").Find(&symptoms).Error
	return symptoms, err
}

type candidate struct {
	diseaseID   string
	diseaseName string
	probability float64
}

// rank scores every disease sharing at least one symptom with the
// selection: matched weight over the disease's total weight, capped at
// 95 so the result never reads as a certainty.
func (s *Service) rank(tx *gorm.DB, symptomIDs []string) ([]candidate, error) {
	var links []models.DiseaseSymptom
	if err := tx.Find(&links, "symptom_id IN ?", symptomIDs).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}

	matched := make(map[string]float64)
	for _, l := range links {
		matched[l.DiseaseID] += l.Weight
	}

	diseaseIDs := make([]string, 0, len(matched))
	for id := range matched {
		diseaseIDs = append(diseaseIDs, id)
	}

	var totals []struct {
		DiseaseID string
		Total     float64
	}
	err := tx.Model(&models.DiseaseSymptom{}).
		Select("disease_id, SUM(weight) AS total").
		Where("disease_id IN ?", diseaseIDs).
		Group("disease_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var diseases []models.Disease
	if err := tx.Find(&diseases, "id IN ?", diseaseIDs).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(diseases))
	for _, d := range diseases {
		names[d.ID] = d.Name
	}

	candidates := make([]candidate, 0, len(totals))
	for _, t := range totals {
		if t.Total <= 0 {
			continue
		}
		p := matched[t.DiseaseID] / t.Total * 100
		if p > 95 {
			p = 95
		}
		candidates = append(candidates, candidate{
			diseaseID:   t.DiseaseID,
			diseaseName: names[t.DiseaseID],
			probability: p,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].probability != candidates[j].probability {
			return candidates[i].probability > candidates[j].probability
		}
		return candidates[i].diseaseName < candidates[j].diseaseName
	})
	if len(candidates) > maxPredictions {
		candidates = candidates[:maxPredictions]
	}
	return candidates, nil
}

// fallback produces a generic ranking when the catalog has no overlap
// with the selection, creating the placeholder diseases on first use.
func (s *Service) fallback(tx *gorm.DB, symptomCount int) ([]candidate, error) {
	fallbackDiseases := []string{"Common Cold", "Flu", "Viral Infection"}

	candidates := make([]candidate, 0, len(fallbackDiseases))
	for i, name := range fallbackDiseases {
		probability := 30 + float64(symptomCount)*5 - float64(i)*10
		if probability > 95 {
			probability = 95
		}

		var disease models.Disease
		err := tx.Where(models.Disease{Name: name}).
			Attrs(models.Disease{Description: "Common condition matched by general symptoms"}).
			FirstOrCreate(&disease).Error
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{
			diseaseID:   disease.ID,
			diseaseName: disease.Name,
			probability: probability,
		})
	}
	return candidates, nil
}

func severityLevel(symptomCount int) int {
	switch {
	case symptomCount >= 15:
		return 5
	case symptomCount >= 10:
		return 4
	case symptomCount >= 6:
		return 3
	case symptomCount >= 3:
		return 2
	default:
		return 1
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
