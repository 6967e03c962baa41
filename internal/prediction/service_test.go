package prediction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medipredict-server/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	userID   string
	symptoms map[string]string // name -> id
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)

	user := &models.User{Email: "patient@example.test", Role: models.RolePatient}
	if err := user.SetPassword("secret123"); err != nil {
		t.Fatal(err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatal(err)
	}
	patient := &models.Patient{UserID: user.ID, Profile: models.Profile{FirstName: "Ann", LastName: "Lee"}}
	if err := db.Create(patient).Error; err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		db:       db,
		svc:      NewService(db, zerolog.Nop()),
		userID:   user.ID,
		symptoms: make(map[string]string),
	}
	for _, name := range []string{"fever", "cough", "headache", "fatigue", "sore throat", "rash"} {
		sym := &models.Symptom{Name: name}
		if err := db.Create(sym).Error; err != nil {
			t.Fatal(err)
		}
		f.symptoms[name] = sym.ID
	}
	return f
}

func (f *fixture) addDisease(t *testing.T, name string, weighted map[string]float64) string {
	t.Helper()
	d := &models.Disease{Name: name}
	if err := f.db.Create(d).Error; err != nil {
		t.Fatal(err)
	}
	for symptomName, weight := range weighted {
		link := &models.DiseaseSymptom{DiseaseID: d.ID, SymptomID: f.symptoms[symptomName], Weight: weight}
		if err := f.db.Create(link).Error; err != nil {
			t.Fatal(err)
		}
	}
	return d.ID
}

func (f *fixture) pick(names ...string) []string {
	ids := make([]string, len(names))
	for i, n := range names {
		ids[i] = f.symptoms[n]
	}
	return ids
}

func TestAnalyzeRanksByWeightedOverlap(t *testing.T) {
	f := setup(t)
	fluID := f.addDisease(t, "Influenza", map[string]float64{
		"fever": 2, "cough": 1, "headache": 1, "fatigue": 1,
	})
	coldID := f.addDisease(t, "Common Cold", map[string]float64{
		"cough": 1, "sore throat": 2, "headache": 1,
	})

	entry, predictions, err := f.svc.Analyze(context.Background(), f.userID, f.pick("fever", "cough", "headache"), "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if entry.SeverityLevel != 2 {
		t.Errorf("severity = %d, want 2 for three symptoms", entry.SeverityLevel)
	}
	if entry.Description != "fever, cough, headache" {
		t.Errorf("description = %q", entry.Description)
	}
	if len(predictions) != 2 {
		t.Fatalf("got %d predictions, want 2", len(predictions))
	}
	// Influenza matches 4/5 of its weight, Common Cold 2/4.
	if predictions[0].DiseaseID != fluID {
		t.Errorf("top prediction disease = %s, want influenza", predictions[0].DiseaseID)
	}
	if p := predictions[0].Probability; p != 80 {
		t.Errorf("influenza probability = %v, want 80", p)
	}
	if predictions[1].DiseaseID != coldID {
		t.Errorf("second prediction disease = %s, want common cold", predictions[1].DiseaseID)
	}
	if p := predictions[1].Probability; p != 50 {
		t.Errorf("common cold probability = %v, want 50", p)
	}
	if !strings.Contains(predictions[0].Recommendations, "Influenza") {
		t.Errorf("recommendations %q do not name the disease", predictions[0].Recommendations)
	}
}

func TestAnalyzeProbabilityCappedAt95(t *testing.T) {
	f := setup(t)
	f.addDisease(t, "Influenza", map[string]float64{"fever": 1, "cough": 1, "headache": 1})

	_, predictions, err := f.svc.Analyze(context.Background(), f.userID, f.pick("fever", "cough", "headache"), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(predictions) != 1 || predictions[0].Probability != 95 {
		t.Fatalf("full-overlap probability = %v, want capped 95", predictions[0].Probability)
	}
}

func TestAnalyzeFallsBackWithoutCatalogOverlap(t *testing.T) {
	f := setup(t)
	// No diseases at all: the generic trio is created on the fly.
	_, predictions, err := f.svc.Analyze(context.Background(), f.userID, f.pick("fever", "cough", "rash"), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(predictions) != 3 {
		t.Fatalf("got %d fallback predictions, want 3", len(predictions))
	}
	// 30 + 3*5 = 45, then 35, then 25.
	want := []float64{45, 35, 25}
	for i, p := range predictions {
		if p.Probability != want[i] {
			t.Errorf("fallback[%d] probability = %v, want %v", i, p.Probability, want[i])
		}
	}
	var diseases int64
	f.db.Model(&models.Disease{}).Count(&diseases)
	if diseases != 3 {
		t.Errorf("fallback created %d diseases, want 3", diseases)
	}
}

func TestAnalyzeRejectsShortSelections(t *testing.T) {
	f := setup(t)
	_, _, err := f.svc.Analyze(context.Background(), f.userID, f.pick("fever", "cough"), "")
	if !errors.Is(err, ErrTooFewSymptoms) {
		t.Fatalf("err = %v, want ErrTooFewSymptoms", err)
	}
	// Duplicates collapse before the minimum is checked.
	_, _, err = f.svc.Analyze(context.Background(), f.userID,
		[]string{f.symptoms["fever"], f.symptoms["fever"], f.symptoms["cough"]}, "")
	if !errors.Is(err, ErrTooFewSymptoms) {
		t.Fatalf("err = %v, want ErrTooFewSymptoms for duplicated selection", err)
	}
}

func TestAnalyzeRejectsUnknownSymptoms(t *testing.T) {
	f := setup(t)
	ids := append(f.pick("fever", "cough"), "no-such-symptom")
	_, _, err := f.svc.Analyze(context.Background(), f.userID, ids, "")
	if !errors.Is(err, ErrUnknownSymptom) {
		t.Fatalf("err = %v, want ErrUnknownSymptom", err)
	}
}

func TestAnalyzeUnknownPatient(t *testing.T) {
	f := setup(t)
	_, _, err := f.svc.Analyze(context.Background(), "missing-user", f.pick("fever", "cough", "rash"), "")
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("err = %v, want ErrPatientNotFound", err)
	}
}

func TestEntriesForPatientNewestFirst(t *testing.T) {
	f := setup(t)
	f.addDisease(t, "Influenza", map[string]float64{"fever": 1, "cough": 1})

	first, _, err := f.svc.Analyze(context.Background(), f.userID, f.pick("fever", "cough", "headache"), "first")
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := f.svc.Analyze(context.Background(), f.userID, f.pick("fever", "fatigue", "rash"), "second")
	if err != nil {
		t.Fatal(err)
	}

	entries, err := f.svc.EntriesForPatient(context.Background(), f.userID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatalf("entries not newest-first: got %s, %s", entries[0].ID, entries[1].ID)
	}
	if len(entries[0].Symptoms) != 3 {
		t.Errorf("entry symptoms not preloaded: %d", len(entries[0].Symptoms))
	}
	if len(entries[0].Predictions) == 0 && len(entries[1].Predictions) == 0 {
		t.Errorf("predictions not preloaded on either entry")
	}
}

func TestSymptomsCatalogOrdered(t *testing.T) {
	f := setup(t)
	symptoms, err := f.svc.Symptoms(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(symptoms) != 6 {
		t.Fatalf("got %d symptoms, want 6", len(symptoms))
	}
	for i := 1; i < len(symptoms); i++ {
		if symptoms[i-1].Name > symptoms[i].Name {
			t.Fatalf("catalog not name-ordered at %d: %q > %q", i, symptoms[i-1].Name, symptoms[i].Name)
		}
	}
}
