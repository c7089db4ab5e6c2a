package risk

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/savegress/carebridge/pkg/models"
)

func conditionRecord(display string) models.CanonicalRecord {
	return models.CanonicalRecord{
		Type: models.RecordTypeCondition,
		Condition: &models.CanonicalCondition{
			PatientID:  "TEST123",
			Code:       "I10",
			CodeSystem: "icd10",
			Display:    display,
		},
	}
}

func TestScore_UnknownModel(t *testing.T) {
	s := NewService(nil)

	_, err := s.Score(context.Background(), "gpt-9000", conditionRecord("Hypertension"))
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestScore_Baseline(t *testing.T) {
	s := NewService(nil)

	score, err := s.Score(context.Background(), "baseline", conditionRecord("Hypertension"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-0.30) > 1e-9 {
		t.Errorf("expected base 0.05 + hypertension 0.25, got %v", score)
	}

	score, err = s.Score(context.Background(), "baseline", conditionRecord("Seasonal allergies"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-0.05) > 1e-9 {
		t.Errorf("expected base rate for a neutral condition, got %v", score)
	}
}

type fixedScorer struct {
	score float64
	err   error
	text  string
}

func (f *fixedScorer) Score(_ context.Context, text string) (float64, error) {
	f.text = text
	return f.score, f.err
}

func TestRegister(t *testing.T) {
	s := NewService(nil)
	scorer := &fixedScorer{score: 0.75}
	s.Register("custom", scorer)

	score, err := s.Score(context.Background(), "custom", conditionRecord("Hypertension"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.75 {
		t.Errorf("expected registered scorer to run, got %v", score)
	}
	if !strings.Contains(scorer.text, "Hypertension") {
		t.Errorf("scorer must receive the record rendering, got %q", scorer.text)
	}

	found := false
	for _, name := range s.Models() {
		if name == "custom" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected custom in model list, got %v", s.Models())
	}
}

func TestScore_ScorerError(t *testing.T) {
	s := NewService(nil)
	s.Register("broken", &fixedScorer{err: errors.New("backend down")})

	_, err := s.Score(context.Background(), "broken", conditionRecord("Hypertension"))
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected wrapped scorer error, got %v", err)
	}
}

func TestFormatRecord(t *testing.T) {
	record := models.CanonicalRecord{
		Type: models.RecordTypePatient,
		Patient: &models.CanonicalPatient{
			ID:        "TEST123",
			Name:      "John Doe",
			Gender:    models.GenderMale,
			BirthDate: "1990-01-15",
		},
	}
	text := FormatRecord(record)
	if text != "Patient TEST123 (John Doe), gender male, born 1990-01-15." {
		t.Errorf("unexpected patient rendering: %q", text)
	}

	value := 120.0
	record = models.CanonicalRecord{
		Type: models.RecordTypeObservation,
		Observation: &models.CanonicalObservation{
			PatientID: "TEST123",
			Display:   "Systolic blood pressure",
			Value:     &value,
			Unit:      "mmHg",
		},
	}
	text = FormatRecord(record)
	if text != "Patient TEST123 has observation Systolic blood pressure with value 120 mmHg." {
		t.Errorf("unexpected observation rendering: %q", text)
	}

	text = FormatRecord(conditionRecord("Hypertension"))
	if !strings.Contains(text, "has condition Hypertension") || !strings.Contains(text, "I10") {
		t.Errorf("unexpected condition rendering: %q", text)
	}

	if got := FormatRecord(models.CanonicalRecord{Type: "medication"}); got != "" {
		t.Errorf("unrecognized type must render empty, got %q", got)
	}
}
