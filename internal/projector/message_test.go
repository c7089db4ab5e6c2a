package projector

import (
	"testing"

	"github.com/savegress/carebridge/pkg/models"
)

const sampleMessage = "MSH|^~\\&|SENDER|FACILITY|RECEIVER|FACILITY|20240101120000||ADT^A01|MSG001|P|2.5\n" +
	"PID|1||TEST123||Doe^John||19900115|M\n" +
	"OBX|1|NM|8480-6^Systolic blood pressure||120|mmHg|||||F|||20240101120000\n" +
	"DG1|1||I10^Essential hypertension||20231201"

func TestConvertMessage(t *testing.T) {
	p := newTestProjector()

	bundle := p.ConvertMessage(sampleMessage)
	if bundle.ResourceType != models.ResourceTypeBundle || bundle.Type != "transaction" {
		t.Fatalf("unexpected bundle envelope: %+v", bundle)
	}
	if len(bundle.Entry) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(bundle.Entry))
	}

	patient, ok := bundle.Entry[0].Resource.(*models.Patient)
	if !ok {
		t.Fatalf("expected Patient first, got %T", bundle.Entry[0].Resource)
	}
	if patient.ID != "TEST123" {
		t.Errorf("expected patient id TEST123, got %s", patient.ID)
	}
	if len(patient.Name) != 1 || patient.Name[0].Text != "John Doe" {
		t.Errorf("unexpected patient name: %+v", patient.Name)
	}
	if patient.Gender != "male" {
		t.Errorf("expected gender male, got %s", patient.Gender)
	}
	if patient.BirthDate != "1990-01-15" {
		t.Errorf("expected birth date 1990-01-15, got %s", patient.BirthDate)
	}

	obs, ok := bundle.Entry[1].Resource.(*models.Observation)
	if !ok {
		t.Fatalf("expected Observation second, got %T", bundle.Entry[1].Resource)
	}
	if obs.Subject == nil || obs.Subject.Reference != "Patient/TEST123" {
		t.Errorf("observation must reference the message patient, got %+v", obs.Subject)
	}
	if obs.ValueQuantity == nil || obs.ValueQuantity.Value != 120.0 {
		t.Errorf("expected quantity 120.0, got %+v", obs.ValueQuantity)
	}
	if obs.EffectiveDateTime != "2024-01-01" {
		t.Errorf("expected effective date 2024-01-01, got %s", obs.EffectiveDateTime)
	}

	cond, ok := bundle.Entry[2].Resource.(*models.Condition)
	if !ok {
		t.Fatalf("expected Condition third, got %T", bundle.Entry[2].Resource)
	}
	if cond.Code == nil || cond.Code.Coding[0].Code != "38341003" {
		t.Errorf("expected ICD-10 I10 translated to SNOMED 38341003, got %+v", cond.Code)
	}
	if cond.OnsetDateTime != "2023-12-01" {
		t.Errorf("expected onset 2023-12-01, got %s", cond.OnsetDateTime)
	}
}

func TestConvertMessage_Empty(t *testing.T) {
	p := newTestProjector()

	bundle := p.ConvertMessage("")
	if len(bundle.Entry) != 0 {
		t.Errorf("empty input must yield an empty bundle, got %d entries", len(bundle.Entry))
	}
}

func TestConvertMessage_NoPatient(t *testing.T) {
	p := newTestProjector()

	bundle := p.ConvertMessage("OBX|1|NM|8480-6||120|mmHg")
	if len(bundle.Entry) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(bundle.Entry))
	}
	obs, ok := bundle.Entry[0].Resource.(*models.Observation)
	if !ok {
		t.Fatalf("expected Observation, got %T", bundle.Entry[0].Resource)
	}
	if obs.Subject.Reference != "Patient/unknown" {
		t.Errorf("expected unknown patient reference, got %s", obs.Subject.Reference)
	}
}
