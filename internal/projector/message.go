package projector

import (
	"github.com/savegress/carebridge/internal/hl7v2"
	"github.com/savegress/carebridge/internal/mapping"
	"github.com/savegress/carebridge/internal/terminology"
	"github.com/savegress/carebridge/pkg/models"
)

// ConvertMessage translates a raw wire message into a resource bundle:
// the first PID becomes the Patient entry, then one Observation per
// OBX, then one Condition per DG1. Diagnosis codes are assumed ICD-10
// and translated toward SNOMED CT. Bundle order is a contract, not an
// accident.
func (p *Projector) ConvertMessage(raw string) *models.Bundle {
	msg := p.parser.Parse(raw)

	bundle := &models.Bundle{
		ResourceType: models.ResourceTypeBundle,
		Type:         "transaction",
		Entry:        []models.BundleEntry{},
	}

	patientID := "unknown"
	if seg, ok := msg.First(hl7v2.SegmentPID); ok {
		identity := p.extractor.ExtractPatientIdentity(seg)

		patient := &models.CanonicalPatient{
			ID:        identity.PatientID,
			Name:      identity.Name,
			BirthDate: identity.BirthDate,
		}
		if identity.Gender != "" {
			patient.Gender = mapping.NormalizeGender(identity.Gender)
		}

		resource := p.ProjectPatient(patient)
		patientID = resource.ID
		bundle.Entry = append(bundle.Entry, models.BundleEntry{Resource: resource})
	}

	for _, seg := range msg.Segments(hl7v2.SegmentOBX) {
		result := p.extractor.ExtractObservation(seg)
		obs := &models.CanonicalObservation{
			Code:              result.Code,
			ValueString:       result.Value,
			Unit:              result.Unit,
			EffectiveDateTime: result.EffectiveDateTime,
		}
		bundle.Entry = append(bundle.Entry, models.BundleEntry{Resource: p.ProjectObservation(obs, patientID)})
	}

	for _, seg := range msg.Segments(hl7v2.SegmentDG1) {
		diag := p.extractor.ExtractDiagnosis(seg)
		cond := &models.CanonicalCondition{
			Code:       diag.Code,
			CodeSystem: terminology.SystemICD10,
			Display:    diag.Description,
			OnsetDate:  diag.DiagnosisDate,
		}
		bundle.Entry = append(bundle.Entry, models.BundleEntry{Resource: p.ProjectCondition(cond, patientID)})
	}

	return bundle
}
