package projector

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savegress/carebridge/internal/hl7v2"
	"github.com/savegress/carebridge/internal/mapping"
	"github.com/savegress/carebridge/internal/terminology"
	"github.com/savegress/carebridge/pkg/models"
)

// UnitsOfMeasureSystem is the coding system carried by every quantity
// value
const UnitsOfMeasureSystem = "http://unitsofmeasure.org"

// Projector converts canonical records to FHIR resources and back. It
// owns resource construction and keeps no references into the canonical
// model once a translation completes.
type Projector struct {
	terms     *terminology.Mapper
	parser    *hl7v2.Parser
	extractor *hl7v2.Extractor
	log       *zap.Logger
}

// NewProjector creates a projector. The parser configuration applies to
// wire-message conversion; nil means standard delimiters.
func NewProjector(terms *terminology.Mapper, parserCfg *hl7v2.ParserConfig, log *zap.Logger) *Projector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Projector{
		terms:     terms,
		parser:    hl7v2.NewParser(parserCfg),
		extractor: hl7v2.NewExtractor(parserCfg),
		log:       log,
	}
}

// ProjectPatient converts a canonical patient to a FHIR Patient. Absent
// canonical attributes are omitted from the resource entirely rather
// than emitted as empty sub-structures.
func (p *Projector) ProjectPatient(patient *models.CanonicalPatient) *models.Patient {
	resource := &models.Patient{
		FHIRResource: models.FHIRResource{
			ResourceType: models.ResourceTypePatient,
			ID:           patient.ID,
		},
	}
	if resource.ID == "" {
		resource.ID = "patient-" + uuid.NewString()
	}

	if patient.Name != "" {
		resource.Name = []models.HumanName{{Text: patient.Name}}
	}
	if patient.Gender != "" {
		resource.Gender = string(patient.Gender)
	}
	if patient.BirthDate != "" {
		resource.BirthDate = patient.BirthDate
	}

	return resource
}

// ProjectCondition converts a canonical condition to a FHIR Condition.
// The diagnosis code is translated toward SNOMED CT; a crosswalk hit
// carries the SNOMED code and display, while a pass-through result
// falls back to the original code under its declared system with the
// locally supplied description.
func (p *Projector) ProjectCondition(cond *models.CanonicalCondition, patientID string) *models.Condition {
	resource := &models.Condition{
		FHIRResource: models.FHIRResource{
			ResourceType: models.ResourceTypeCondition,
			ID:           cond.ID,
		},
		Subject: &models.Reference{Reference: "Patient/" + patientID},
	}
	if resource.ID == "" {
		resource.ID = "cond-" + uuid.NewString()
	}

	if cond.Code != "" {
		system := cond.CodeSystem
		if system == "" {
			system = terminology.SystemICD10
		}

		mapped := p.terms.MapCode(cond.Code, system, terminology.SystemSNOMED)
		if mapped != nil && !mapped.Passthrough {
			resource.Code = p.terms.Concept(mapped.Code, terminology.SystemSNOMED, mapped.Display)
		} else {
			resource.Code = p.terms.Concept(cond.Code, system, cond.Display)
		}
	}

	if cond.OnsetDate != "" {
		resource.OnsetDateTime = cond.OnsetDate
	}
	if cond.AbatementDate != "" {
		resource.AbatementDateTime = cond.AbatementDate
	}

	return resource
}

// ProjectObservation converts a canonical observation to a FHIR
// Observation. A numeric result becomes a quantity value with its unit;
// anything else becomes a string value. Exactly one of the two is set.
func (p *Projector) ProjectObservation(obs *models.CanonicalObservation, patientID string) *models.Observation {
	resource := &models.Observation{
		FHIRResource: models.FHIRResource{
			ResourceType: models.ResourceTypeObservation,
			ID:           obs.ID,
		},
		Status:  "final",
		Subject: &models.Reference{Reference: "Patient/" + patientID},
	}
	if resource.ID == "" {
		resource.ID = "obs-" + uuid.NewString()
	}

	if obs.Code != "" {
		resource.Code = p.terms.Concept(obs.Code, terminology.SystemLOINC, obs.Display)
	}

	switch {
	case obs.Value != nil:
		resource.ValueQuantity = &models.Quantity{
			Value:  *obs.Value,
			Unit:   obs.Unit,
			System: UnitsOfMeasureSystem,
		}
	case obs.ValueString != "":
		// Numeric coercion is greedy: a string that parses as a number
		// becomes a quantity
		if value, err := strconv.ParseFloat(obs.ValueString, 64); err == nil {
			resource.ValueQuantity = &models.Quantity{
				Value:  value,
				Unit:   obs.Unit,
				System: UnitsOfMeasureSystem,
			}
		} else {
			resource.ValueString = obs.ValueString
		}
	}

	if obs.EffectiveDateTime != "" {
		resource.EffectiveDateTime = obs.EffectiveDateTime
	}

	return resource
}

// ToCanonicalPatient converts a FHIR Patient back to the canonical
// model. The display name prefers an explicit text field, falling back
// to "<given> <family>" assembly.
func (p *Projector) ToCanonicalPatient(resource *models.Patient) *models.CanonicalPatient {
	patient := &models.CanonicalPatient{
		ID:        resource.ID,
		BirthDate: resource.BirthDate,
	}

	if len(resource.Name) > 0 {
		name := resource.Name[0]
		if name.Text != "" {
			patient.Name = name.Text
		} else {
			given := ""
			if len(name.Given) > 0 {
				given = name.Given[0]
			}
			patient.Name = strings.TrimSpace(given + " " + name.Family)
		}
	}

	if resource.Gender != "" {
		patient.Gender = mapping.NormalizeGender(resource.Gender)
	}

	return patient
}

// ToCanonicalCondition converts a FHIR Condition back to the canonical
// model
func (p *Projector) ToCanonicalCondition(resource *models.Condition) *models.CanonicalCondition {
	cond := &models.CanonicalCondition{
		ID:            resource.ID,
		PatientID:     referenceID(resource.Subject),
		OnsetDate:     resource.OnsetDateTime,
		AbatementDate: resource.AbatementDateTime,
	}

	if resource.Code != nil && len(resource.Code.Coding) > 0 {
		coding := resource.Code.Coding[0]
		cond.Code = coding.Code
		cond.CodeSystem = p.terms.SystemFromURI(coding.System)
		cond.Display = coding.Display
	}

	return cond
}

// ToCanonicalObservation converts a FHIR Observation back to the
// canonical model
func (p *Projector) ToCanonicalObservation(resource *models.Observation) *models.CanonicalObservation {
	obs := &models.CanonicalObservation{
		ID:                resource.ID,
		PatientID:         referenceID(resource.Subject),
		EffectiveDateTime: resource.EffectiveDateTime,
	}

	if resource.Code != nil && len(resource.Code.Coding) > 0 {
		coding := resource.Code.Coding[0]
		obs.Code = coding.Code
		obs.Display = coding.Display
	}

	if resource.ValueQuantity != nil {
		value := resource.ValueQuantity.Value
		obs.Value = &value
		obs.Unit = resource.ValueQuantity.Unit
	} else if resource.ValueString != "" {
		obs.ValueString = resource.ValueString
	}

	return obs
}

// AssembleBundle projects a set of canonical records into a bundle,
// preserving input order. Records with an unrecognized type are skipped
// rather than failing the batch.
func (p *Projector) AssembleBundle(records []models.CanonicalRecord, patientID string) *models.Bundle {
	bundle := &models.Bundle{
		ResourceType: models.ResourceTypeBundle,
		Type:         "transaction",
		Entry:        []models.BundleEntry{},
	}

	for _, record := range records {
		switch record.Type {
		case models.RecordTypePatient:
			if record.Patient != nil {
				bundle.Entry = append(bundle.Entry, models.BundleEntry{Resource: p.ProjectPatient(record.Patient)})
			}
		case models.RecordTypeObservation:
			if record.Observation != nil {
				bundle.Entry = append(bundle.Entry, models.BundleEntry{Resource: p.ProjectObservation(record.Observation, patientID)})
			}
		case models.RecordTypeCondition:
			if record.Condition != nil {
				bundle.Entry = append(bundle.Entry, models.BundleEntry{Resource: p.ProjectCondition(record.Condition, patientID)})
			}
		default:
			p.log.Warn("skipping record with unrecognized type",
				zap.String("type", string(record.Type)))
		}
	}

	return bundle
}

// referenceID extracts the resource id from a "<Type>/<id>" reference
func referenceID(ref *models.Reference) string {
	if ref == nil || ref.Reference == "" {
		return ""
	}
	parts := strings.Split(ref.Reference, "/")
	return parts[len(parts)-1]
}
