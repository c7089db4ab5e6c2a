package hl7v2

import (
	"strings"
	"time"
)

// PID, OBX and DG1 field positions used by the extractor
const (
	pidFieldID        = 3
	pidFieldName      = 5
	pidFieldBirthDate = 7
	pidFieldSex       = 8

	obxFieldCode     = 3
	obxFieldValue    = 5
	obxFieldUnits    = 6
	obxFieldDateTime = 14

	dg1FieldCode     = 3
	dg1FieldDateTime = 5
)

// PatientIdentity holds the identity attributes extracted from a PID
// segment. Empty fields mean the attribute was absent in the source.
type PatientIdentity struct {
	PatientID string
	Name      string
	Gender    string // M, F, O or U; empty when the field was absent
	BirthDate string // YYYY-MM-DD
}

// ObservationResult holds the attributes extracted from an OBX segment
type ObservationResult struct {
	Code              string
	Value             string
	Unit              string
	EffectiveDateTime string
}

// Diagnosis holds the attributes extracted from a DG1 segment
type Diagnosis struct {
	Code          string
	Description   string
	DiagnosisDate string
}

// Extractor pulls typed intermediate structures out of parsed segments.
// All extractions tolerate short segments: an absent field leaves the
// attribute empty, never an error.
type Extractor struct {
	componentSep string
}

// NewExtractor creates a new extractor
func NewExtractor(config *ParserConfig) *Extractor {
	sep := DefaultComponentSeparator
	if config != nil && config.ComponentSeparator != "" {
		sep = config.ComponentSeparator
	}
	return &Extractor{componentSep: sep}
}

// ExtractPatientIdentity extracts patient identity from a PID segment
func (e *Extractor) ExtractPatientIdentity(seg Segment) PatientIdentity {
	identity := PatientIdentity{
		PatientID: seg.Field(pidFieldID),
		BirthDate: parseHL7Date(seg.Field(pidFieldBirthDate)),
	}

	if name := seg.Field(pidFieldName); name != "" {
		comps := strings.Split(name, e.componentSep)
		family := comps[0]
		given := ""
		if len(comps) > 1 {
			given = comps[1]
		}
		identity.Name = strings.TrimSpace(given + " " + family)
	}

	if len(seg) > pidFieldSex {
		switch sex := seg.Field(pidFieldSex); sex {
		case "M", "F", "O", "U":
			identity.Gender = sex
		default:
			identity.Gender = "U"
		}
	}

	return identity
}

// ExtractObservation extracts an observation result from an OBX segment
func (e *Extractor) ExtractObservation(seg Segment) ObservationResult {
	obs := ObservationResult{
		Value:             seg.Field(obxFieldValue),
		Unit:              seg.Field(obxFieldUnits),
		EffectiveDateTime: parseHL7Date(seg.Field(obxFieldDateTime)),
	}

	if code := seg.Field(obxFieldCode); code != "" {
		obs.Code = strings.Split(code, e.componentSep)[0]
	}

	return obs
}

// ExtractDiagnosis extracts a diagnosis from a DG1 segment
func (e *Extractor) ExtractDiagnosis(seg Segment) Diagnosis {
	diag := Diagnosis{
		DiagnosisDate: parseHL7Date(seg.Field(dg1FieldDateTime)),
	}

	if code := seg.Field(dg1FieldCode); code != "" {
		comps := strings.Split(code, e.componentSep)
		diag.Code = comps[0]
		if len(comps) > 1 {
			diag.Description = comps[1]
		}
	}

	return diag
}

// parseHL7Date parses the YYYYMMDD prefix of an HL7 date or timestamp
// into YYYY-MM-DD. Anything shorter, non-numeric or outside calendar
// range yields "" — downstream treats that as unknown, not a failure.
func parseHL7Date(value string) string {
	if len(value) < 8 {
		return ""
	}
	t, err := time.Parse("20060102", value[:8])
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}
