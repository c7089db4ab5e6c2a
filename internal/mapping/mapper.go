package mapping

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/savegress/carebridge/pkg/models"
)

// SourceSystem identifies the vendor rule set used to normalize a raw
// record. Unknown identifiers are collapsed to SourceGeneric at the
// boundary by ParseSourceSystem, never at call sites.
type SourceSystem string

const (
	SourceEpic    SourceSystem = "epic"
	SourceCerner  SourceSystem = "cerner"
	SourceGeneric SourceSystem = "generic"
)

// dateLayouts are the accepted vendor date formats, tried in order.
// The first successful parse wins, so US-style month-first input is
// preferred over day-first when both would match.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"20060102",
}

// Mapper normalizes vendor-specific flat records into canonical
// records. It holds no mutable state and is safe for concurrent use.
type Mapper struct {
	log *zap.Logger
}

// NewMapper creates a new source-system mapper
func NewMapper(log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{log: log}
}

// ParseSourceSystem maps a declared source-system identifier onto the
// fixed registry, falling back to the generic rule set for anything
// unrecognized
func (m *Mapper) ParseSourceSystem(identifier string) SourceSystem {
	switch SourceSystem(strings.ToLower(identifier)) {
	case SourceEpic:
		return SourceEpic
	case SourceCerner:
		return SourceCerner
	case SourceGeneric:
		return SourceGeneric
	default:
		m.log.Warn("unknown source system, using generic mapping",
			zap.String("source_system", identifier))
		return SourceGeneric
	}
}

// MapToCanonical normalizes a raw vendor record into a canonical
// patient using the rule set of the given source system. Unparseable
// per-field data degrades to an absent attribute; the call itself never
// fails.
func (m *Mapper) MapToCanonical(raw map[string]string, source SourceSystem) *models.CanonicalPatient {
	m.log.Debug("mapping record to canonical model",
		zap.String("source_system", string(source)))

	switch source {
	case SourceEpic:
		return m.mapEpic(raw)
	case SourceCerner:
		return m.mapCerner(raw)
	default:
		return m.mapGeneric(raw)
	}
}

func (m *Mapper) mapEpic(raw map[string]string) *models.CanonicalPatient {
	return &models.CanonicalPatient{
		ID:        raw["PAT_MRN"],
		BirthDate: m.StandardizeDate(raw["BIRTH_DATE"]),
		Gender:    NormalizeGender(raw["SEX"]),
		Race:      textValue(raw["RACE"]),
		Ethnicity: textValue(raw["ETHNICITY"]),
	}
}

func (m *Mapper) mapCerner(raw map[string]string) *models.CanonicalPatient {
	return &models.CanonicalPatient{
		ID:        raw["PATIENT_ID"],
		BirthDate: m.StandardizeDate(raw["DOB"]),
		Gender:    NormalizeGender(raw["GENDER"]),
	}
}

func (m *Mapper) mapGeneric(raw map[string]string) *models.CanonicalPatient {
	return &models.CanonicalPatient{
		ID:        firstOf(raw, "id", "patient_id"),
		BirthDate: m.StandardizeDate(firstOf(raw, "birth_date", "birthdate")),
		Gender:    NormalizeGender(firstOf(raw, "gender", "sex")),
	}
}

// StandardizeDate renders a vendor date as YYYY-MM-DD, trying the fixed
// layout list in order. An unrecognized value yields "" and a warning,
// never an error.
func (m *Mapper) StandardizeDate(value string) string {
	if value == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}

	m.log.Warn("could not parse date", zap.String("value", value))
	return ""
}

// NormalizeGender maps single-letter and full-word vendor gender codes
// onto the canonical values, case-insensitively. Anything unrecognized
// becomes unknown: lossy, but a record is never rejected over a gender
// code.
func NormalizeGender(code string) models.Gender {
	switch strings.ToLower(code) {
	case "m", "male":
		return models.GenderMale
	case "f", "female":
		return models.GenderFemale
	case "o", "other":
		return models.GenderOther
	default:
		return models.GenderUnknown
	}
}

func textValue(s string) *models.TextValue {
	if s == "" {
		return nil
	}
	return &models.TextValue{Text: s}
}

func firstOf(raw map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := raw[key]; v != "" {
			return v
		}
	}
	return ""
}
